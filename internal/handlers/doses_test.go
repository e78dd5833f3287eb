package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/juniorxam/vacina/internal/models"
	"github.com/juniorxam/vacina/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoseHandler_Register(t *testing.T) {
	var got services.RegisterDoseInput
	svc := &MockVaccinationService{
		RegisterDoseFunc: func(ctx context.Context, actor *models.Principal, in services.RegisterDoseInput, ip string) (*models.Dose, error) {
			got = in
			return &models.Dose{ID: 9, IDComp: in.IDComp, Vaccine: in.Vaccine}, nil
		},
	}
	campaign := int64(3)

	req := NewTestRequest(t, http.MethodPost, "/doses", RegisterDoseRequest{
		IDComp: "100-1", Vaccine: "Influenza", AppliedOn: "2024-04-10", CampaignID: &campaign,
	})
	w := httptest.NewRecorder()
	NewDoseHandler(svc, nil).Register(w, WithAuthContext(req, "maria", models.TierOperator))

	var dose models.Dose
	AssertJSONResponse(t, w, http.StatusCreated, &dose)
	assert.Equal(t, int64(9), dose.ID)
	assert.Equal(t, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), got.AppliedOn)
	require.NotNil(t, got.CampaignID)
	assert.Equal(t, int64(3), *got.CampaignID)
}

func TestDoseHandler_Register_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       RegisterDoseRequest
		serviceErr error
		wantStatus int
		wantError  string
	}{
		{"missing vaccine", RegisterDoseRequest{IDComp: "100-1"}, nil, http.StatusBadRequest, "bad_request"},
		{"bad date", RegisterDoseRequest{IDComp: "100-1", Vaccine: "Influenza", AppliedOn: "10/04/2024"}, nil, http.StatusBadRequest, "bad_request"},
		{"duplicate", RegisterDoseRequest{IDComp: "100-1", Vaccine: "Influenza"}, models.ErrDuplicateDose, http.StatusConflict, "conflict"},
		{"unknown employee", RegisterDoseRequest{IDComp: "999", Vaccine: "Influenza"}, models.ErrNotFound, http.StatusNotFound, "not_found"},
		{"viewer", RegisterDoseRequest{IDComp: "100-1", Vaccine: "Influenza"}, models.ErrForbidden, http.StatusForbidden, "forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockVaccinationService{
				RegisterDoseFunc: func(ctx context.Context, actor *models.Principal, in services.RegisterDoseInput, ip string) (*models.Dose, error) {
					return nil, tt.serviceErr
				},
			}
			w := httptest.NewRecorder()
			NewDoseHandler(svc, nil).Register(w, NewTestRequest(t, http.MethodPost, "/doses", tt.body))
			AssertErrorResponse(t, w, tt.wantStatus, tt.wantError)
		})
	}
}

func TestDoseHandler_ListByPeriod(t *testing.T) {
	var gotFrom, gotTo time.Time
	svc := &MockVaccinationService{
		ListByPeriodFunc: func(ctx context.Context, from, to time.Time) ([]*models.Dose, error) {
			gotFrom, gotTo = from, to
			return []*models.Dose{}, nil
		},
	}
	handler := NewDoseHandler(svc, nil)

	w := httptest.NewRecorder()
	handler.ListByPeriod(w, httptest.NewRequest(http.MethodGet, "/doses?from=2024-01-01&to=2024-01-31", nil))
	AssertJSONResponse(t, w, http.StatusOK, nil)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), gotFrom)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), gotTo)

	w = httptest.NewRecorder()
	handler.ListByPeriod(w, httptest.NewRequest(http.MethodGet, "/doses?from=2024-01-01", nil))
	AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestDoseHandler_Delete(t *testing.T) {
	var gotID int64
	var gotReason string
	svc := &MockVaccinationService{
		DeleteDoseFunc: func(ctx context.Context, actor *models.Principal, id int64, reason, ip string) error {
			gotID, gotReason = id, reason
			return nil
		},
	}
	handler := NewDoseHandler(svc, nil)

	w := httptest.NewRecorder()
	handler.Delete(w, WithURLParam(NewTestRequest(t, http.MethodDelete, "/doses/abc", DeleteDoseRequest{Reason: "x"}), "id", "abc"))
	AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")

	w = httptest.NewRecorder()
	handler.Delete(w, WithURLParam(NewTestRequest(t, http.MethodDelete, "/doses/3", DeleteDoseRequest{}), "id", "3"))
	AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")

	w = httptest.NewRecorder()
	req := WithURLParam(NewTestRequest(t, http.MethodDelete, "/doses/3", DeleteDoseRequest{Reason: "lançamento duplicado"}), "id", "3")
	handler.Delete(w, WithAuthContext(req, "admin", models.TierAdmin))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(3), gotID)
	assert.Equal(t, "lançamento duplicado", gotReason)
}

func TestDoseHandler_ListVaccines(t *testing.T) {
	svc := &MockVaccinationService{
		ListVaccinesFunc: func(ctx context.Context) ([]*models.Vaccine, error) {
			return []*models.Vaccine{{Name: "Influenza"}}, nil
		},
	}

	w := httptest.NewRecorder()
	NewDoseHandler(svc, nil).ListVaccines(w, httptest.NewRequest(http.MethodGet, "/vaccines", nil))

	var vaccines []models.Vaccine
	AssertJSONResponse(t, w, http.StatusOK, &vaccines)
	assert.Equal(t, "Influenza", vaccines[0].Name)
}
