package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/juniorxam/vacina/internal/auth"
	"github.com/juniorxam/vacina/internal/database"
	"github.com/juniorxam/vacina/internal/models"
	"github.com/juniorxam/vacina/internal/services"
	pkghttp "github.com/juniorxam/vacina/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds access token claims to the request context
func WithAuthContext(req *http.Request, login string, tier models.Tier) *http.Request {
	claims := &models.TokenClaims{
		Type:        "access",
		Login:       login,
		Name:        login,
		Tier:        tier,
		AllowedUnit: models.AllUnits,
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc          func(ctx context.Context, login, secret, ip string) (*services.LoginResponse, error)
	ChangePasswordFunc func(ctx context.Context, login, current, next, ip string) error
}

func (m *MockAuthService) Login(ctx context.Context, login, secret, ip string) (*services.LoginResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, login, secret, ip)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) ChangePassword(ctx context.Context, login, current, next, ip string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, login, current, next, ip)
	}
	return nil
}

// MockAccountService implements AccountServiceInterface for testing
type MockAccountService struct {
	CreateAccountFunc func(ctx context.Context, actor *models.Principal, in services.CreateAccountInput, ip string) (*models.Account, error)
	ListAccountsFunc  func(ctx context.Context, activeOnly bool) ([]*models.Account, error)
	ResetPasswordFunc func(ctx context.Context, actor *models.Principal, login, password, ip string) error
	SetActiveFunc     func(ctx context.Context, actor *models.Principal, login string, active bool, ip string) error
}

func (m *MockAccountService) CreateAccount(ctx context.Context, actor *models.Principal, in services.CreateAccountInput, ip string) (*models.Account, error) {
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, actor, in, ip)
	}
	return &models.Account{Login: in.Login, Tier: models.Tier(in.Tier), Active: true}, nil
}

func (m *MockAccountService) ListAccounts(ctx context.Context, activeOnly bool) ([]*models.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx, activeOnly)
	}
	return []*models.Account{}, nil
}

func (m *MockAccountService) ResetPassword(ctx context.Context, actor *models.Principal, login, password, ip string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, actor, login, password, ip)
	}
	return nil
}

func (m *MockAccountService) SetActive(ctx context.Context, actor *models.Principal, login string, active bool, ip string) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, actor, login, active, ip)
	}
	return nil
}

// MockEmployeeService implements EmployeeServiceInterface and DoseHistoryInterface for testing
type MockEmployeeService struct {
	RegisterFunc func(ctx context.Context, actor *models.Principal, in services.RegisterEmployeeInput, ip string) (*models.Employee, error)
	GetFunc      func(ctx context.Context, idComp string) (*models.Employee, error)
	SearchFunc   func(ctx context.Context, actor *models.Principal, term string, limit int) ([]*models.Employee, error)
	HistoryFunc  func(ctx context.Context, idComp string) ([]*models.Dose, error)
}

func (m *MockEmployeeService) Register(ctx context.Context, actor *models.Principal, in services.RegisterEmployeeInput, ip string) (*models.Employee, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, actor, in, ip)
	}
	return &models.Employee{IDComp: models.CompositeID(in.Registration, in.Bond), Name: in.Name}, nil
}

func (m *MockEmployeeService) Get(ctx context.Context, idComp string) (*models.Employee, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, idComp)
	}
	return nil, models.ErrNotFound
}

func (m *MockEmployeeService) Search(ctx context.Context, actor *models.Principal, term string, limit int) ([]*models.Employee, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, actor, term, limit)
	}
	return []*models.Employee{}, nil
}

func (m *MockEmployeeService) History(ctx context.Context, idComp string) ([]*models.Dose, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, idComp)
	}
	return nil, models.ErrNotFound
}

// MockCampaignService implements CampaignServiceInterface for testing
type MockCampaignService struct {
	CreateFunc     func(ctx context.Context, actor *models.Principal, in services.CreateCampaignInput, ip string) (*models.Campaign, error)
	ListFunc       func(ctx context.Context) ([]*models.Campaign, error)
	ListActiveFunc func(ctx context.Context) ([]*models.Campaign, error)
}

func (m *MockCampaignService) Create(ctx context.Context, actor *models.Principal, in services.CreateCampaignInput, ip string) (*models.Campaign, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, actor, in, ip)
	}
	return &models.Campaign{ID: 1, Name: in.Name, StartsOn: in.StartsOn, EndsOn: in.EndsOn}, nil
}

func (m *MockCampaignService) List(ctx context.Context) ([]*models.Campaign, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Campaign{}, nil
}

func (m *MockCampaignService) ListActive(ctx context.Context) ([]*models.Campaign, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return []*models.Campaign{}, nil
}

// MockVaccinationService implements VaccinationServiceInterface for testing
type MockVaccinationService struct {
	ListVaccinesFunc func(ctx context.Context) ([]*models.Vaccine, error)
	RegisterDoseFunc func(ctx context.Context, actor *models.Principal, in services.RegisterDoseInput, ip string) (*models.Dose, error)
	ListByPeriodFunc func(ctx context.Context, from, to time.Time) ([]*models.Dose, error)
	DeleteDoseFunc   func(ctx context.Context, actor *models.Principal, id int64, reason, ip string) error
}

func (m *MockVaccinationService) ListVaccines(ctx context.Context) ([]*models.Vaccine, error) {
	if m.ListVaccinesFunc != nil {
		return m.ListVaccinesFunc(ctx)
	}
	return []*models.Vaccine{}, nil
}

func (m *MockVaccinationService) RegisterDose(ctx context.Context, actor *models.Principal, in services.RegisterDoseInput, ip string) (*models.Dose, error) {
	if m.RegisterDoseFunc != nil {
		return m.RegisterDoseFunc(ctx, actor, in, ip)
	}
	return &models.Dose{ID: 1, IDComp: in.IDComp, Vaccine: in.Vaccine}, nil
}

func (m *MockVaccinationService) ListByPeriod(ctx context.Context, from, to time.Time) ([]*models.Dose, error) {
	if m.ListByPeriodFunc != nil {
		return m.ListByPeriodFunc(ctx, from, to)
	}
	return []*models.Dose{}, nil
}

func (m *MockVaccinationService) DeleteDose(ctx context.Context, actor *models.Principal, id int64, reason, ip string) error {
	if m.DeleteDoseFunc != nil {
		return m.DeleteDoseFunc(ctx, actor, id, reason, ip)
	}
	return nil
}

// MockReportService implements ReportServiceInterface for testing
type MockReportService struct {
	SummaryFunc func(ctx context.Context) (*models.CoverageSummary, error)
}

func (m *MockReportService) Summary(ctx context.Context) (*models.CoverageSummary, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx)
	}
	return &models.CoverageSummary{}, nil
}

func (m *MockReportService) Monthly(ctx context.Context) ([]models.MonthlyDoses, error) {
	return []models.MonthlyDoses{{Month: "2024-06", Doses: 2}}, nil
}

func (m *MockReportService) ByVaccine(ctx context.Context) ([]models.VaccineDoses, error) {
	return []models.VaccineDoses{}, nil
}

// MockAdminService implements AdminServiceInterface and AuditReader for testing
type MockAdminService struct {
	Stats          database.CacheStats
	ClearCacheFunc func(ctx context.Context, actor *models.Principal, ip string) (int, error)
	Backups        []models.BackupFile
	BackupErr      error
	ListRecentFunc func(ctx context.Context, module, login string, limit int) ([]*models.AuditLog, error)
}

func (m *MockAdminService) CacheStats() database.CacheStats { return m.Stats }

func (m *MockAdminService) ClearCache(ctx context.Context, actor *models.Principal, ip string) (int, error) {
	if m.ClearCacheFunc != nil {
		return m.ClearCacheFunc(ctx, actor, ip)
	}
	return 0, nil
}

func (m *MockAdminService) ListBackups() ([]models.BackupFile, error) {
	return m.Backups, m.BackupErr
}

func (m *MockAdminService) CreateBackup(ctx context.Context, actor *models.Principal, ip string) (*models.BackupFile, error) {
	if m.BackupErr != nil {
		return nil, m.BackupErr
	}
	return &models.BackupFile{Name: "backup_20240601_080000_abcd1234.db", Size: 1024, SizeHuman: "1.0 kB"}, nil
}

func (m *MockAdminService) ListRecent(ctx context.Context, module, login string, limit int) ([]*models.AuditLog, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, module, login, limit)
	}
	return []*models.AuditLog{}, nil
}
