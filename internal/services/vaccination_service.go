package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juniorxam/vacina/internal/models"
)

// VaccineRepository defines the interface for vaccine catalog access
type VaccineRepository interface {
	ListActive(ctx context.Context) ([]*models.Vaccine, error)
	GetByName(ctx context.Context, name string) (*models.Vaccine, error)
}

// DoseRepository defines the interface for dose data access
type DoseRepository interface {
	Create(ctx context.Context, d *models.Dose) error
	Exists(ctx context.Context, idComp, vaccine, dose string, appliedOn time.Time) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.Dose, error)
	ListByEmployee(ctx context.Context, idComp string) ([]*models.Dose, error)
	ListByPeriod(ctx context.Context, from, to time.Time) ([]*models.Dose, error)
	Delete(ctx context.Context, id int64) error
}

// RegisterDoseInput carries the fields of one application
type RegisterDoseInput struct {
	IDComp       string
	Vaccine      string
	Dose         string
	AppliedOn    time.Time
	Lot          string
	Manufacturer string
	Site         string
	Route        string
	CampaignID   *int64
}

// VaccinationService registers and reports vaccine applications
type VaccinationService struct {
	doses     DoseRepository
	vaccines  VaccineRepository
	employees EmployeeRepository
	campaigns CampaignRepository
	audit     *AuditService
	clock     clock.Clock
	logger    *slog.Logger
}

// NewVaccinationService creates a new VaccinationService
func NewVaccinationService(
	doses DoseRepository,
	vaccines VaccineRepository,
	employees EmployeeRepository,
	campaigns CampaignRepository,
	audit *AuditService,
	clk clock.Clock,
	logger *slog.Logger,
) *VaccinationService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &VaccinationService{
		doses:     doses,
		vaccines:  vaccines,
		employees: employees,
		campaigns: campaigns,
		audit:     audit,
		clock:     clk,
		logger:    logger,
	}
}

// ListVaccines returns the active vaccine catalog
func (s *VaccinationService) ListVaccines(ctx context.Context) ([]*models.Vaccine, error) {
	vaccines, err := s.vaccines.ListActive(ctx)
	if err != nil {
		s.logger.Error("failed to list vaccines", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return vaccines, nil
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}

// RegisterDose records one application. Doses linked to a campaign are
// typed CAMPAIGN, the rest ROUTINE; the return date follows
// models.ReturnDate.
func (s *VaccinationService) RegisterDose(ctx context.Context, actor *models.Principal, in RegisterDoseInput, ip string) (*models.Dose, error) {
	if err := requireTier(actor, models.TierOperator); err != nil {
		return nil, err
	}

	vaccine := strings.TrimSpace(in.Vaccine)
	if strings.TrimSpace(in.IDComp) == "" || vaccine == "" {
		return nil, fmt.Errorf("%w: employee and vaccine are required", models.ErrBadRequest)
	}

	employee, err := s.employees.GetByID(ctx, strings.TrimSpace(in.IDComp))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load employee", slog.String("id_comp", in.IDComp), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	kind := models.DoseKindRoutine
	var campaignName string
	if in.CampaignID != nil {
		campaign, err := s.campaigns.GetByID(ctx, *in.CampaignID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown campaign %d", models.ErrBadRequest, *in.CampaignID)
			}
			s.logger.Error("failed to load campaign", slog.Int64("campaign_id", *in.CampaignID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		kind = models.DoseKindCampaign
		campaignName = campaign.Name
	}

	manufacturer, route := models.NotInformed, models.DefaultRoute
	if catalog, err := s.vaccines.GetByName(ctx, vaccine); err == nil {
		manufacturer = orDefault(catalog.Manufacturer, manufacturer)
		route = orDefault(catalog.Route, route)
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Warn("failed to load vaccine from catalog", slog.String("vaccine", vaccine), slog.Any("error", err))
	}

	appliedOn := in.AppliedOn
	if appliedOn.IsZero() {
		appliedOn = s.clock.Now()
	}
	appliedOn = time.Date(appliedOn.Year(), appliedOn.Month(), appliedOn.Day(), 0, 0, 0, 0, time.UTC)
	returnOn := models.ReturnDate(vaccine, appliedOn)

	dose := &models.Dose{
		IDComp:       employee.IDComp,
		EmployeeName: employee.Name,
		Vaccine:      vaccine,
		Kind:         kind,
		Dose:         orDefault(in.Dose, models.DefaultDoseName),
		AppliedOn:    appliedOn,
		ReturnOn:     &returnOn,
		Lot:          orDefault(in.Lot, models.NotInformed),
		Manufacturer: orDefault(in.Manufacturer, manufacturer),
		Site:         orDefault(in.Site, models.DefaultSite),
		Route:        orDefault(in.Route, route),
		CampaignID:   in.CampaignID,
		CampaignName: campaignName,
		RecordedBy:   actor.Login,
		RecordedAt:   s.clock.Now(),
	}

	exists, err := s.doses.Exists(ctx, dose.IDComp, dose.Vaccine, dose.Dose, dose.AppliedOn)
	if err != nil {
		s.logger.Error("failed to check duplicate dose", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if exists {
		return nil, models.ErrDuplicateDose
	}

	if err := s.doses.Create(ctx, dose); err != nil {
		if errors.Is(err, models.ErrDuplicateDose) {
			return nil, models.ErrDuplicateDose
		}
		s.logger.Error("failed to register dose", slog.String("id_comp", dose.IDComp), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.RecordMetadata(ctx, actor.Login, models.AuditModuleVaccination, "DOSE_REGISTERED",
		models.AuditMetadata{"dose_id": dose.ID, "id_comp": dose.IDComp, "vaccine": vaccine, "dose": dose.Dose}, ip)
	return dose, nil
}

// History returns the doses of one employee, newest first
func (s *VaccinationService) History(ctx context.Context, idComp string) ([]*models.Dose, error) {
	if _, err := s.employees.GetByID(ctx, idComp); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load employee", slog.String("id_comp", idComp), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	doses, err := s.doses.ListByEmployee(ctx, idComp)
	if err != nil {
		s.logger.Error("failed to list doses", slog.String("id_comp", idComp), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return doses, nil
}

// ListByPeriod returns doses applied between from and to, inclusive
func (s *VaccinationService) ListByPeriod(ctx context.Context, from, to time.Time) ([]*models.Dose, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: period ends before it starts", models.ErrBadRequest)
	}

	doses, err := s.doses.ListByPeriod(ctx, from, to)
	if err != nil {
		s.logger.Error("failed to list doses by period", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return doses, nil
}

// DeleteDose removes a dose record. Only administrators may delete, and
// every deletion is audited with its reason.
func (s *VaccinationService) DeleteDose(ctx context.Context, actor *models.Principal, id int64, reason, ip string) error {
	if err := requireTier(actor, models.TierAdmin); err != nil {
		return err
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		return fmt.Errorf("%w: a reason is required", models.ErrBadRequest)
	}

	dose, err := s.doses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load dose", slog.Int64("dose_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.doses.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete dose", slog.Int64("dose_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.RecordMetadata(ctx, actor.Login, models.AuditModuleVaccination, "DOSE_DELETED",
		models.AuditMetadata{
			"dose_id":    id,
			"id_comp":    dose.IDComp,
			"vaccine":    dose.Vaccine,
			"applied_on": dose.AppliedOn.Format(time.DateOnly),
			"reason":     reason,
		}, ip)
	return nil
}
