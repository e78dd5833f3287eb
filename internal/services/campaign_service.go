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

// CampaignRepository defines the interface for campaign data access
type CampaignRepository interface {
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	List(ctx context.Context) ([]*models.Campaign, error)
	ListActive(ctx context.Context, today time.Time) ([]*models.Campaign, error)
}

// CreateCampaignInput carries the fields of a new campaign
type CreateCampaignInput struct {
	Name           string
	Vaccine        string
	TargetAudience string
	StartsOn       time.Time
	EndsOn         time.Time
	Status         string
	Description    string
}

// CampaignService handles vaccination campaigns
type CampaignService struct {
	repo   CampaignRepository
	audit  *AuditService
	clock  clock.Clock
	logger *slog.Logger
}

// NewCampaignService creates a new CampaignService
func NewCampaignService(repo CampaignRepository, audit *AuditService, clk clock.Clock, logger *slog.Logger) *CampaignService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &CampaignService{repo: repo, audit: audit, clock: clk, logger: logger}
}

// Create registers a campaign. Status defaults to PLANNED.
func (s *CampaignService) Create(ctx context.Context, actor *models.Principal, in CreateCampaignInput, ip string) (*models.Campaign, error) {
	if err := requireTier(actor, models.TierOperator); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	vaccine := strings.TrimSpace(in.Vaccine)
	if name == "" || vaccine == "" {
		return nil, fmt.Errorf("%w: name and vaccine are required", models.ErrBadRequest)
	}
	if in.EndsOn.Before(in.StartsOn) {
		return nil, fmt.Errorf("%w: campaign ends before it starts", models.ErrBadRequest)
	}

	status := strings.ToUpper(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.CampaignStatusPlanned
	}
	if !models.ValidCampaignStatus(status) {
		return nil, fmt.Errorf("%w: unknown campaign status %q", models.ErrBadRequest, in.Status)
	}

	campaign := &models.Campaign{
		Name:           name,
		Vaccine:        vaccine,
		TargetAudience: strings.TrimSpace(in.TargetAudience),
		StartsOn:       in.StartsOn,
		EndsOn:         in.EndsOn,
		Status:         status,
		Description:    strings.TrimSpace(in.Description),
		CreatedBy:      actor.Login,
		CreatedAt:      s.clock.Now(),
	}
	if err := s.repo.Create(ctx, campaign); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create campaign", slog.String("name", name), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.RecordMetadata(ctx, actor.Login, models.AuditModuleCampaigns, "CAMPAIGN_CREATED",
		models.AuditMetadata{"campaign_id": campaign.ID, "name": name}, ip)
	return campaign, nil
}

// List returns every campaign
func (s *CampaignService) List(ctx context.Context) ([]*models.Campaign, error) {
	campaigns, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list campaigns", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return campaigns, nil
}

// ListActive returns the campaigns running today
func (s *CampaignService) ListActive(ctx context.Context) ([]*models.Campaign, error) {
	campaigns, err := s.repo.ListActive(ctx, s.clock.Now())
	if err != nil {
		s.logger.Error("failed to list active campaigns", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return campaigns, nil
}
