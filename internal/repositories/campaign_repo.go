package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/juniorxam/vacina/internal/database"
	"github.com/juniorxam/vacina/internal/models"
)

type CampaignRepository struct {
	db *database.DB
}

func NewCampaignRepository(db *database.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignColumns = "id, name, vaccine, target_audience, starts_on, ends_on, status, description, created_by, created_at"

func campaignFromRow(row database.Row) *models.Campaign {
	return &models.Campaign{
		ID:             row.Int64("id"),
		Name:           row.String("name"),
		Vaccine:        row.String("vaccine"),
		TargetAudience: row.String("target_audience"),
		StartsOn:       row.Time("starts_on"),
		EndsOn:         row.Time("ends_on"),
		Status:         row.String("status"),
		Description:    row.String("description"),
		CreatedBy:      row.String("created_by"),
		CreatedAt:      row.Time("created_at"),
	}
}

func campaignsFromTable(table *database.Table) []*models.Campaign {
	campaigns := make([]*models.Campaign, 0, table.Len())
	for _, row := range table.Records() {
		campaigns = append(campaigns, campaignFromRow(row))
	}
	return campaigns
}

// Create stores c and fills in its ID.
func (r *CampaignRepository) Create(ctx context.Context, c *models.Campaign) error {
	id, err := r.db.Insert(ctx, `
		INSERT INTO campaigns (name, vaccine, target_audience, starts_on, ends_on, status, description, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Vaccine, c.TargetAudience, database.FormatDate(c.StartsOn), database.FormatDate(c.EndsOn),
		c.Status, c.Description, c.CreatedBy, database.FormatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", database.MapSQLiteError(err))
	}
	c.ID = id
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	row, err := r.db.FetchOne(ctx, "SELECT "+campaignColumns+" FROM campaigns WHERE id = ?", id)
	if err != nil {
		return nil, database.MapSQLiteError(err)
	}
	return campaignFromRow(row), nil
}

// List returns every campaign, most recent start first.
func (r *CampaignRepository) List(ctx context.Context) ([]*models.Campaign, error) {
	table, err := r.db.QueryTable(ctx,
		"SELECT "+campaignColumns+" FROM campaigns ORDER BY starts_on DESC, id DESC", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaignsFromTable(table), nil
}

// ListActive returns ACTIVE campaigns whose period contains today.
func (r *CampaignRepository) ListActive(ctx context.Context, today time.Time) ([]*models.Campaign, error) {
	day := database.FormatDate(today)
	table, err := r.db.QueryTable(ctx, "SELECT "+campaignColumns+` FROM campaigns
		WHERE status = ? AND starts_on <= ? AND ends_on >= ?
		ORDER BY ends_on`, 0, models.CampaignStatusActive, day, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list active campaigns: %w", err)
	}
	return campaignsFromTable(table), nil
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	n, err := r.db.Execute(ctx, "UPDATE campaigns SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update campaign status: %w", database.MapSQLiteError(err))
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
