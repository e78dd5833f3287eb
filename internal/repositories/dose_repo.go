package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/juniorxam/vacina/internal/database"
	"github.com/juniorxam/vacina/internal/models"
)

type DoseRepository struct {
	db *database.DB
}

func NewDoseRepository(db *database.DB) *DoseRepository {
	return &DoseRepository{db: db}
}

const doseSelect = `
	SELECT d.id, d.id_comp, e.name AS employee_name, d.vaccine, d.kind, d.dose, d.applied_on,
	       d.return_on, d.lot, d.manufacturer, d.site, d.route, d.campaign_id,
	       c.name AS campaign_name, d.recorded_by, d.recorded_at
	FROM doses d
	LEFT JOIN employees e ON e.id_comp = d.id_comp
	LEFT JOIN campaigns c ON c.id = d.campaign_id`

func doseFromRow(row database.Row) *models.Dose {
	return &models.Dose{
		ID:           row.Int64("id"),
		IDComp:       row.String("id_comp"),
		EmployeeName: row.String("employee_name"),
		Vaccine:      row.String("vaccine"),
		Kind:         row.String("kind"),
		Dose:         row.String("dose"),
		AppliedOn:    row.Time("applied_on"),
		ReturnOn:     row.TimePtr("return_on"),
		Lot:          row.String("lot"),
		Manufacturer: row.String("manufacturer"),
		Site:         row.String("site"),
		Route:        row.String("route"),
		CampaignID:   int64Ptr(row, "campaign_id"),
		CampaignName: row.String("campaign_name"),
		RecordedBy:   row.String("recorded_by"),
		RecordedAt:   row.Time("recorded_at"),
	}
}

// Create stores d and fills in its ID. A second application of the same
// dose of the same vaccine on the same day yields models.ErrDuplicateDose.
func (r *DoseRepository) Create(ctx context.Context, d *models.Dose) error {
	id, err := r.db.Insert(ctx, `
		INSERT INTO doses (id_comp, vaccine, kind, dose, applied_on, return_on, lot, manufacturer,
		                   site, route, campaign_id, recorded_by, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.IDComp, d.Vaccine, d.Kind, d.Dose, database.FormatDate(d.AppliedOn), nullableDate(d.ReturnOn),
		d.Lot, d.Manufacturer, d.Site, d.Route, nullableInt(d.CampaignID), d.RecordedBy,
		database.FormatTime(d.RecordedAt),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.ErrDuplicateDose
		}
		return fmt.Errorf("failed to create dose: %w", database.MapSQLiteError(err))
	}
	d.ID = id
	return nil
}

// Exists reports whether the same application was already recorded.
func (r *DoseRepository) Exists(ctx context.Context, idComp, vaccine, dose string, appliedOn time.Time) (bool, error) {
	_, err := r.db.FetchOne(ctx, `
		SELECT id FROM doses
		WHERE id_comp = ? AND vaccine = ? AND dose = ? AND applied_on = ?`,
		idComp, vaccine, dose, database.FormatDate(appliedOn),
	)
	switch database.MapSQLiteError(err) {
	case nil:
		return true, nil
	case models.ErrNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("failed to check dose: %w", err)
	}
}

func (r *DoseRepository) GetByID(ctx context.Context, id int64) (*models.Dose, error) {
	row, err := r.db.FetchOne(ctx, doseSelect+" WHERE d.id = ?", id)
	if err != nil {
		return nil, database.MapSQLiteError(err)
	}
	return doseFromRow(row), nil
}

// ListByEmployee returns the vaccination history of one employee, newest first.
func (r *DoseRepository) ListByEmployee(ctx context.Context, idComp string) ([]*models.Dose, error) {
	table, err := r.db.QueryTable(ctx,
		doseSelect+" WHERE d.id_comp = ? ORDER BY d.applied_on DESC, d.id DESC", 0, idComp)
	if err != nil {
		return nil, fmt.Errorf("failed to list doses: %w", err)
	}
	return dosesFromRows(table.Records()), nil
}

// ListByPeriod returns doses applied within [from, to], inclusive.
func (r *DoseRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]*models.Dose, error) {
	table, err := r.db.QueryTable(ctx,
		doseSelect+" WHERE d.applied_on BETWEEN ? AND ? ORDER BY d.applied_on, d.id",
		0, database.FormatDate(from), database.FormatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list doses: %w", err)
	}
	return dosesFromRows(table.Records()), nil
}

func (r *DoseRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.db.Execute(ctx, "DELETE FROM doses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete dose: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func dosesFromRows(rows []database.Row) []*models.Dose {
	doses := make([]*models.Dose, 0, len(rows))
	for _, row := range rows {
		doses = append(doses, doseFromRow(row))
	}
	return doses
}
