package repositories

import (
	"context"
	"fmt"

	"github.com/juniorxam/vacina/internal/database"
	"github.com/juniorxam/vacina/internal/models"
)

type VaccineRepository struct {
	db *database.DB
}

func NewVaccineRepository(db *database.DB) *VaccineRepository {
	return &VaccineRepository{db: db}
}

const vaccineColumns = "id, name, manufacturer, required_doses, interval_days, route, contraindications, active"

func vaccineFromRow(row database.Row) *models.Vaccine {
	return &models.Vaccine{
		ID:                row.Int64("id"),
		Name:              row.String("name"),
		Manufacturer:      row.String("manufacturer"),
		RequiredDoses:     row.Int("required_doses"),
		IntervalDays:      row.Int("interval_days"),
		Route:             row.String("route"),
		Contraindications: row.String("contraindications"),
		Active:            row.Bool("active"),
	}
}

// ListActive returns the active catalog ordered by name.
func (r *VaccineRepository) ListActive(ctx context.Context) ([]*models.Vaccine, error) {
	table, err := r.db.QueryTable(ctx,
		"SELECT "+vaccineColumns+" FROM vaccines WHERE active = 1 ORDER BY name", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaccines: %w", err)
	}

	vaccines := make([]*models.Vaccine, 0, table.Len())
	for _, row := range table.Records() {
		vaccines = append(vaccines, vaccineFromRow(row))
	}
	return vaccines, nil
}

func (r *VaccineRepository) GetByName(ctx context.Context, name string) (*models.Vaccine, error) {
	row, err := r.db.FetchOne(ctx,
		"SELECT "+vaccineColumns+" FROM vaccines WHERE name = ?", name)
	if err != nil {
		return nil, database.MapSQLiteError(err)
	}
	return vaccineFromRow(row), nil
}
