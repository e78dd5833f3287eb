package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/juniorxam/vacina/internal/database"
	"github.com/juniorxam/vacina/internal/models"
)

// ReportRepository runs the aggregate queries behind the dashboards. Every
// query goes through the read cache.
type ReportRepository struct {
	db *database.DB
}

func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Summary(ctx context.Context) (*models.CoverageSummary, error) {
	table, err := r.db.QueryTable(ctx, `
		SELECT
			(SELECT COUNT(*) FROM employees WHERE status = ?) AS active_employees,
			(SELECT COUNT(*) FROM doses) AS total_doses,
			(SELECT COUNT(DISTINCT d.id_comp) FROM doses d
				JOIN employees e ON e.id_comp = d.id_comp
				WHERE e.status = ?) AS vaccinated_employees`,
		0, models.EmployeeStatusActive, models.EmployeeStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}

	row := table.Records()[0]
	summary := &models.CoverageSummary{
		ActiveEmployees:     row.Int64("active_employees"),
		TotalDoses:          row.Int64("total_doses"),
		VaccinatedEmployees: row.Int64("vaccinated_employees"),
	}
	if summary.ActiveEmployees > 0 {
		summary.CoveragePercent = float64(summary.VaccinatedEmployees) * 100 / float64(summary.ActiveEmployees)
	}
	return summary, nil
}

// MonthlyDoses counts doses per month for months starting on or after since.
func (r *ReportRepository) MonthlyDoses(ctx context.Context, since time.Time) ([]models.MonthlyDoses, error) {
	table, err := r.db.QueryTable(ctx, `
		SELECT substr(applied_on, 1, 7) AS month, COUNT(*) AS doses
		FROM doses
		WHERE applied_on >= ?
		GROUP BY month
		ORDER BY month`, 0, database.FormatDate(since))
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly doses: %w", err)
	}

	months := make([]models.MonthlyDoses, 0, table.Len())
	for _, row := range table.Records() {
		months = append(months, models.MonthlyDoses{Month: row.String("month"), Doses: row.Int64("doses")})
	}
	return months, nil
}

func (r *ReportRepository) DosesByVaccine(ctx context.Context) ([]models.VaccineDoses, error) {
	table, err := r.db.QueryTable(ctx, `
		SELECT vaccine, COUNT(*) AS doses
		FROM doses
		GROUP BY vaccine
		ORDER BY doses DESC, vaccine`, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load doses by vaccine: %w", err)
	}

	counts := make([]models.VaccineDoses, 0, table.Len())
	for _, row := range table.Records() {
		counts = append(counts, models.VaccineDoses{Vaccine: row.String("vaccine"), Doses: row.Int64("doses")})
	}
	return counts, nil
}
