package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/juju/clock"
	"github.com/juniorxam/vacina/internal/models"
)

// ReportRepository defines the aggregate queries behind the dashboards
type ReportRepository interface {
	Summary(ctx context.Context) (*models.CoverageSummary, error)
	MonthlyDoses(ctx context.Context, since time.Time) ([]models.MonthlyDoses, error)
	DosesByVaccine(ctx context.Context) ([]models.VaccineDoses, error)
}

// monthlyWindow is the number of calendar months in the monthly report,
// the current one included.
const monthlyWindow = 6

// ReportService aggregates coverage figures
type ReportService struct {
	repo   ReportRepository
	clock  clock.Clock
	logger *slog.Logger
}

// NewReportService creates a new ReportService
func NewReportService(repo ReportRepository, clk clock.Clock, logger *slog.Logger) *ReportService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &ReportService{repo: repo, clock: clk, logger: logger}
}

// Summary returns the coverage summary
func (s *ReportService) Summary(ctx context.Context) (*models.CoverageSummary, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		s.logger.Error("failed to load summary", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return summary, nil
}

// Monthly returns dose counts for the last six calendar months. Months
// without doses are reported with zero.
func (s *ReportService) Monthly(ctx context.Context) ([]models.MonthlyDoses, error) {
	now := s.clock.Now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(monthlyWindow - 1), 0)

	counts, err := s.repo.MonthlyDoses(ctx, first)
	if err != nil {
		s.logger.Error("failed to load monthly doses", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	byMonth := make(map[string]int64, len(counts))
	for _, c := range counts {
		byMonth[c.Month] = c.Doses
	}

	months := make([]models.MonthlyDoses, 0, monthlyWindow)
	for i := 0; i < monthlyWindow; i++ {
		month := first.AddDate(0, i, 0).Format("2006-01")
		months = append(months, models.MonthlyDoses{Month: month, Doses: byMonth[month]})
	}
	return months, nil
}

// ByVaccine returns dose counts per vaccine, most applied first
func (s *ReportService) ByVaccine(ctx context.Context) ([]models.VaccineDoses, error) {
	counts, err := s.repo.DosesByVaccine(ctx)
	if err != nil {
		s.logger.Error("failed to load doses by vaccine", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return counts, nil
}
