package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juniorxam/vacina/internal/models"
	pkglogger "github.com/juniorxam/vacina/pkg/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClock() *testclock.Clock {
	return testclock.NewClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
}

func testAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(testLogger())
}

var (
	adminPrincipal    = &models.Principal{Login: "admin", Name: "ADMINISTRADOR", Tier: models.TierAdmin, AllowedUnit: models.AllUnits}
	operatorPrincipal = &models.Principal{Login: "maria", Name: "MARIA", Tier: models.TierOperator, AllowedUnit: models.AllUnits}
	viewerPrincipal   = &models.Principal{Login: "joao", Name: "JOAO", Tier: models.TierViewer, AllowedUnit: models.AllUnits}
)

// stubHasher stores secrets as "hashed:<secret>". Secrets stored as
// "legacy:<secret>" verify and ask for a rehash.
type stubHasher struct{}

func (stubHasher) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (stubHasher) Verify(hash, password string) (bool, bool) {
	switch {
	case strings.HasPrefix(hash, "legacy:"):
		return hash == "legacy:"+password, true
	default:
		return hash == "hashed:"+password, false
	}
}

func NewTestAccount(login string, tier models.Tier, password string) *models.Account {
	return &models.Account{
		Login:        login,
		PasswordHash: "hashed:" + password,
		Name:         strings.ToUpper(login),
		Tier:         tier,
		AllowedUnit:  models.AllUnits,
		Active:       true,
	}
}

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	GetByLoginFunc     func(ctx context.Context, login string) (*models.Account, error)
	CreateFunc         func(ctx context.Context, account *models.Account) error
	ListFunc           func(ctx context.Context, activeOnly bool) ([]*models.Account, error)
	UpdatePasswordFunc func(ctx context.Context, login, hash string, changedAt time.Time) error
	SetActiveFunc      func(ctx context.Context, login string, active bool) error
}

func (m *MockAccountRepository) GetByLogin(ctx context.Context, login string) (*models.Account, error) {
	if m.GetByLoginFunc != nil {
		return m.GetByLoginFunc(ctx, login)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, activeOnly bool) ([]*models.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, activeOnly)
	}
	return []*models.Account{}, nil
}

func (m *MockAccountRepository) UpdatePassword(ctx context.Context, login, hash string, changedAt time.Time) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, login, hash, changedAt)
	}
	return nil
}

func (m *MockAccountRepository) SetActive(ctx context.Context, login string, active bool) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, login, active)
	}
	return nil
}

// memoryAttemptRepository is an in-memory LoginAttemptRepository
type memoryAttemptRepository struct {
	mu       sync.Mutex
	attempts []models.LoginAttempt
	err      error
}

func (m *memoryAttemptRepository) RecordFailure(ctx context.Context, login, ipAddress string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.attempts = append(m.attempts, models.LoginAttempt{
		ID: int64(len(m.attempts) + 1), Login: login, IPAddress: ipAddress, AttemptedAt: at,
	})
	return nil
}

func (m *memoryAttemptRepository) ListSince(ctx context.Context, login string, since time.Time) ([]models.LoginAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []models.LoginAttempt
	for _, a := range m.attempts {
		if a.Login == login && a.AttemptedAt.After(since) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AttemptedAt.Before(out[j].AttemptedAt) })
	return out, nil
}

func (m *memoryAttemptRepository) DeleteByLogin(ctx context.Context, login string) (int64, error) {
	return m.deleteWhere(func(a models.LoginAttempt) bool { return a.Login == login })
}

func (m *memoryAttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return m.deleteWhere(func(a models.LoginAttempt) bool { return a.AttemptedAt.Before(cutoff) })
}

func (m *memoryAttemptRepository) deleteWhere(match func(models.LoginAttempt) bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	kept := m.attempts[:0]
	var n int64
	for _, a := range m.attempts {
		if match(a) {
			n++
			continue
		}
		kept = append(kept, a)
	}
	m.attempts = kept
	return n, nil
}

func (m *memoryAttemptRepository) count(login string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.attempts {
		if a.Login == login {
			n++
		}
	}
	return n
}

// MockAuditLogRepository implements AuditLogRepository for testing
type MockAuditLogRepository struct {
	mu             sync.Mutex
	Entries        []*models.AuditLog
	CreateErr      error
	ListRecentFunc func(ctx context.Context, module, login string, limit int) ([]*models.AuditLog, error)
}

func (m *MockAuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	log.ID = int64(len(m.Entries) + 1)
	m.Entries = append(m.Entries, log)
	return nil
}

func (m *MockAuditLogRepository) ListRecent(ctx context.Context, module, login string, limit int) ([]*models.AuditLog, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, module, login, limit)
	}
	return m.Entries, nil
}

func (m *MockAuditLogRepository) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, e.Action)
	}
	return out
}

// MockEmployeeRepository implements EmployeeRepository for testing
type MockEmployeeRepository struct {
	CreateFunc      func(ctx context.Context, e *models.Employee) error
	GetByIDFunc     func(ctx context.Context, idComp string) (*models.Employee, error)
	SearchFunc      func(ctx context.Context, term, unit string, limit int) ([]*models.Employee, error)
	CountActiveFunc func(ctx context.Context) (int64, error)
}

func (m *MockEmployeeRepository) Create(ctx context.Context, e *models.Employee) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, e)
	}
	return nil
}

func (m *MockEmployeeRepository) GetByID(ctx context.Context, idComp string) (*models.Employee, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, idComp)
	}
	return nil, models.ErrNotFound
}

func (m *MockEmployeeRepository) Search(ctx context.Context, term, unit string, limit int) ([]*models.Employee, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, term, unit, limit)
	}
	return []*models.Employee{}, nil
}

func (m *MockEmployeeRepository) CountActive(ctx context.Context) (int64, error) {
	if m.CountActiveFunc != nil {
		return m.CountActiveFunc(ctx)
	}
	return 0, nil
}

// MockCampaignRepository implements CampaignRepository for testing
type MockCampaignRepository struct {
	CreateFunc     func(ctx context.Context, c *models.Campaign) error
	GetByIDFunc    func(ctx context.Context, id int64) (*models.Campaign, error)
	ListFunc       func(ctx context.Context) ([]*models.Campaign, error)
	ListActiveFunc func(ctx context.Context, today time.Time) ([]*models.Campaign, error)
}

func (m *MockCampaignRepository) Create(ctx context.Context, c *models.Campaign) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	c.ID = 1
	return nil
}

func (m *MockCampaignRepository) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCampaignRepository) List(ctx context.Context) ([]*models.Campaign, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Campaign{}, nil
}

func (m *MockCampaignRepository) ListActive(ctx context.Context, today time.Time) ([]*models.Campaign, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, today)
	}
	return []*models.Campaign{}, nil
}

// MockVaccineRepository implements VaccineRepository for testing
type MockVaccineRepository struct {
	ListActiveFunc func(ctx context.Context) ([]*models.Vaccine, error)
	GetByNameFunc  func(ctx context.Context, name string) (*models.Vaccine, error)
}

func (m *MockVaccineRepository) ListActive(ctx context.Context) ([]*models.Vaccine, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return []*models.Vaccine{}, nil
}

func (m *MockVaccineRepository) GetByName(ctx context.Context, name string) (*models.Vaccine, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, name)
	}
	return nil, models.ErrNotFound
}

// MockDoseRepository implements DoseRepository for testing
type MockDoseRepository struct {
	CreateFunc         func(ctx context.Context, d *models.Dose) error
	ExistsFunc         func(ctx context.Context, idComp, vaccine, dose string, appliedOn time.Time) (bool, error)
	GetByIDFunc        func(ctx context.Context, id int64) (*models.Dose, error)
	ListByEmployeeFunc func(ctx context.Context, idComp string) ([]*models.Dose, error)
	ListByPeriodFunc   func(ctx context.Context, from, to time.Time) ([]*models.Dose, error)
	DeleteFunc         func(ctx context.Context, id int64) error
}

func (m *MockDoseRepository) Create(ctx context.Context, d *models.Dose) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, d)
	}
	d.ID = 1
	return nil
}

func (m *MockDoseRepository) Exists(ctx context.Context, idComp, vaccine, dose string, appliedOn time.Time) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, idComp, vaccine, dose, appliedOn)
	}
	return false, nil
}

func (m *MockDoseRepository) GetByID(ctx context.Context, id int64) (*models.Dose, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockDoseRepository) ListByEmployee(ctx context.Context, idComp string) ([]*models.Dose, error) {
	if m.ListByEmployeeFunc != nil {
		return m.ListByEmployeeFunc(ctx, idComp)
	}
	return []*models.Dose{}, nil
}

func (m *MockDoseRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]*models.Dose, error) {
	if m.ListByPeriodFunc != nil {
		return m.ListByPeriodFunc(ctx, from, to)
	}
	return []*models.Dose{}, nil
}

func (m *MockDoseRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockReportRepository implements ReportRepository for testing
type MockReportRepository struct {
	SummaryFunc        func(ctx context.Context) (*models.CoverageSummary, error)
	MonthlyDosesFunc   func(ctx context.Context, since time.Time) ([]models.MonthlyDoses, error)
	DosesByVaccineFunc func(ctx context.Context) ([]models.VaccineDoses, error)
}

func (m *MockReportRepository) Summary(ctx context.Context) (*models.CoverageSummary, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx)
	}
	return &models.CoverageSummary{}, nil
}

func (m *MockReportRepository) MonthlyDoses(ctx context.Context, since time.Time) ([]models.MonthlyDoses, error) {
	if m.MonthlyDosesFunc != nil {
		return m.MonthlyDosesFunc(ctx, since)
	}
	return nil, nil
}

func (m *MockReportRepository) DosesByVaccine(ctx context.Context) ([]models.VaccineDoses, error) {
	if m.DosesByVaccineFunc != nil {
		return m.DosesByVaccineFunc(ctx)
	}
	return nil, nil
}
