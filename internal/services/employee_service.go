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

// EmployeeRepository defines the interface for employee data access
type EmployeeRepository interface {
	Create(ctx context.Context, e *models.Employee) error
	GetByID(ctx context.Context, idComp string) (*models.Employee, error)
	Search(ctx context.Context, term, unit string, limit int) ([]*models.Employee, error)
	CountActive(ctx context.Context) (int64, error)
}

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 500
)

// RegisterEmployeeInput carries the fields of a new employee
type RegisterEmployeeInput struct {
	IDComp          string
	Registration    string
	Bond            string
	Name            string
	CPF             string
	BirthDate       *time.Time
	Sex             string
	JobTitle        string
	Unit            string
	PhysicalUnit    string
	Superintendence string
	Phone           string
	Email           string
	HiredAt         *time.Time
	BondType        string
}

// EmployeeService handles employee registration and lookup
type EmployeeService struct {
	repo   EmployeeRepository
	audit  *AuditService
	clock  clock.Clock
	logger *slog.Logger
}

// NewEmployeeService creates a new EmployeeService
func NewEmployeeService(repo EmployeeRepository, audit *AuditService, clk clock.Clock, logger *slog.Logger) *EmployeeService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &EmployeeService{repo: repo, audit: audit, clock: clk, logger: logger}
}

// Register stores a new employee. IDComp defaults to registration-bond.
func (s *EmployeeService) Register(ctx context.Context, actor *models.Principal, in RegisterEmployeeInput, ip string) (*models.Employee, error) {
	if err := requireTier(actor, models.TierOperator); err != nil {
		return nil, err
	}

	name := strings.ToUpper(strings.TrimSpace(in.Name))
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrBadRequest)
	}

	idComp := strings.TrimSpace(in.IDComp)
	if idComp == "" {
		idComp = models.CompositeID(in.Registration, in.Bond)
	}
	if idComp == "" {
		return nil, fmt.Errorf("%w: registration or id_comp is required", models.ErrBadRequest)
	}

	var cpf string
	if strings.TrimSpace(in.CPF) != "" {
		if !models.ValidCPF(in.CPF) {
			return nil, models.ErrInvalidCPF
		}
		cpf = models.NormalizeCPF(in.CPF)
	}

	unit := strings.ToUpper(strings.TrimSpace(in.Unit))
	if actor.AllowedUnit != "" && actor.AllowedUnit != models.AllUnits && unit != actor.AllowedUnit {
		return nil, fmt.Errorf("%w: unit outside your allowed unit", models.ErrForbidden)
	}

	employee := &models.Employee{
		IDComp:          idComp,
		Registration:    strings.TrimSpace(in.Registration),
		Bond:            strings.TrimSpace(in.Bond),
		Name:            name,
		CPF:             cpf,
		BirthDate:       in.BirthDate,
		Sex:             strings.ToUpper(strings.TrimSpace(in.Sex)),
		JobTitle:        strings.TrimSpace(in.JobTitle),
		Unit:            unit,
		PhysicalUnit:    strings.TrimSpace(in.PhysicalUnit),
		Superintendence: strings.TrimSpace(in.Superintendence),
		Phone:           strings.TrimSpace(in.Phone),
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		HiredAt:         in.HiredAt,
		BondType:        strings.TrimSpace(in.BondType),
		Status:          models.EmployeeStatusActive,
		CreatedAt:       s.clock.Now(),
		CreatedBy:       actor.Login,
	}

	if err := s.repo.Create(ctx, employee); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create employee", slog.String("id_comp", idComp), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.RecordMetadata(ctx, actor.Login, models.AuditModuleEmployees, "EMPLOYEE_REGISTERED",
		models.AuditMetadata{"id_comp": idComp, "name": name}, ip)
	return employee, nil
}

// Get returns one employee by composite ID
func (s *EmployeeService) Get(ctx context.Context, idComp string) (*models.Employee, error) {
	employee, err := s.repo.GetByID(ctx, idComp)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get employee", slog.String("id_comp", idComp), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return employee, nil
}

// Search finds employees visible to actor by name, CPF or identifier
func (s *EmployeeService) Search(ctx context.Context, actor *models.Principal, term string, limit int) ([]*models.Employee, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	if digits := models.NormalizeCPF(term); len(digits) == 11 {
		term = digits
	}

	unit := models.AllUnits
	if actor != nil && actor.AllowedUnit != "" {
		unit = actor.AllowedUnit
	}

	employees, err := s.repo.Search(ctx, term, unit, limit)
	if err != nil {
		s.logger.Error("failed to search employees", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return employees, nil
}
