package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/juniorxam/vacina/internal/database"
	"github.com/juniorxam/vacina/internal/models"
)

type EmployeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id_comp, registration, bond, name, cpf, birth_date, sex, job_title, unit,
	physical_unit, superintendence, phone, email, hired_at, bond_type, status, created_at, created_by`

func employeeFromRow(row database.Row) *models.Employee {
	return &models.Employee{
		IDComp:          row.String("id_comp"),
		Registration:    row.String("registration"),
		Bond:            row.String("bond"),
		Name:            row.String("name"),
		CPF:             row.String("cpf"),
		BirthDate:       row.TimePtr("birth_date"),
		Sex:             row.String("sex"),
		JobTitle:        row.String("job_title"),
		Unit:            row.String("unit"),
		PhysicalUnit:    row.String("physical_unit"),
		Superintendence: row.String("superintendence"),
		Phone:           row.String("phone"),
		Email:           row.String("email"),
		HiredAt:         row.TimePtr("hired_at"),
		BondType:        row.String("bond_type"),
		Status:          row.String("status"),
		CreatedAt:       row.Time("created_at"),
		CreatedBy:       row.String("created_by"),
	}
}

func (r *EmployeeRepository) Create(ctx context.Context, e *models.Employee) error {
	_, err := r.db.Execute(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.IDComp, e.Registration, e.Bond, e.Name, e.CPF, nullableDate(e.BirthDate), e.Sex, e.JobTitle, e.Unit,
		e.PhysicalUnit, e.Superintendence, e.Phone, e.Email, nullableDate(e.HiredAt), e.BondType, e.Status,
		database.FormatTime(e.CreatedAt), e.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", database.MapSQLiteError(err))
	}
	return nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, idComp string) (*models.Employee, error) {
	row, err := r.db.FetchOne(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id_comp = ?", idComp)
	if err != nil {
		return nil, database.MapSQLiteError(err)
	}
	return employeeFromRow(row), nil
}

// Search matches term against name, CPF, registration and composite ID.
// unit narrows the result unless it is models.AllUnits or empty.
func (r *EmployeeRepository) Search(ctx context.Context, term, unit string, limit int) ([]*models.Employee, error) {
	like := "%" + strings.ToUpper(strings.TrimSpace(term)) + "%"
	query := "SELECT " + employeeColumns + ` FROM employees
		WHERE (UPPER(name) LIKE ? OR cpf LIKE ? OR registration LIKE ? OR id_comp LIKE ?)`
	args := []any{like, like, like, like}
	if unit != "" && unit != models.AllUnits {
		query += " AND unit = ?"
		args = append(args, unit)
	}
	query += " ORDER BY name LIMIT ?"
	args = append(args, limit)

	table, err := r.db.QueryTable(ctx, query, 0, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search employees: %w", err)
	}

	employees := make([]*models.Employee, 0, table.Len())
	for _, row := range table.Records() {
		employees = append(employees, employeeFromRow(row))
	}
	return employees, nil
}

func (r *EmployeeRepository) CountActive(ctx context.Context) (int64, error) {
	row, err := r.db.FetchOne(ctx,
		"SELECT COUNT(*) AS n FROM employees WHERE status = ?", models.EmployeeStatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return row.Int64("n"), nil
}
