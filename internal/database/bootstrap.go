package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/juniorxam/vacina/internal/config"
	"github.com/juniorxam/vacina/internal/models"
	"github.com/pressly/goose/v3"
	"github.com/spf13/afero"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PasswordHasher hashes the seeded administrator secret.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// Bootstrapper makes a fresh or pre-existing store usable. Run is
// idempotent and must complete before any other store access.
type Bootstrapper struct {
	db         *DB
	bootstrap  config.BootstrapConfig
	legacyPath string
	production bool
	hasher     PasswordHasher
	fs         afero.Fs
	logger     *slog.Logger
}

func NewBootstrapper(db *DB, cfg *config.Config, hasher PasswordHasher, fs afero.Fs, logger *slog.Logger) *Bootstrapper {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Bootstrapper{
		db:         db,
		bootstrap:  cfg.Bootstrap,
		legacyPath: cfg.Database.LegacyPath,
		production: cfg.IsProduction(),
		hasher:     hasher,
		fs:         fs,
		logger:     logger,
	}
}

func (b *Bootstrapper) Run(ctx context.Context) error {
	if err := b.migrate(ctx); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	if err := b.seedAdmin(ctx); err != nil {
		return fmt.Errorf("admin seeding failed: %w", err)
	}
	if err := b.seedVaccines(ctx); err != nil {
		return fmt.Errorf("vaccine seeding failed: %w", err)
	}
	if err := b.importLegacy(ctx); err != nil {
		return fmt.Errorf("legacy import failed: %w", err)
	}
	return nil
}

func (b *Bootstrapper) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{logger: b.logger})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, b.db.conn, "migrations"); err != nil {
		return err
	}
	// Migrations bypass Execute, so nothing cached can be trusted.
	b.db.cache.InvalidateAll()
	return nil
}

func (b *Bootstrapper) seedAdmin(ctx context.Context) error {
	_, err := b.db.FetchOne(ctx,
		"SELECT login FROM accounts WHERE tier = 'ADMIN' OR login = ? LIMIT 1",
		b.bootstrap.AdminLogin,
	)
	if err == nil {
		return nil
	}
	if MapSQLiteError(err) != models.ErrNotFound {
		return err
	}

	if b.bootstrap.AdminPassword == "" {
		if b.production {
			b.logger.Warn("no administrator account exists and ADMIN_PASSWORD is not set; create one manually",
				slog.String("admin_login", b.bootstrap.AdminLogin),
			)
		} else {
			b.logger.Info("ADMIN_PASSWORD not set, skipping administrator seeding")
		}
		return nil
	}

	hash, err := b.hasher.HashPassword(b.bootstrap.AdminPassword)
	if err != nil {
		return err
	}

	_, err = b.db.Execute(ctx,
		`INSERT INTO accounts (login, password_hash, name, tier, allowed_unit, active, created_at)
		 VALUES (?, ?, ?, 'ADMIN', 'ALL', 1, ?)`,
		b.bootstrap.AdminLogin, hash, "ADMINISTRADOR", FormatTime(b.db.clock.Now()),
	)
	if err != nil {
		return err
	}

	b.logger.Info("administrator account created", slog.String("login", b.bootstrap.AdminLogin))
	return nil
}

// vaccineCatalog is the fixed set of vaccines every store starts with.
var vaccineCatalog = [][]any{
	{"Hepatite B", "Butantan", 3, 30, "Intramuscular", "Hipersensibilidade"},
	{"Dupla Adulto (DT)", "Butantan", 1, 0, "Intramuscular", "Nenhuma"},
	{"Tríplice Viral", "Fiocruz", 1, 0, "Subcutânea", "Gestantes, imunossuprimidos"},
	{"Febre Amarela", "Bio-Manguinhos", 1, 0, "Subcutânea", "Alergia a ovo"},
	{"Influenza", "Vários", 1, 365, "Intramuscular", "Alergia a proteína do ovo"},
	{"COVID-19", "Vários", 2, 21, "Intramuscular", "Reação alérgica grave prévia"},
	{"Antirrábica", "Vários", 3, 7, "Intramuscular", "Nenhuma"},
	{"Meningocócica ACWY", "GSK", 1, 0, "Intramuscular", "Hipersensibilidade"},
}

func (b *Bootstrapper) seedVaccines(ctx context.Context) error {
	n, err := b.db.ExecuteBatch(ctx,
		`INSERT OR IGNORE INTO vaccines (name, manufacturer, required_doses, interval_days, route, contraindications, active)
		 VALUES (?, ?, ?, ?, ?, ?, 1)`,
		vaccineCatalog,
	)
	if err != nil {
		return err
	}
	if n > 0 {
		b.logger.Info("vaccine catalog seeded", slog.Int64("inserted", n))
	}
	return nil
}

func (b *Bootstrapper) importLegacy(ctx context.Context) error {
	exists, err := afero.Exists(b.fs, b.legacyPath)
	if err != nil || !exists {
		return err
	}

	row, err := b.db.FetchOne(ctx, "SELECT COUNT(*) AS total FROM employees")
	if err != nil {
		return err
	}
	if row.Int64("total") > 0 {
		b.logger.Debug("store already populated, skipping legacy import")
		return nil
	}

	legacy, err := sql.Open("sqlite3", "file:"+b.legacyPath+"?mode=ro")
	if err != nil {
		return err
	}
	defer legacy.Close()

	b.logger.Info("importing legacy store", slog.String("path", b.legacyPath))

	for _, m := range legacyMappings {
		if err := b.importTable(ctx, legacy, m); err != nil {
			return fmt.Errorf("table %s: %w", m.source, err)
		}
	}
	return nil
}

type columnInfo struct {
	name     string
	declType string
}

func (b *Bootstrapper) importTable(ctx context.Context, legacy *sql.DB, m legacyMapping) error {
	sourceCols, err := legacyColumns(ctx, legacy, m.source)
	if err != nil {
		return err
	}
	if len(sourceCols) == 0 {
		b.logger.Info("legacy table absent, skipping", slog.String("table", m.source))
		return nil
	}

	targetRows, err := b.db.FetchAll(ctx, fmt.Sprintf("PRAGMA table_info(%s)", m.target))
	if err != nil {
		return err
	}
	targetSet := make(map[string]bool, len(targetRows))
	for _, r := range targetRows {
		targetSet[r.String("name")] = true
	}

	var selectList, sourceNames, targetNames []string
	for _, col := range sourceCols {
		target := m.rename(col.name)
		if !targetSet[target] {
			continue
		}
		expr := quoteIdent(col.name)
		decl := strings.ToUpper(col.declType)
		if strings.Contains(decl, "DATE") || strings.Contains(decl, "TIME") {
			expr = fmt.Sprintf("CAST(%s AS TEXT) AS %s", expr, quoteIdent(col.name))
		}
		selectList = append(selectList, expr)
		sourceNames = append(sourceNames, col.name)
		targetNames = append(targetNames, target)
	}
	if len(targetNames) == 0 {
		b.logger.Warn("no common columns, skipping legacy table",
			slog.String("source", m.source), slog.String("target", m.target))
		return nil
	}

	rows, err := legacy.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s", strings.Join(selectList, ", "), quoteIdent(m.source)))
	if err != nil {
		return err
	}
	table, err := scanTable(rows)
	rows.Close()
	if err != nil {
		return err
	}

	var imported, skipped int
	for _, values := range table.Rows {
		record := make(Row, len(targetNames))
		for i, name := range targetNames {
			record[name] = values[i]
		}
		if m.transform != nil {
			m.transform(record)
		}

		cols := append([]string(nil), targetNames...)
		for _, name := range slices.Sorted(maps.Keys(record)) {
			if !slices.Contains(targetNames, name) && targetSet[name] {
				cols = append(cols, name)
			}
		}
		args := make([]any, 0, len(cols))
		for _, name := range cols {
			args = append(args, record[name])
		}
		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			m.target, strings.Join(cols, ", "), placeholders(len(cols)))

		if _, err := b.db.Execute(ctx, stmt, args...); err != nil {
			if IsUniqueViolation(err) {
				skipped++
				b.logger.Warn("skipping legacy row that violates a uniqueness constraint",
					slog.String("table", m.target),
					slog.String("key", record.String(m.keyColumn)),
				)
				continue
			}
			return err
		}
		imported++
	}

	b.logger.Info("legacy table imported",
		slog.String("source", m.source),
		slog.String("target", m.target),
		slog.Int("imported", imported),
		slog.Int("skipped", skipped),
		slog.Any("columns", sourceNames),
	)
	return nil
}

func legacyColumns(ctx context.Context, legacy *sql.DB, table string) ([]columnInfo, error) {
	rows, err := legacy.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	t, err := scanTable(rows)
	if err != nil {
		return nil, err
	}

	var cols []columnInfo
	for _, r := range t.Records() {
		cols = append(cols, columnInfo{name: r.String("name"), declType: r.String("type")})
	}
	return cols, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
	os.Exit(1)
}
