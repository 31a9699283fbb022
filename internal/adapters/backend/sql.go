package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/logger"
)

const (
	dialectPostgres = "postgres"
	dialectMySQL    = "mysql"
)

// sqlStore implements CollectionStore over sqlx for both relational dialects.
// The collection allow-list is the only source of table names; column names
// come from payload keys and are validated before they reach DDL.
type sqlStore struct {
	db      *sqlx.DB
	dialect string
	logger  *logger.Logger
}

// openPostgres connects to a Postgres/Neon database via its connection URI.
func openPostgres(ctx context.Context, uri string, log *logger.Logger) (*sqlStore, error) {
	db, err := sqlx.Open("postgres", uri)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newSQLStore(ctx, db, dialectPostgres, log)
}

// openMySQL connects to a PlanetScale-style MySQL database from the
// host/username/password triple. PlanetScale requires TLS; the database name
// defaults to "lifeos".
func openMySQL(ctx context.Context, creds entities.Credentials, log *logger.Logger) (*sqlStore, error) {
	cfg := mysql.NewConfig()
	cfg.User = creds.PSUsername
	cfg.Passwd = creds.PSPassword
	cfg.Net = "tcp"
	cfg.Addr = creds.PSHost
	cfg.DBName = "lifeos"
	cfg.TLSConfig = "true"
	cfg.ParseTime = true

	db, err := sqlx.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	return newSQLStore(ctx, db, dialectMySQL, log)
}

func newSQLStore(ctx context.Context, db *sqlx.DB, dialect string, log *logger.Logger) (*sqlStore, error) {
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return &sqlStore{db: db, dialect: dialect, logger: log.WithComponent(dialect)}, nil
}

func (s *sqlStore) ListAll(ctx context.Context, col entities.Collection) ([]entities.Record, error) {
	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s", col))
	if err != nil {
		if s.missingTable(err) {
			// Nothing has ever been written; an empty collection, not an error.
			return []entities.Record{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", col, err)
	}
	defer rows.Close()

	records := []entities.Record{}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan %s: %w", col, err)
		}
		records = append(records, NormalizeRecord(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", col, err)
	}
	return records, nil
}

func (s *sqlStore) ReplaceAll(ctx context.Context, col entities.Collection, records []entities.Record) error {
	if len(records) == 0 {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", col)); err != nil && !s.missingTable(err) {
			return fmt.Errorf("clear %s: %w", col, err)
		}
		return nil
	}

	cols, err := unionColumns(records)
	if err != nil {
		return err
	}

	// The table shape follows the payload, so a replace rebuilds it. Replace-all
	// already discards every row; dropping the table as well lets the schema
	// drift with the client.
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", col)); err != nil {
		return fmt.Errorf("drop %s: %w", col, err)
	}
	if _, err := s.db.ExecContext(ctx, s.createTableSQL(col, cols)); err != nil {
		return fmt.Errorf("create %s: %w", col, err)
	}

	insert := s.db.Rebind(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		col,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
	))

	for _, rec := range records {
		args := make([]any, len(cols))
		for i, name := range cols {
			args[i] = s.bindValue(name, rec[name])
		}
		if _, err := s.db.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", col, err)
		}
	}

	s.logger.Infow("Collection replaced", "collection", col.String(), "records", len(records))
	return nil
}

func (s *sqlStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *sqlStore) createTableSQL(col entities.Collection, cols []string) string {
	defs := make([]string, len(cols))
	for i, name := range cols {
		defs[i] = name + " " + s.columnType(name)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", col, strings.Join(defs, ", "))
}

func (s *sqlStore) columnType(name string) string {
	switch {
	case name == "id" && s.dialect == dialectMySQL:
		return "VARCHAR(191) PRIMARY KEY"
	case name == "id":
		return "TEXT PRIMARY KEY"
	case booleanFields[name] && s.dialect == dialectMySQL:
		return "TINYINT(1)"
	case booleanFields[name]:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// bindValue prepares a JSON value for the driver. MySQL boolean columns take
// 0/1 explicitly; absent keys become NULL.
func (s *sqlStore) bindValue(name string, v any) any {
	if v == nil {
		return nil
	}
	if b, ok := v.(bool); ok && s.dialect == dialectMySQL {
		if b {
			return 1
		}
		return 0
	}
	return v
}

func (s *sqlStore) missingTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01" // undefined_table
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1146 // ER_NO_SUCH_TABLE
	}
	return false
}
