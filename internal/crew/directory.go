// Package crew serves the ship's personnel records from an in-memory SQLite
// database that answers read-only SQL queries.
package crew

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-sqlite3"
)

//go:embed crew.csv
var roster string

// MaxRows caps how many rows a query returns.
const MaxRows = 10

var (
	ErrReadOnly = errors.New("only SELECT queries are allowed")
	ErrNotFound = errors.New("crew member not found")
)

var columns = []string{
	"first_name", "last_name", "birthday", "role", "status",
	"years_of_service", "specialization", "clearance_level",
}

type Member struct {
	FirstName      string
	LastName       string
	Birthday       string
	Role           string
	Status         string
	YearsOfService int
	Specialization string
	ClearanceLevel int
}

type Directory struct {
	db *sql.DB
}

// Open loads the bundled roster.
func Open(ctx context.Context) (*Directory, error) {
	return Load(ctx, strings.NewReader(roster))
}

// Load builds a directory from CSV with a header row naming the crew
// columns in order.
func Load(ctx context.Context, r io.Reader) (*Directory, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read crew roster: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("crew roster is empty")
	}
	if got := strings.Join(records[0], ","); got != strings.Join(columns, ",") {
		return nil, fmt.Errorf("unexpected crew roster header %q", got)
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	d := &Directory{db: db}
	if err := d.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := d.insert(ctx, records[1:]); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.lock(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to lock database: %w", err)
	}
	return d, nil
}

// lock makes the loaded database read-only. The authorizer is checked for
// every statement SQLite prepares, including ones after a semicolon, so a
// query cannot switch the lock back off.
func (d *Directory) lock(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return err
	}
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		c.RegisterAuthorizer(authorizeRead)
		return nil
	})
}

func authorizeRead(op int, _, _, _ string) int {
	switch op {
	case sqlite3.SQLITE_SELECT, sqlite3.SQLITE_READ, sqlite3.SQLITE_FUNCTION:
		return sqlite3.SQLITE_OK
	}
	return sqlite3.SQLITE_DENY
}

func queryError(err error) error {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && (sqlErr.Code == sqlite3.ErrAuth || sqlErr.Code == sqlite3.ErrReadonly) {
		return ErrReadOnly
	}
	return fmt.Errorf("query failed: %w", err)
}

func (d *Directory) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE crew (
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		birthday TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL,
		years_of_service INTEGER NOT NULL,
		specialization TEXT NOT NULL,
		clearance_level INTEGER NOT NULL
	);
	`
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

func (d *Directory) insert(ctx context.Context, records [][]string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insert: %w", err)
	}
	defer tx.Rollback()

	for i, rec := range records {
		years, err := strconv.Atoi(rec[5])
		if err != nil {
			return fmt.Errorf("roster line %d: years_of_service: %w", i+2, err)
		}
		clearance, err := strconv.Atoi(rec[7])
		if err != nil {
			return fmt.Errorf("roster line %d: clearance_level: %w", i+2, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO crew (first_name, last_name, birthday, role, status, years_of_service, specialization, clearance_level)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, rec[0], rec[1], rec[2], rec[3], rec[4], years, rec[6], clearance)
		if err != nil {
			return fmt.Errorf("failed to insert roster line %d: %w", i+2, err)
		}
	}
	return tx.Commit()
}

// Query runs a read-only SQL query against the crew table and renders at
// most MaxRows rows as an ASCII table.
func (d *Directory) Query(ctx context.Context, query string) (string, error) {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "", errors.New("empty query")
	}
	if keyword := strings.ToUpper(fields[0]); keyword != "SELECT" && keyword != "WITH" {
		return "", ErrReadOnly
	}

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return "", queryError(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}

	var data [][]string
	truncated := false
	for rows.Next() {
		if len(data) == MaxRows {
			truncated = true
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("query failed: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = cell(v)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return "", queryError(err)
	}

	if len(data) == 0 {
		return "No rows returned.", nil
	}

	out := table.New().
		Border(lipgloss.ASCIIBorder()).
		Headers(cols...).
		Rows(data...).
		String()
	if truncated {
		out += fmt.Sprintf("\n(showing the first %d rows)", MaxRows)
	}
	return out, nil
}

func cell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

// Member returns the first crew member holding role.
func (d *Directory) Member(ctx context.Context, role string) (Member, error) {
	var m Member
	err := d.db.QueryRowContext(ctx, `
		SELECT first_name, last_name, birthday, role, status, years_of_service, specialization, clearance_level
		FROM crew WHERE role = ? LIMIT 1
	`, role).Scan(&m.FirstName, &m.LastName, &m.Birthday, &m.Role, &m.Status, &m.YearsOfService, &m.Specialization, &m.ClearanceLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, fmt.Errorf("%w: %s", ErrNotFound, role)
	}
	if err != nil {
		return Member{}, fmt.Errorf("failed to look up %s: %w", role, err)
	}
	return m, nil
}

func (d *Directory) Close() error {
	return d.db.Close()
}
