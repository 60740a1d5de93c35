package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"loadash/internal/core"
	ports "loadash/internal/sheets"

	_ "modernc.org/sqlite"
)

// SQLiteRepository serves budget lines imported into a SQLite database.
// ReadTable presents them under the spreadsheet headers of cols so the
// same derivation path applies to every source.
type SQLiteRepository struct {
	db   *sql.DB
	path string
	cols core.ColumnMap
}

var (
	_ ports.TableReader = (*SQLiteRepository)(nil)
	_ ports.Describer   = (*SQLiteRepository)(nil)
)

// lineColumns pairs each metric with its budget_lines column, in table order.
var lineColumns = []struct {
	metric core.Metric
	column string
}{
	{core.Budget2025, "budget_2025"},
	{core.Investment2025, "investment_2025"},
	{core.Budget2026, "budget_2026"},
	{core.Investment2026, "investment_2026"},
	{core.BudgetDelta, "budget_delta"},
	{core.InvestmentDelta, "investment_delta"},
	{core.BudgetDeltaPct, "budget_delta_pct"},
	{core.InvestmentDeltaPct, "investment_delta_pct"},
}

func NewSQLiteRepository(dbPath string, cols core.ColumnMap) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath, cols: cols}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Describe() string { return "sqlite " + r.path }

// ReadTable implements sheets.TableReader. NULL cells come back empty.
func (r *SQLiteRepository) ReadTable(ctx context.Context) (core.RawTable, error) {
	names := make([]string, 0, len(lineColumns))
	header := []string{r.cols.MacroGroup, r.cols.SubGroup, r.cols.Agency}
	for _, lc := range lineColumns {
		names = append(names, lc.column)
		header = append(header, r.cols.Header(lc.metric))
	}

	query := fmt.Sprintf(
		"SELECT macro_group, sub_group, agency, %s FROM budget_lines ORDER BY id",
		strings.Join(names, ", "))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return core.RawTable{}, fmt.Errorf("query budget lines: %w", err)
	}
	defer rows.Close()

	t := core.RawTable{Header: header}
	for rows.Next() {
		var macro, sub, agency string
		cells := make([]sql.NullString, len(lineColumns))
		dest := []any{&macro, &sub, &agency}
		for i := range cells {
			dest = append(dest, &cells[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return core.RawTable{}, fmt.Errorf("scan budget line: %w", err)
		}
		row := []string{macro, sub, agency}
		for _, c := range cells {
			row = append(row, c.String)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return core.RawTable{}, fmt.Errorf("iterate budget lines: %w", err)
	}
	return t, nil
}

// ImportTable replaces the stored budget lines with the rows of t, located by
// the headers of cols. Blank rows are skipped. Numeric cells must parse;
// percent cells are stored as text and parsed at load time.
func (r *SQLiteRepository) ImportTable(ctx context.Context, t core.RawTable) (int, error) {
	idx := func(name string) int {
		for i, h := range t.Header {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
				return i
			}
		}
		return -1
	}
	macroIdx, subIdx, agencyIdx := idx(r.cols.MacroGroup), idx(r.cols.SubGroup), idx(r.cols.Agency)
	metricIdx := make([]int, len(lineColumns))
	var missing []string
	for _, p := range []struct {
		name string
		i    int
	}{{r.cols.MacroGroup, macroIdx}, {r.cols.SubGroup, subIdx}, {r.cols.Agency, agencyIdx}} {
		if p.i < 0 {
			missing = append(missing, p.name)
		}
	}
	for i, lc := range lineColumns {
		metricIdx[i] = idx(r.cols.Header(lc.metric))
		if metricIdx[i] < 0 {
			missing = append(missing, r.cols.Header(lc.metric))
		}
	}
	if len(missing) > 0 {
		return 0, &core.MissingColumnError{Columns: missing}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM budget_lines"); err != nil {
		return 0, fmt.Errorf("clear budget lines: %w", err)
	}

	names := make([]string, 0, len(lineColumns))
	for _, lc := range lineColumns {
		names = append(names, lc.column)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO budget_lines (macro_group, sub_group, agency, %s) VALUES (?, ?, ?%s)",
		strings.Join(names, ", "), strings.Repeat(", ?", len(names))))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	get := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	n := 0
	for ri, row := range t.Rows {
		macro, sub, agency := get(row, macroIdx), get(row, subIdx), get(row, agencyIdx)
		args := []any{macro, sub, agency}
		blank := macro == "" && sub == "" && agency == ""
		for i, lc := range lineColumns {
			v := get(row, metricIdx[i])
			if v != "" {
				blank = false
			}
			if lc.metric.PercentText() {
				args = append(args, nullText(v))
				continue
			}
			f, err := nullNumber(v)
			if err != nil {
				return 0, &core.ParseError{Row: ri + 1, Column: r.cols.Header(lc.metric), Value: v, Err: err}
			}
			args = append(args, f)
		}
		if blank {
			continue
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", ri+1, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	slog.InfoContext(ctx, "Budget lines imported", "rows", n, "db", r.path)
	return n, nil
}

// Count returns the number of stored budget lines.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM budget_lines").Scan(&n); err != nil {
		return 0, fmt.Errorf("count budget lines: %w", err)
	}
	return n, nil
}

func nullText(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullNumber(v string) (sql.NullFloat64, error) {
	if v == "" {
		return sql.NullFloat64{}, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return sql.NullFloat64{}, err
	}
	return sql.NullFloat64{Float64: f, Valid: true}, nil
}
