package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"loadash/internal/core"
	ports "loadash/internal/sheets"
)

// Store serves a table held in memory: either a CSV seed file or the built-in
// sample.
type Store struct {
	table  core.RawTable
	source string
}

var (
	_ ports.TableReader = (*Store)(nil)
	_ ports.Describer   = (*Store)(nil)
)

func New(t core.RawTable) *Store {
	return &Store{table: t, source: "memory"}
}

// NewSample returns a store over a small built-in LOA dataset.
func NewSample() *Store {
	return &Store{table: Sample(), source: "memory sample"}
}

// NewFromFile loads a CSV seed. The delimiter is ';' when the header line
// contains one, ',' otherwise.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return &Store{table: t, source: "csv " + path}, nil
}

// ReadCSV parses a CSV export of the budget sheet.
func ReadCSV(r io.Reader) (core.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.RawTable{}, err
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	cr := csv.NewReader(strings.NewReader(text))
	firstLine, _, _ := strings.Cut(text, "\n")
	if strings.Contains(firstLine, ";") {
		cr.Comma = ';'
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return core.RawTable{}, err
	}
	var t core.RawTable
	for _, rec := range records {
		if t.Header == nil {
			t.Header = rec
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// ReadTable returns a copy of the stored table.
func (s *Store) ReadTable(ctx context.Context) (core.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return core.RawTable{}, err
	}
	out := core.RawTable{Header: append([]string(nil), s.table.Header...)}
	for _, row := range s.table.Rows {
		out.Rows = append(out.Rows, append([]string(nil), row...))
	}
	return out, nil
}

func (s *Store) Describe() string { return s.source }

// Sample is a small LOA 2025 x 2026 table in the spreadsheet's own layout.
func Sample() core.RawTable {
	cols := core.DefaultColumns()
	header := []string{cols.MacroGroup, cols.SubGroup, cols.Agency}
	for _, m := range core.SourceMetrics {
		header = append(header, cols.Header(m))
	}
	t := core.RawTable{Header: header}
	for _, l := range sampleLines {
		t.Rows = append(t.Rows, l.row())
	}
	return t
}

type sampleLine struct {
	macro, sub, agency string
	b25, i25, b26, i26 float64
}

var sampleLines = []sampleLine{
	{"Saúde", "Hospitais", "Hospital Estadual Geral", 1_250_000_000, 95_000_000, 1_380_000_000, 120_000_000},
	{"Saúde", "Hospitais", "Hospital de Urgências", 640_000_000, 0, 702_000_000, 38_000_000},
	{"Saúde", "Vigilância", "Agência de Vigilância Sanitária", 85_000_000, 4_200_000, 91_500_000, 3_900_000},
	{"Educação", "Ensino Básico", "Secretaria da Educação", 4_900_000_000, 310_000_000, 5_230_000_000, 356_000_000},
	{"Educação", "Ensino Superior", "Universidade Estadual", 720_000_000, 42_000_000, 768_000_000, 40_500_000},
	{"Infraestrutura", "Transportes", "Agência de Infraestrutura", 1_100_000_000, 690_000_000, 1_020_000_000, 610_000_000},
	{"Infraestrutura", "Saneamento", "Companhia de Saneamento", 0, 0, 150_000_000, 140_000_000},
	{"Segurança Pública", "Polícia", "Polícia Militar", 2_300_000_000, 75_000_000, 2_410_000_000, 88_000_000},
	{"Segurança Pública", "Polícia", "Polícia Civil", 910_000_000, 21_000_000, 955_000_000, 19_000_000},
	{"Segurança Pública", "Sistema Prisional", "Diretoria de Administração Penitenciária", 480_000_000, 36_000_000, 512_000_000, 52_000_000},
}

func (l sampleLine) row() []string {
	return []string{
		l.macro, l.sub, l.agency,
		number(l.b25), number(l.i25), number(l.b26), number(l.i26),
		number(l.b26 - l.b25), number(l.i26 - l.i25),
		percentText(l.b26, l.b25), percentText(l.i26, l.i25),
	}
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// percentText renders the change in the sheet's text form, e.g. "12,5%".
// A zero base has no defined change and is left empty.
func percentText(now, before float64) string {
	if before == 0 {
		return ""
	}
	pct := 100 * (now - before) / before
	return strings.Replace(strconv.FormatFloat(pct, 'f', 1, 64), ".", ",", 1) + "%"
}
