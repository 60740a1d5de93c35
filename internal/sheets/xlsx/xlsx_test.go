package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadash/internal/core"
)

var header = []string{
	"Macro grupo", "SubGrupo", "ORGÃO",
	"ORÇAMENTO 25", "INVESTIMENTO 25", "ORÇAMENTO 26", "INVESTIMENTO 26",
	"ORÇAMENTO", "INVESTIMENTO", "%4", "%3",
}

func TestReadTableRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loa.xlsx")
	require.NoError(t, WriteTable(path, "LOA", core.RawTable{
		Header: header,
		Rows: [][]string{
			{"Saúde", "Hospitais", "Hospital A", "1000", "250", "1200", "300", "200", "50", "20%", "20%"},
			{"Saúde", "Hospitais", "Hospital B", "2000", "0", "0", "0", "-2000", "0", "-100%", "12,5%"},
		},
	}))

	r, err := New(path, "")
	require.NoError(t, err)
	table, err := r.ReadTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, header, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Hospital B", table.Rows[1][2])
	assert.Equal(t, "12,5%", table.Rows[1][10])

	ds, err := core.Derive(table, core.DefaultColumns())
	require.NoError(t, err)
	pct, ok := ds.At(0).Value(core.InvestmentPct2025)
	require.True(t, ok)
	assert.InDelta(t, 25.0, pct, 1e-9)
	delta, ok := ds.At(1).Value(core.InvestmentDeltaPct)
	require.True(t, ok)
	assert.InDelta(t, 12.5, delta, 1e-9)
}

func TestReadTableNamedSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loa.xlsx")
	require.NoError(t, WriteTable(path, "LOA", core.RawTable{Header: header}))

	r, err := New(path, "LOA")
	require.NoError(t, err)
	table, err := r.ReadTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, header, table.Header)
	assert.Empty(t, table.Rows)

	r, err = New(path, "Missing")
	require.NoError(t, err)
	_, err = r.ReadTable(context.Background())
	assert.Error(t, err)
}

func TestReadTableMissingFile(t *testing.T) {
	r, err := New(filepath.Join(t.TempDir(), "nope.xlsx"), "")
	require.NoError(t, err)
	_, err = r.ReadTable(context.Background())
	assert.Error(t, err)

	_, err = New("  ", "")
	assert.Error(t, err)
}
