package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHeader = []string{
	"Macro grupo", "SubGrupo", "ORGÃO",
	"ORÇAMENTO 25", "INVESTIMENTO 25", "ORÇAMENTO 26", "INVESTIMENTO 26",
	"ORÇAMENTO", "INVESTIMENTO", "%4", "%3",
}

func TestParsePercent(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12,5%", 12.5, true},
		{"-3%", -3, true},
		{" 7,25 % ", 7.25, true},
		{"0.25", 0.25, true},
		{"100", 100, true},
		{"n/d", 0, false},
		{"1,2,3%", 0, false},
	}
	for _, tc := range cases {
		got, err := ParsePercent(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrParse, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, "input %q", tc.in)
	}
}

func TestParseNumberEmptyIsNaN(t *testing.T) {
	v, err := ParseNumber("   ")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))

	v, err = ParsePercent("%")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))
}

func TestDeriveComputesInvestmentShare(t *testing.T) {
	table := RawTable{
		Header: testHeader,
		Rows: [][]string{
			{"Saúde", "Hospitais", "Hospital A", "1000", "250", "1200", "300", "200", "50", "20%", "20%"},
			{"Saúde", "Hospitais", "Hospital B", "2000", "0", "0", "0", "-2000", "0", "-100%", "0%"},
		},
	}
	ds, err := Derive(table, DefaultColumns())
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	a := ds.At(0)
	assert.Equal(t, "Hospital A", a.Agency)
	pct, ok := a.Value(InvestmentPct2025)
	require.True(t, ok)
	assert.InDelta(t, 25.0, pct, 1e-9)
	pct, ok = a.Value(InvestmentPct2026)
	require.True(t, ok)
	assert.InDelta(t, 25.0, pct, 1e-9)

	b := ds.At(1)
	pct, ok = b.Value(InvestmentPct2025)
	require.True(t, ok, "0 investment over a non-zero budget is a real 0%")
	assert.Equal(t, 0.0, pct)
	_, ok = b.Value(InvestmentPct2026)
	assert.False(t, ok, "zero budget must yield no value")
	assert.True(t, math.IsNaN(b.Raw(InvestmentPct2026)))

	delta, ok := b.Value(BudgetDeltaPct)
	require.True(t, ok)
	assert.Equal(t, -100.0, delta)
}

func TestDeriveSkipsBlankRowsAndTrimsCategories(t *testing.T) {
	table := RawTable{
		Header: testHeader,
		Rows: [][]string{
			{" Educação ", "Escolas ", " Escola X", "10", "1", "10", "1", "0", "0", "0%", "0%"},
			{"", "", "", "", ""},
			{},
		},
	}
	ds, err := Derive(table, DefaultColumns())
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	r := ds.At(0)
	assert.Equal(t, "Educação", r.MacroGroup)
	assert.Equal(t, "Escolas", r.SubGroup)
	assert.Equal(t, "Escola X", r.Agency)
}

func TestDeriveMissingColumns(t *testing.T) {
	header := append([]string(nil), testHeader[:len(testHeader)-2]...)
	_, err := Derive(RawTable{Header: header}, DefaultColumns())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)

	var mce *MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.ElementsMatch(t, []string{"%4", "%3"}, mce.Columns)
}

func TestDeriveHeaderMatchIgnoresCaseAndSpaces(t *testing.T) {
	header := []string{
		" macro grupo", "subgrupo", "orgão ",
		"orçamento 25", "investimento 25", "orçamento 26", "investimento 26",
		"orçamento", "investimento", "%4", "%3",
	}
	ds, err := Derive(RawTable{Header: header, Rows: [][]string{
		{"M", "S", "A", "1", "1", "1", "1", "0", "0", "0", "0"},
	}}, DefaultColumns())
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}

func TestDeriveParseErrorIsFatal(t *testing.T) {
	table := RawTable{
		Header: testHeader,
		Rows: [][]string{
			{"M", "S", "A", "1", "1", "1", "1", "0", "0", "0%", "0%"},
			{"M", "S", "B", "1", "1", "1", "1", "0", "0", "abc%", "0%"},
		},
	}
	_, err := Derive(table, DefaultColumns())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Row)
	assert.Equal(t, "%4", pe.Column)
	assert.Equal(t, "abc%", pe.Value)
}

func TestInvestmentShare(t *testing.T) {
	assert.InDelta(t, 25.0, InvestmentShare(250, 1000), 1e-9)
	assert.True(t, math.IsNaN(InvestmentShare(0, 0)))
	assert.True(t, math.IsNaN(InvestmentShare(10, 0)))
}
