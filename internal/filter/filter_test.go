package filter

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadash/internal/core"
)

func rec(macro, sub, agency string, budget float64) core.Record {
	return core.NewRecord(macro, sub, agency, map[core.Metric]float64{core.Budget2025: budget})
}

func sampleDataset() *core.Dataset {
	return core.NewDataset([]core.Record{
		rec("Saúde", "Hospitais", "Hospital A", 1000),
		rec("Saúde", "Hospitais", "Hospital B", 2000),
		rec("Saúde", "Vigilância", "Agência Sanitária", 300),
		rec("Educação", "Escolas", "Escola X", 500),
		rec("Educação", "Universidades", "UEG", 900),
		rec("Infraestrutura", "Estradas", "Goinfra", 4000),
	})
}

func agencies(rs []core.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Agency
	}
	return out
}

func TestMacroChoices(t *testing.T) {
	cs := MacroChoices(sampleDataset())
	assert.Equal(t, core.LevelMacroGroup, cs.Level)
	assert.True(t, cs.Options[0].Value.IsAll())
	assert.Equal(t, []string{"Saúde", "Educação", "Infraestrutura"}, cs.Values())
}

func TestSubGroupChoices(t *testing.T) {
	ds := sampleDataset()

	all := SubGroupChoices(ds, core.All())
	assert.Equal(t, []string{"Hospitais", "Vigilância", "Escolas", "Universidades", "Estradas"}, all.Choices.Values())
	assert.True(t, all.Default.IsAll())

	saude := SubGroupChoices(ds, core.Specific("Saúde"))
	assert.Equal(t, []string{"Hospitais", "Vigilância"}, saude.Choices.Values())
	assert.True(t, saude.Default.IsAll())

	none := SubGroupChoices(ds, core.Specific("Cultura"))
	assert.Empty(t, none.Choices.Values())
	assert.Len(t, none.Choices.Options, 1)
}

func TestAgencyChoices(t *testing.T) {
	ds := sampleDataset()

	cu := AgencyChoices(ds, core.Specific("Saúde"), core.All())
	assert.Equal(t, []string{"Hospital A", "Hospital B", "Agência Sanitária"}, cu.Choices.Values())
	assert.True(t, cu.Default.IsAll())

	cu = AgencyChoices(ds, core.All(), core.Specific("Escolas"))
	assert.Equal(t, []string{"Escola X"}, cu.Choices.Values())

	cu = AgencyChoices(ds, core.Specific("Saúde"), core.Specific("Escolas"))
	assert.Empty(t, cu.Choices.Values())
}

func TestFilter(t *testing.T) {
	ds := sampleDataset()

	got := Filter(ds, core.FilterSelection{})
	assert.Equal(t, agencies(ds.Records()), agencies(got), "ALL/ALL/{ALL} returns the dataset unchanged")

	got = Filter(ds, core.FilterSelection{MacroGroup: core.Specific("Saúde")})
	assert.Equal(t, []string{"Hospital A", "Hospital B", "Agência Sanitária"}, agencies(got))

	got = Filter(ds, core.FilterSelection{
		MacroGroup: core.Specific("Saúde"),
		SubGroup:   core.Specific("Hospitais"),
		Agencies:   core.Agencies("Hospital B", "Escola X"),
	})
	assert.Equal(t, []string{"Hospital B"}, agencies(got))

	got = Filter(ds, core.FilterSelection{MacroGroup: core.Specific("Cultura")})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var records []core.Record
	for i := 0; i < 200; i++ {
		m := rng.Intn(4)
		s := rng.Intn(3)
		records = append(records, rec(
			fmt.Sprintf("M%d", m),
			fmt.Sprintf("M%d-S%d", m, s),
			fmt.Sprintf("M%d-S%d-A%d", m, s, rng.Intn(5)),
			float64(i),
		))
	}
	ds := core.NewDataset(records)

	pick := func(values []string) core.Selection {
		if len(values) == 0 || rng.Intn(3) == 0 {
			return core.All()
		}
		return core.Specific(values[rng.Intn(len(values))])
	}

	for i := 0; i < 300; i++ {
		macro := pick(MacroChoices(ds).Values())
		sub := pick(SubGroupChoices(ds, macro).Choices.Values())
		var ags []string
		for _, a := range AgencyChoices(ds, macro, sub).Choices.Values() {
			if rng.Intn(2) == 0 {
				ags = append(ags, a)
			}
		}
		sel := core.FilterSelection{MacroGroup: macro, SubGroup: sub, Agencies: core.Agencies(ags...)}

		got := Filter(ds, sel)

		// Every returned record satisfies the predicate, in dataset order.
		// Budget2025 holds the row index, so it doubles as an identity.
		last := -1.0
		for _, r := range got {
			require.True(t, sel.Matches(r))
			idx, ok := r.Value(core.Budget2025)
			require.True(t, ok)
			require.Greater(t, idx, last, "result must keep dataset order")
			last = idx
		}
		// And no matching record is missing.
		want := 0
		for _, r := range ds.All() {
			if sel.Matches(r) {
				want++
			}
		}
		require.Equal(t, want, len(got))
	}

	// Round trip: subgroup choices are exactly the subgroups of the macro group.
	for _, m := range MacroChoices(ds).Values() {
		choices := SubGroupChoices(ds, core.Specific(m)).Choices
		for _, r := range ds.All() {
			if r.MacroGroup == m {
				assert.True(t, choices.Contains(r.SubGroup))
			} else {
				assert.False(t, choices.Contains(r.SubGroup), "subgroup %q leaked from %q", r.SubGroup, r.MacroGroup)
			}
		}
	}
}

func TestNormalizeClampsUnknownValues(t *testing.T) {
	ds := sampleDataset()

	sel := Normalize(ds, core.FilterSelection{
		MacroGroup: core.Specific("Cultura"),
		SubGroup:   core.Specific("Hospitais"),
		Agencies:   core.Agencies("Hospital A", "Nope"),
	})
	assert.True(t, sel.MacroGroup.IsAll())
	v, _ := sel.SubGroup.Value()
	assert.Equal(t, "Hospitais", v)
	assert.Equal(t, []string{"Hospital A"}, sel.Agencies.Values())

	sel = Normalize(ds, core.FilterSelection{
		MacroGroup: core.Specific("Educação"),
		SubGroup:   core.Specific("Hospitais"),
		Agencies:   core.Agencies("Hospital A"),
	})
	assert.False(t, sel.MacroGroup.IsAll())
	assert.True(t, sel.SubGroup.IsAll(), "subgroup outside the macro group is clamped")
	assert.True(t, sel.Agencies.IsAll(), "no valid agency left means {ALL}")
}
