// Package filter narrows a Dataset by the macro group → subgroup → agency
// hierarchy and computes the valid dropdown choices of each level.
//
// Every function takes the Dataset explicitly and never mutates it, so one
// loaded Dataset can serve any number of concurrent requests.
package filter

import "loadash/internal/core"

type (
	// ChoiceUpdate pairs a recomputed subgroup choice set with the selection
	// the dropdown must reset to. Both are always emitted together.
	ChoiceUpdate struct {
		Choices core.ChoiceSet
		Default core.Selection
	}

	// AgencyChoiceUpdate is the agency counterpart of ChoiceUpdate.
	AgencyChoiceUpdate struct {
		Choices core.ChoiceSet
		Default core.AgencySelection
	}
)

// MacroChoices lists every macro group in first-seen order, ALL first.
func MacroChoices(ds *core.Dataset) core.ChoiceSet {
	return core.NewChoiceSet(core.LevelMacroGroup, distinct(ds,
		func(core.Record) bool { return true },
		func(r core.Record) string { return r.MacroGroup }))
}

// SubGroupChoices lists the subgroups of the selected macro group (or of every
// macro group). The default selection is always ALL.
func SubGroupChoices(ds *core.Dataset, macro core.Selection) ChoiceUpdate {
	values := distinct(ds,
		func(r core.Record) bool { return macro.Matches(r.MacroGroup) },
		func(r core.Record) string { return r.SubGroup })
	return ChoiceUpdate{
		Choices: core.NewChoiceSet(core.LevelSubGroup, values),
		Default: core.All(),
	}
}

// AgencyChoices lists the agencies under both ancestor selections. The default
// selection is always {ALL}.
func AgencyChoices(ds *core.Dataset, macro, sub core.Selection) AgencyChoiceUpdate {
	values := distinct(ds,
		func(r core.Record) bool { return macro.Matches(r.MacroGroup) && sub.Matches(r.SubGroup) },
		func(r core.Record) string { return r.Agency })
	return AgencyChoiceUpdate{
		Choices: core.NewChoiceSet(core.LevelAgency, values),
		Default: core.AllAgencies(),
	}
}

// Filter returns, in dataset order, the records matching every constrained
// level. No match yields an empty slice.
func Filter(ds *core.Dataset, sel core.FilterSelection) []core.Record {
	out := make([]core.Record, 0, ds.Len())
	for _, r := range ds.All() {
		if sel.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Normalize clamps values that are not valid under their ancestors to ALL.
// Agencies outside the valid set are dropped; when none remain the level
// becomes {ALL}.
func Normalize(ds *core.Dataset, sel core.FilterSelection) core.FilterSelection {
	if v, ok := sel.MacroGroup.Value(); ok && !MacroChoices(ds).Contains(v) {
		sel.MacroGroup = core.All()
	}
	if v, ok := sel.SubGroup.Value(); ok && !SubGroupChoices(ds, sel.MacroGroup).Choices.Contains(v) {
		sel.SubGroup = core.All()
	}
	if !sel.Agencies.IsAll() {
		valid := AgencyChoices(ds, sel.MacroGroup, sel.SubGroup).Choices
		var keep []string
		for _, a := range sel.Agencies.Values() {
			if valid.Contains(a) {
				keep = append(keep, a)
			}
		}
		sel.Agencies = core.Agencies(keep...)
	}
	return sel
}

func distinct(ds *core.Dataset, keep func(core.Record) bool, field func(core.Record) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range ds.All() {
		if !keep(r) {
			continue
		}
		v := field(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
