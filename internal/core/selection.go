package core

import "strings"

// AllLabel is the display label of the "every value" option.
const AllLabel = "Todos"

// Level is one of the three nested category levels.
type Level int

const (
	LevelMacroGroup Level = iota
	LevelSubGroup
	LevelAgency
)

func (l Level) String() string {
	switch l {
	case LevelMacroGroup:
		return "macro_group"
	case LevelSubGroup:
		return "sub_group"
	case LevelAgency:
		return "agency"
	default:
		return "unknown"
	}
}

// Selection is either every value of a level or one specific value.
// The zero value selects every value.
type Selection struct {
	value    string
	specific bool
}

// All selects every value of a level.
func All() Selection { return Selection{} }

// Specific selects exactly v.
func Specific(v string) Selection { return Selection{value: v, specific: true} }

// ParseSelection decodes the wire form, where the empty string means All.
func ParseSelection(s string) Selection {
	s = strings.TrimSpace(s)
	if s == "" {
		return All()
	}
	return Specific(s)
}

// IsAll reports whether the selection imposes no constraint.
func (s Selection) IsAll() bool { return !s.specific }

// Value returns the selected value and false for All.
func (s Selection) Value() (string, bool) { return s.value, s.specific }

// Matches reports whether a record category satisfies the selection.
func (s Selection) Matches(v string) bool {
	return !s.specific || s.value == v
}

// String returns the wire form: empty for All.
func (s Selection) String() string {
	if !s.specific {
		return ""
	}
	return s.value
}

// AgencySelection is a set of agencies; the empty set stands for {ALL}.
type AgencySelection struct {
	values []string
}

// AllAgencies returns the {ALL} agency selection.
func AllAgencies() AgencySelection { return AgencySelection{} }

// Agencies builds a selection from names, dropping blanks and duplicates.
// Selecting nothing is the same as selecting every agency.
func Agencies(names ...string) AgencySelection {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	if len(out) == 0 {
		return AgencySelection{}
	}
	return AgencySelection{values: out}
}

// IsAll reports whether the selection is {ALL}.
func (a AgencySelection) IsAll() bool { return len(a.values) == 0 }

// Values returns the selected agency names in selection order.
func (a AgencySelection) Values() []string { return append([]string(nil), a.values...) }

// Matches reports whether an agency satisfies the selection.
func (a AgencySelection) Matches(agency string) bool {
	if a.IsAll() {
		return true
	}
	for _, v := range a.values {
		if v == agency {
			return true
		}
	}
	return false
}

// FilterSelection holds the three filter levels of one user session.
type FilterSelection struct {
	MacroGroup Selection
	SubGroup   Selection
	Agencies   AgencySelection
}

// Matches applies the AND-conjunction of every constrained level.
func (f FilterSelection) Matches(r Record) bool {
	return f.MacroGroup.Matches(r.MacroGroup) &&
		f.SubGroup.Matches(r.SubGroup) &&
		f.Agencies.Matches(r.Agency)
}

// Option is one dropdown entry.
type Option struct {
	Value Selection
	Label string
}

// ChoiceSet is the list of valid options for a level, ALL first.
type ChoiceSet struct {
	Level   Level
	Options []Option
}

// NewChoiceSet prefixes values with the ALL option.
func NewChoiceSet(level Level, values []string) ChoiceSet {
	opts := make([]Option, 0, len(values)+1)
	opts = append(opts, Option{Value: All(), Label: AllLabel})
	for _, v := range values {
		opts = append(opts, Option{Value: Specific(v), Label: v})
	}
	return ChoiceSet{Level: level, Options: opts}
}

// Values returns the specific values, without the ALL option.
func (c ChoiceSet) Values() []string {
	out := make([]string, 0, len(c.Options))
	for _, o := range c.Options {
		if v, ok := o.Value.Value(); ok {
			out = append(out, v)
		}
	}
	return out
}

// Contains reports whether v is one of the specific values.
func (c ChoiceSet) Contains(v string) bool {
	for _, o := range c.Options {
		if s, ok := o.Value.Value(); ok && s == v {
			return true
		}
	}
	return false
}

// MetricSelection is an ordered list of metrics without duplicates.
type MetricSelection []Metric

// DefaultMetrics is the selection shown before the user picks any metric.
var DefaultMetrics = MetricSelection{Budget2025, Budget2026}

// NewMetricSelection removes duplicates and blanks, keeping first occurrences.
func NewMetricSelection(metrics ...Metric) MetricSelection {
	seen := make(map[Metric]struct{}, len(metrics))
	out := make(MetricSelection, 0, len(metrics))
	for _, m := range metrics {
		if strings.TrimSpace(string(m)) == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Known keeps only the metrics the dashboard knows about.
func (s MetricSelection) Known() MetricSelection {
	out := make(MetricSelection, 0, len(s))
	for _, m := range s {
		if m.Known() {
			out = append(out, m)
		}
	}
	return out
}

// Strings returns the metric identifiers.
func (s MetricSelection) Strings() []string {
	out := make([]string, len(s))
	for i, m := range s {
		out[i] = string(m)
	}
	return out
}
