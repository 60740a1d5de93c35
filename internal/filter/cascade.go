package filter

import "loadash/internal/core"

// EventKind names the control whose value changed.
type EventKind int

const (
	// EventLoad is a full render: every choice set is computed, nothing resets.
	EventLoad EventKind = iota
	EventMacroGroup
	EventSubGroup
	EventAgency
	EventMetrics
)

// ParseEventKind decodes the wire name of an event. Unknown names are a full load.
func ParseEventKind(s string) EventKind {
	switch s {
	case "macro":
		return EventMacroGroup
	case "subgroup":
		return EventSubGroup
	case "agency":
		return EventAgency
	case "metrics":
		return EventMetrics
	default:
		return EventLoad
	}
}

// ValidEventKind reports whether s is a wire event name. The empty string is
// a full load.
func ValidEventKind(s string) bool {
	switch s {
	case "", "load", "macro", "subgroup", "agency", "metrics":
		return true
	}
	return false
}

func (k EventKind) String() string {
	switch k {
	case EventMacroGroup:
		return "macro"
	case EventSubGroup:
		return "subgroup"
	case EventAgency:
		return "agency"
	case EventMetrics:
		return "metrics"
	default:
		return "load"
	}
}

// State is everything one dashboard session has selected.
type State struct {
	Filter  core.FilterSelection
	Metrics core.MetricSelection
}

// Update is the outcome of one event. SubGroups and Agencies are nil when the
// event did not require recomputing that level.
type Update struct {
	State     State
	SubGroups *ChoiceUpdate
	Agencies  *AgencyChoiceUpdate
	Records   []core.Record
}

// Apply runs the macro → subgroup → agency cascade for one event. next holds
// the values the user has on screen after the change.
//
// A macro change recomputes and resets the subgroup and then the agency level;
// a subgroup change recomputes and resets the agency level; agency and metric
// changes only re-filter. Invalid values are clamped to ALL, and a clamped
// level has its descendants recomputed as if it had changed. On EventLoad the
// returned defaults carry the current (clamped) selections instead of ALL.
func Apply(ds *core.Dataset, next State, kind EventKind) Update {
	st := next
	st.Metrics = core.NewMetricSelection(st.Metrics...).Known()

	recomputeSub := kind == EventLoad || kind == EventMacroGroup
	recomputeAgency := recomputeSub || kind == EventSubGroup

	switch kind {
	case EventMacroGroup:
		st.Filter.SubGroup = core.All()
		st.Filter.Agencies = core.AllAgencies()
	case EventSubGroup:
		st.Filter.Agencies = core.AllAgencies()
	}

	clamped := Normalize(ds, st.Filter)
	if clamped.MacroGroup != st.Filter.MacroGroup {
		recomputeSub, recomputeAgency = true, true
	}
	if clamped.SubGroup != st.Filter.SubGroup {
		recomputeAgency = true
	}
	st.Filter = clamped

	u := Update{State: st}
	if recomputeSub {
		cu := SubGroupChoices(ds, st.Filter.MacroGroup)
		if kind == EventLoad {
			cu.Default = st.Filter.SubGroup
		}
		u.SubGroups = &cu
	}
	if recomputeAgency {
		au := AgencyChoices(ds, st.Filter.MacroGroup, st.Filter.SubGroup)
		if kind == EventLoad {
			au.Default = st.Filter.Agencies
		}
		u.Agencies = &au
	}
	u.Records = Filter(ds, st.Filter)
	return u
}
