package http

import (
	"net/http"

	"loadash/internal/chart"
	"loadash/internal/core"
	"loadash/internal/filter"
	applog "loadash/internal/log"
	"loadash/internal/middleware/trace"
	"loadash/internal/render"
)

// handleIndex renders the full page for the state in the query string.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st, _ := ParseState(r.URL.Query())
	u := filter.Apply(s.ds, st, filter.EventLoad)

	data := pageData{
		Title:    PageTitle,
		Footer:   s.footer,
		Source:   s.source,
		Macro:    macroSelect(s.ds, u.State.Filter.MacroGroup),
		SubGroup: subGroupSelect(*u.SubGroups),
		Agency:   agencySelect(u.Agencies.Choices, u.Agencies.Default),
		Metrics:  metricSelect(s.labels, u.State.Metrics),
		Chart:    newChartView(u.State, u.Records, s.labels),
	}

	b := NewHTMXResponse()
	if err := b.Template(s.templates, "index.html", data); err != nil {
		s.events.LogError(r.Context(), "Index template execution failed", err, applog.ComponentTemplate, applog.OpRender, nil)
		InternalServerError("Erro ao montar a página").Write(w)
		return
	}
	b.Write(w)
}

// handleFilters answers one control change: the chart partial plus
// out-of-band swaps for every dropdown the cascade recomputed.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	if ev := sanitizeInput(r.URL.Query().Get(ParamEvent)); !filter.ValidEventKind(ev) {
		BadRequestError("Evento desconhecido: " + ev).Write(w)
		return
	}
	st, kind := ParseState(r.URL.Query())
	u := filter.Apply(s.ds, st, kind)

	s.events.LogSelection(r.Context(), kind.String(),
		u.State.Filter.MacroGroup.String(), u.State.Filter.SubGroup.String(),
		u.State.Filter.Agencies.Values(), u.State.Metrics.Strings(), len(u.Records))

	view := newChartView(u.State, u.Records, s.labels)
	b := NewHTMXResponse().TriggerChartUpdated(view.Records, len(view.Spec.Categories))
	if err := b.Template(s.templates, "chart", view); err != nil {
		s.renderError(w, r, err)
		return
	}

	var reset []string
	if kind == filter.EventLoad {
		macro := macroSelect(s.ds, u.State.Filter.MacroGroup)
		macro.OOB = true
		if err := b.Template(s.templates, "select", macro); err != nil {
			s.renderError(w, r, err)
			return
		}
	}
	if u.SubGroups != nil {
		sub := subGroupSelect(*u.SubGroups)
		sub.OOB = true
		if err := b.Template(s.templates, "select", sub); err != nil {
			s.renderError(w, r, err)
			return
		}
		reset = append(reset, core.LevelSubGroup.String())
	}
	if u.Agencies != nil {
		ag := agencySelect(u.Agencies.Choices, u.Agencies.Default)
		ag.OOB = true
		if err := b.Template(s.templates, "select", ag); err != nil {
			s.renderError(w, r, err)
			return
		}
		reset = append(reset, core.LevelAgency.String())
	}
	b.TriggerChoicesReset(reset...).Write(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	s.events.LogError(r.Context(), "Partial template execution failed", err, applog.ComponentTemplate, applog.OpRender, nil)
	InternalServerError("Erro ao atualizar o gráfico").Write(w)
}

// current normalizes the requested state without resetting any level.
func (s *Server) current(r *http.Request) filter.Update {
	st, _ := ParseState(r.URL.Query())
	return filter.Apply(s.ds, st, filter.EventAgency)
}

func (s *Server) handleChartSpec(w http.ResponseWriter, r *http.Request) {
	u := s.current(r)
	writeJSON(w, r, http.StatusOK, chart.Project(u.Records, u.State.Metrics, s.labels))
}

type (
	optionJSON struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}

	choicesJSON struct {
		Level   string       `json:"level"`
		Options []optionJSON `json:"options"`
		Default any          `json:"default"`
	}

	recordJSON struct {
		MacroGroup string              `json:"macroGroup"`
		SubGroup   string              `json:"subGroup"`
		Agency     string              `json:"agency"`
		Values     map[string]*float64 `json:"values"`
	}
)

func toChoicesJSON(c core.ChoiceSet, def any) choicesJSON {
	out := choicesJSON{Level: c.Level.String(), Default: def}
	for _, o := range c.Options {
		out.Options = append(out.Options, optionJSON{Value: o.Value.String(), Label: o.Label})
	}
	return out
}

func (s *Server) handleSubGroupChoices(w http.ResponseWriter, r *http.Request) {
	sel := filter.Normalize(s.ds, core.FilterSelection{
		MacroGroup: core.ParseSelection(sanitizeInput(r.URL.Query().Get(ParamMacroGroup))),
	})
	u := filter.SubGroupChoices(s.ds, sel.MacroGroup)
	writeJSON(w, r, http.StatusOK, toChoicesJSON(u.Choices, u.Default.String()))
}

func (s *Server) handleAgencyChoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel := filter.Normalize(s.ds, core.FilterSelection{
		MacroGroup: core.ParseSelection(sanitizeInput(q.Get(ParamMacroGroup))),
		SubGroup:   core.ParseSelection(sanitizeInput(q.Get(ParamSubGroup))),
	})
	u := filter.AgencyChoices(s.ds, sel.MacroGroup, sel.SubGroup)
	writeJSON(w, r, http.StatusOK, toChoicesJSON(u.Choices, []string{}))
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	u := s.current(r)
	out := make([]recordJSON, 0, len(u.Records))
	for _, rec := range u.Records {
		values := make(map[string]*float64, len(core.Metrics))
		for _, m := range core.Metrics {
			if v, ok := rec.Value(m); ok {
				values[string(m)] = &v
			} else {
				values[string(m)] = nil
			}
		}
		out = append(out, recordJSON{MacroGroup: rec.MacroGroup, SubGroup: rec.SubGroup, Agency: rec.Agency, Values: values})
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleChartSVG renders the chart server-side. Identical normalized states
// share one cache entry and concurrent misses render once.
func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	u := s.current(r)
	key := EncodeState(u.State).Encode()

	svg, hit, err := s.svgCache.GetOrLoad(key, func() ([]byte, error) {
		return render.SVGBytes(chart.Project(u.Records, u.State.Metrics, s.labels), render.Options{})
	})
	if err != nil {
		s.events.LogError(r.Context(), "Chart render failed", err, applog.ComponentRender, applog.OpRender,
			applog.NewFields().WithRequestID(trace.GetRequestID(r.Context())))
		InternalServerError("Erro ao desenhar o gráfico").Write(w)
		return
	}
	s.logger.DebugContext(r.Context(), "Chart served", applog.FieldCacheHit, hit, applog.FieldRows, len(u.Records))

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "private, max-age=60")
	_, _ = w.Write(svg)
}
