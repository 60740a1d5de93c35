package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"loadash/internal/chart"
	"loadash/internal/core"
	applog "loadash/internal/log"
)

func testDataset(t *testing.T) *core.Dataset {
	t.Helper()
	cols := core.DefaultColumns()
	header := []string{cols.MacroGroup, cols.SubGroup, cols.Agency}
	for _, m := range core.SourceMetrics {
		header = append(header, cols.Header(m))
	}
	ds, err := core.Derive(core.RawTable{
		Header: header,
		Rows: [][]string{
			{"Saúde", "Hospitais", "Hospital A", "1000", "250", "1200", "300", "200", "50", "20%", "20%"},
			{"Saúde", "Hospitais", "Hospital B", "0", "0", "0", "0", "0", "0", "", ""},
			{"Educação", "Ensino", "Escola X", "5000", "100", "5000", "100", "0", "0", "0%", "0%"},
		},
	}, cols)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	return ds
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(Options{
		Addr:    ":0",
		Dataset: testDataset(t),
		Source:  "memory",
		Footer:  "Documentos fonte: LOA 2025 e LOA 2026.",
		Logger:  applog.New(applog.Config{Component: applog.ComponentHTTP, Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv, "/")
	if rr.Code != 200 {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Comparativo de Orçamento &amp; Investimento",
		"Documentos fonte",
		`<option value="" selected>Todos</option>`,
		`<option value="budget2025" selected>Orçamento 2025</option>`,
		`<option value="investmentPct2025">% Investimento 2025</option>`,
		"Hospital A",
		"/chart.svg?",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers not applied")
	}

	for _, path := range []string{"/healthz", "/readyz", "/static/app.css"} {
		if rr := get(t, srv, path); rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestIndexKeepsQueryState(t *testing.T) {
	srv := newTestServer(t)
	rr := get(t, srv, "/?macro=Sa%C3%BAde&agency=Hospital+B&metrics_set=1&metric=investment2026")
	body := rr.Body.String()
	if !strings.Contains(body, `<option value="Saúde" selected>Saúde</option>`) {
		t.Error("macro selection not rendered")
	}
	if !strings.Contains(body, `<option value="Hospital B" selected>Hospital B</option>`) {
		t.Error("agency selection not rendered")
	}
	if strings.Contains(body, "Escola X") {
		t.Error("agencies outside the macro group must not be offered")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/ui/filters", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if rr.Header().Get("Allow") != http.MethodGet {
		t.Errorf("Allow = %q", rr.Header().Get("Allow"))
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/ui/filters", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}
}

func TestFiltersRejectsUnknownEvent(t *testing.T) {
	srv := newTestServer(t)
	rr := get(t, srv, "/ui/filters?event=explode&macro=Sa%C3%BAde")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Evento desconhecido: explode") {
		t.Errorf("body = %s", rr.Body.String())
	}

	for _, ev := range []string{"", "load", "metrics"} {
		if rr := get(t, srv, "/ui/filters?event="+ev); rr.Code != 200 {
			t.Errorf("event %q: status=%d", ev, rr.Code)
		}
	}
}

func TestRenderErrorIsLogged(t *testing.T) {
	var logs bytes.Buffer
	srv, err := NewServer(Options{
		Dataset: testDataset(t),
		Logger:  applog.New(applog.Config{Component: applog.ComponentHTTP, Format: "json", Output: &logs}),
	})
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	srv.renderError(rr, httptest.NewRequest(http.MethodGet, "/ui/filters", nil), errors.New("template boom"))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}

	var entry map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if e["msg"] == "Partial template execution failed" {
			entry = e
		}
	}
	if entry == nil {
		t.Fatalf("render error not logged:\n%s", logs.String())
	}
	if entry["component"] != applog.ComponentTemplate || entry["error"] != "template boom" || entry["operation"] != applog.OpRender {
		t.Errorf("unexpected log entry %v", entry)
	}
}

func TestFiltersPartial(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		query      string
		wantOOB    []string
		notOOB     []string
		wantReset  string
		wantInBody []string
	}{
		{
			name:       "macro change resets subgroup and agency",
			query:      "event=macro&macro=Sa%C3%BAde&subgroup=Ensino&agency=Escola+X&metrics_set=1&metric=investmentPct2025",
			wantOOB:    []string{`id="subgroup"`, `id="agency"`},
			notOOB:     []string{`id="macro"`},
			wantReset:  `"levels":["sub_group","agency"]`,
			wantInBody: []string{`id="chart"`, "Hospital A", "25%", "-"},
		},
		{
			name:      "subgroup change resets agency only",
			query:     "event=subgroup&macro=Sa%C3%BAde&subgroup=Hospitais&agency=Hospital+A",
			wantOOB:   []string{`id="agency"`},
			notOOB:    []string{`id="subgroup"`, `id="macro"`},
			wantReset: `"levels":["agency"]`,
		},
		{
			name:   "agency change only refilters",
			query:  "event=agency&macro=Sa%C3%BAde&agency=Hospital+A",
			notOOB: []string{`id="subgroup"`, `id="agency"`, `id="macro"`},
		},
		{
			name:       "empty metric list shows placeholder",
			query:      "event=metrics&metrics_set=1",
			notOOB:     []string{`id="subgroup"`, `id="agency"`},
			wantInBody: []string{chart.NoDataTitle},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, srv, "/ui/filters?"+tt.query)
			if rr.Code != 200 {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			body := rr.Body.String()
			oob := oobElements(body)
			for _, id := range tt.wantOOB {
				if !strings.Contains(oob, id) {
					t.Errorf("expected out-of-band swap for %s", id)
				}
			}
			for _, id := range tt.notOOB {
				if strings.Contains(oob, id) {
					t.Errorf("unexpected out-of-band swap for %s", id)
				}
			}
			for _, want := range tt.wantInBody {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
			trigger := rr.Header().Get("HX-Trigger")
			if !strings.Contains(trigger, `"chart:updated"`) {
				t.Errorf("missing chart:updated trigger: %s", trigger)
			}
			if tt.wantReset != "" && !strings.Contains(trigger, tt.wantReset) {
				t.Errorf("trigger %s missing %s", trigger, tt.wantReset)
			}
		})
	}
}

// oobElements returns the opening tags marked for out-of-band swap.
func oobElements(body string) string {
	var out []string
	for _, tag := range strings.Split(body, "<select")[1:] {
		open := tag[:strings.Index(tag, ">")]
		if strings.Contains(open, "hx-swap-oob") {
			out = append(out, open)
		}
	}
	return strings.Join(out, "\n")
}

func TestChartSpecScenario(t *testing.T) {
	srv := newTestServer(t)
	rr := get(t, srv, "/api/chart?macro=Sa%C3%BAde&metric=investmentPct2025")
	if rr.Code != 200 {
		t.Fatalf("status=%d", rr.Code)
	}
	var spec chart.Spec
	if err := json.Unmarshal(rr.Body.Bytes(), &spec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(spec.Categories) != 2 || spec.Categories[0] != "Hospital B" || spec.Categories[1] != "Hospital A" {
		t.Fatalf("categories = %v", spec.Categories)
	}
	if v, ok := spec.Value(0, 0); ok {
		t.Errorf("Hospital B share should be missing, got %v", v)
	}
	if v, ok := spec.Value(0, 1); !ok || v != 25 {
		t.Errorf("Hospital A share = %v (%v), want 25", v, ok)
	}
	if spec.Series[0].Name != "% Investimento 2025" || spec.Orientation != chart.Horizontal {
		t.Errorf("unexpected spec %+v", spec)
	}
	if !strings.Contains(rr.Body.String(), `"value":null`) {
		t.Error("missing values must encode as null")
	}
}

func TestChartSpecPlaceholder(t *testing.T) {
	srv := newTestServer(t)
	var spec chart.Spec
	rr := get(t, srv, "/api/chart?metrics_set=1&metric=unknownMetric")
	if err := json.Unmarshal(rr.Body.Bytes(), &spec); err != nil {
		t.Fatal(err)
	}
	if !spec.Placeholder || spec.Title != chart.NoDataTitle || len(spec.Series) != 0 {
		t.Errorf("expected placeholder, got %+v", spec)
	}
}

func TestChoicesEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var subs choicesJSON
	rr := get(t, srv, "/api/choices/subgroups?macro="+url.QueryEscape("Saúde"))
	if err := json.Unmarshal(rr.Body.Bytes(), &subs); err != nil {
		t.Fatal(err)
	}
	if subs.Level != "sub_group" || len(subs.Options) != 2 || subs.Options[0].Value != "" || subs.Options[1].Value != "Hospitais" {
		t.Errorf("subgroups = %+v", subs)
	}

	var ags choicesJSON
	rr = get(t, srv, "/api/choices/agencies?macro=Educa%C3%A7%C3%A3o&subgroup=Hospitais")
	if err := json.Unmarshal(rr.Body.Bytes(), &ags); err != nil {
		t.Fatal(err)
	}
	// Hospitais is not under Educação, so it is clamped to ALL.
	if len(ags.Options) != 2 || ags.Options[1].Label != "Escola X" {
		t.Errorf("agencies = %+v", ags)
	}
}

func TestRecordsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	var recs []recordJSON
	rr := get(t, srv, "/api/records?agency=Hospital+B")
	if err := json.Unmarshal(rr.Body.Bytes(), &recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Agency != "Hospital B" {
		t.Fatalf("records = %+v", recs)
	}
	if recs[0].Values["investmentPct2025"] != nil {
		t.Error("zero budget share must be null")
	}
	if v := recs[0].Values["budget2025"]; v == nil || *v != 0 {
		t.Errorf("budget2025 = %v", v)
	}
}

func TestChartSVGIsCached(t *testing.T) {
	srv := newTestServer(t)
	target := "/chart.svg?macro=Sa%C3%BAde&metric=budget2025"

	for i := 0; i < 2; i++ {
		rr := get(t, srv, target)
		if rr.Code != 200 {
			t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
		}
		if rr.Header().Get("Content-Type") != "image/svg+xml" {
			t.Fatalf("content type %q", rr.Header().Get("Content-Type"))
		}
		if !strings.Contains(rr.Body.String(), "<svg") {
			t.Fatal("body is not svg")
		}
	}
	if st := srv.svgCache.Stats(); st.Hits != 1 || st.Size != 1 {
		t.Errorf("cache stats = %+v", st)
	}

	rr := get(t, srv, "/metrics")
	if !strings.Contains(rr.Body.String(), "loadash_chart_cache_hits_total 1") {
		t.Errorf("metrics missing cache hit:\n%s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "loadash_dataset_records 3") {
		t.Errorf("metrics missing dataset size:\n%s", rr.Body.String())
	}
}

func TestNewServerRequiresDataset(t *testing.T) {
	if _, err := NewServer(Options{}); err == nil {
		t.Fatal("expected error without dataset")
	}
}
