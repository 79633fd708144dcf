package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-travel/internal/agent"
	"github.com/ilkoid/poncho-travel/internal/trip"
	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/ilkoid/poncho-travel/pkg/events"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakePlanner повторяет поведение Components.Plan без LLM.
type fakePlanner struct {
	mu        sync.Mutex
	calls     int
	research  string
	itinerary string
	failure   *agent.StageFailure
}

func (p *fakePlanner) Plan(ctx context.Context, destination string, days int) (agent.Outcome, error) {
	req, err := trip.New(destination, days)
	if err != nil {
		return agent.Outcome{}, err
	}

	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	events.Emit(ctx, nil, events.New(events.EventStageStarted, events.StageData{Stage: "research", Message: agent.MsgResearching}))

	out := agent.Outcome{Request: req}
	if p.failure != nil {
		out.Failure = p.failure
	} else {
		out.Research = &trip.ResearchResult{Content: p.research}
		out.Itinerary = &trip.Itinerary{Content: p.itinerary}
	}
	events.Emit(ctx, nil, events.New(events.EventDone, events.DoneData{OK: out.OK(), Notice: out.Notice()}))
	return out, nil
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }
	}
	r, err := NewRouter(deps)
	require.NoError(t, err)
	return r
}

func okPlanner() *fakePlanner {
	return &fakePlanner{research: "Eiffel Tower tour; Louvre visit", itinerary: "Day 1: Eiffel Tower"}
}

func TestNewRouter_RequiresPlanner(t *testing.T) {
	_, err := NewRouter(Deps{})
	assert.Error(t, err)
}

func TestIndex_RendersForm(t *testing.T) {
	r := newTestRouter(t, Deps{Planner: okPlanner(), Model: "gemini-2.5-flash"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Where do you want to go?")
	assert.Contains(t, body, `min="1" max="30" value="7"`)
	assert.Contains(t, body, "Generate Itinerary")
	// Кнопка выключена, пока направление пустое
	assert.Contains(t, body, `id="generate" disabled`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestBlockedMode(t *testing.T) {
	credErr := &config.CredentialError{Var: "SERPAPI_API_KEY"}
	r := newTestRouter(t, Deps{ConfigErr: credErr})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please set your SERPAPI_API_KEY environment variable.")
	assert.NotContains(t, w.Body.String(), "Generate Itinerary")

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/plan", strings.NewReader("destination=Paris")),
		httptest.NewRequest(http.MethodPost, "/api/plan", strings.NewReader(`{"destination":"Paris"}`)),
		httptest.NewRequest(http.MethodGet, "/api/plan/stream?destination=Paris", nil),
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, req.URL.Path)
		assert.Contains(t, w.Body.String(), "SERPAPI_API_KEY", req.URL.Path)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Contains(t, w.Body.String(), `"status":"blocked"`)
}

func postForm(r http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPlanForm_Success(t *testing.T) {
	planner := okPlanner()
	r := newTestRouter(t, Deps{Planner: planner})

	w := postForm(r, "/plan", url.Values{"destination": {"Paris"}, "days": {"5"}})

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "✓ Research completed")
	assert.Contains(t, body, "Day 1: Eiffel Tower")
	assert.Contains(t, body, `value="5"`)
	assert.Equal(t, 1, planner.calls)
}

func TestPlanForm_ClampsDays(t *testing.T) {
	r := newTestRouter(t, Deps{Planner: okPlanner()})

	w := postForm(r, "/plan", url.Values{"destination": {"Rome"}, "days": {"99"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="30"`)
}

func TestPlanForm_EmptyDestination(t *testing.T) {
	planner := okPlanner()
	r := newTestRouter(t, Deps{Planner: planner})

	w := postForm(r, "/plan", url.Values{"destination": {"  "}, "days": {"5"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, planner.calls)
}

func TestPlanForm_ResearchFailure(t *testing.T) {
	planner := &fakePlanner{failure: &agent.StageFailure{Stage: agent.StageResearch, Err: errors.New("connection refused")}}
	r := newTestRouter(t, Deps{Planner: planner})

	w := postForm(r, "/plan", url.Values{"destination": {"Tokyo"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Research failed: connection refused")
	assert.NotContains(t, w.Body.String(), "✓ Research completed")
}

func TestPlanJSON(t *testing.T) {
	tests := []struct {
		name       string
		planner    *fakePlanner
		body       string
		wantStatus int
		check      func(t *testing.T, resp map[string]any)
	}{
		{
			name:       "success",
			planner:    okPlanner(),
			body:       `{"destination":"Paris","days":5}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp map[string]any) {
				assert.Equal(t, "Day 1: Eiffel Tower", resp["itinerary"])
				assert.Equal(t, true, resp["research_completed"])
				assert.NotEmpty(t, resp["request_id"])
			},
		},
		{
			name:       "planner failure",
			planner:    &fakePlanner{failure: &agent.StageFailure{Stage: agent.StagePlanning, Err: errors.New("quota")}},
			body:       `{"destination":"Paris"}`,
			wantStatus: http.StatusBadGateway,
			check: func(t *testing.T, resp map[string]any) {
				assert.Equal(t, "Planner failed: quota", resp["error"])
				assert.Equal(t, "planning", resp["stage"])
			},
		},
		{
			name:       "missing destination",
			planner:    okPlanner(),
			body:       `{"days":3}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "days out of range",
			planner:    okPlanner(),
			body:       `{"destination":"Paris","days":45}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "blank destination",
			planner:    okPlanner(),
			body:       `{"destination":"   "}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, Deps{Planner: tt.planner})
			req := httptest.NewRequest(http.MethodPost, "/api/plan", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.check != nil {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				tt.check(t, resp)
			}
		})
	}
}

func TestPlanStream(t *testing.T) {
	r := newTestRouter(t, Deps{Planner: okPlanner()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/plan/stream?destination=Paris&days=5", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	started := strings.Index(body, "event:stage_started")
	done := strings.Index(body, "event:done")
	result := strings.Index(body, "event:result")
	require.True(t, started >= 0 && done > started && result > done, body)
	assert.Contains(t, body, "Researching your destination...")
	assert.Contains(t, body, `"itinerary":"Day 1: Eiffel Tower"`)
}

func TestPlanStream_BadInput(t *testing.T) {
	r := newTestRouter(t, Deps{Planner: okPlanner()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/plan/stream?destination=&days=5", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/plan/stream?destination=Paris&days=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestItineraryPDF(t *testing.T) {
	r := newTestRouter(t, Deps{Planner: okPlanner()})

	body := `{"destination":"Paris","days":5,"itinerary":"# Paris\n\n**Day 1**: Eiffel Tower\n- Louvre"}`
	req := httptest.NewRequest(http.MethodPost, "/api/itinerary.pdf", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "itinerary-paris.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	// Без текста маршрута
	req = httptest.NewRequest(http.MethodPost, "/api/itinerary.pdf", strings.NewReader(`{"destination":"Paris"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, Deps{Planner: okPlanner(), Model: "gemini-2.5-flash", SearchProvider: "serpapi"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "gemini-2.5-flash", resp["model"])
	assert.Equal(t, "serpapi", resp["search_provider"])
}

func TestCORS(t *testing.T) {
	r := newTestRouter(t, Deps{Planner: okPlanner(), AllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID_Propagated(t *testing.T) {
	r := newTestRouter(t, Deps{Planner: okPlanner()})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestPdfFilename(t *testing.T) {
	assert.Equal(t, "itinerary-new-york-city.pdf", pdfFilename("New York City"))
	assert.Equal(t, "itinerary.pdf", pdfFilename("東京"))
}
