package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ThejanDulara/MMM-Reach/internal/catalog"
	"github.com/ThejanDulara/MMM-Reach/internal/config"
	"github.com/ThejanDulara/MMM-Reach/internal/history"
	"github.com/ThejanDulara/MMM-Reach/internal/portfolio"
)

type fakeAnalyzer struct {
	result *portfolio.Result
	err    error
	got    portfolio.Request
}

func (f *fakeAnalyzer) Run(_ context.Context, req portfolio.Request) (*portfolio.Result, error) {
	f.got = req
	return f.result, f.err
}

type fakeModels struct{}

func (fakeModels) Has(name string) bool { return name == "TV" || name == "Facebook" }

func (fakeModels) ChannelModels() map[string][]catalog.Entry {
	return map[string][]catalog.Entry{
		"TV": {
			{Name: "TV", Channel: "TV", Domain: catalog.Domain{MinSpend: 625000, MaxSpend: 125000000}, Sigma: 450},
			{Name: "TV 2+", Channel: "TV", Domain: catalog.Domain{MinSpend: 625000, MaxSpend: 125000000}, Sigma: 450},
		},
		"Facebook": {
			{Name: "FB 1+", Channel: "Facebook", Domain: catalog.Domain{MinSpend: 60000, MaxSpend: 17997000}, Sigma: 350, Aliases: []string{"Facebook"}},
		},
	}
}

type fakeRuns struct {
	recorded []portfolio.Request
	runs     []history.Run
	limit    int
	err      error
}

func (f *fakeRuns) Record(_ context.Context, req portfolio.Request, res *portfolio.Result) (*history.Run, error) {
	f.recorded = append(f.recorded, req)
	return &history.Run{ID: "run-1", Request: req, Result: *res}, f.err
}

func (f *fakeRuns) List(_ context.Context, limit int) ([]history.Run, error) {
	f.limit = limit
	return f.runs, f.err
}

func sampleResult() *portfolio.Result {
	return &portfolio.Result{
		Results: []portfolio.ChannelResult{
			{Channel: "TV", SelectedModel: "TV", TargetEfficiency: 50, Budget: 3000000, Reach: 40, BudgetShare: 75},
			{Channel: "Press", SelectedModel: "Press", TargetEfficiency: 20, Budget: 1000000, Reach: 10, BudgetShare: 25},
		},
		TotalBudget: 4000000,
		TotalReach:  50,
	}
}

const analyzeBody = `{"efficiencies":{"TV":50,"Facebook":40,"YouTube":60,"Radio":30,"Press":20},"models":{"TV":"TV 2+"}}`

func newTestHandler(deps Deps, cfg *Config) http.Handler {
	return NewHandler(zap.NewNop(), deps, cfg, "1.2.3")
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestLivenessAndHealth(t *testing.T) {
	h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{}}, nil)

	rr := do(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Backend is running")

	rr = do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = do(h, http.MethodGet, "/api/version", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"version":"1.2.3"}`, rr.Body.String())
}

func TestHandleAnalyzeSuccess(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleResult()}
	runs := &fakeRuns{}
	h := newTestHandler(Deps{Analyzer: analyzer, Runs: runs}, nil)

	rr := do(h, http.MethodPost, "/api/analyze", analyzeBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var got portfolio.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, *sampleResult(), got)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	assert.Contains(t, raw, "total_budget")
	assert.Contains(t, raw, "total_reach")
	first := raw["results"].([]interface{})[0].(map[string]interface{})
	for _, key := range []string{"channel", "selected_model", "target_efficiency", "budget", "reach", "budget_share"} {
		assert.Contains(t, first, key)
	}

	assert.Equal(t, 50.0, analyzer.got.Efficiencies["TV"])
	assert.Equal(t, "TV 2+", analyzer.got.Models["TV"])
	require.Len(t, runs.recorded, 1)
}

func TestHandleAnalyzeRecordFailureStillSucceeds(t *testing.T) {
	runs := &fakeRuns{err: errors.New("disk full")}
	h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{result: sampleResult()}, Runs: runs}, nil)

	rr := do(h, http.MethodPost, "/api/analyze", analyzeBody)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandleAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing efficiency",
			err:        &portfolio.ValidationError{Channel: "Radio"},
			body:       analyzeBody,
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing efficiency for 'Radio'",
		},
		{
			name:       "unknown model",
			err:        &portfolio.ValidationError{Channel: "TV", Model: "TV 99+"},
			body:       analyzeBody,
			wantStatus: http.StatusBadRequest,
			wantError:  "Unknown model 'TV 99+' for channel 'TV'",
		},
		{
			name:       "evaluation failure",
			err:        &portfolio.EvaluationError{Channel: "Press", Model: "Press", Err: errors.New("artifact unreadable")},
			body:       analyzeBody,
			wantStatus: http.StatusInternalServerError,
			wantError:  "artifact unreadable",
		},
		{
			name:       "malformed body",
			body:       `{"efficiencies":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "wrong value type",
			body:       `{"efficiencies":["TV"]}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := &fakeRuns{}
			h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{err: tt.err}, Runs: runs}, nil)

			rr := do(h, http.MethodPost, "/api/analyze", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, decodeError(t, rr), tt.wantError)
			assert.Empty(t, runs.recorded)
		})
	}
}

func TestHandleAnalyzeStringEfficiencies(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleResult()}
	h := newTestHandler(Deps{Analyzer: analyzer}, nil)

	body := `{"efficiencies":{"TV":"50","Facebook":"40","YouTube":" 60 ","Radio":"30","Press":20},"models":{"TV":"TV 2+"}}`
	rr := do(h, http.MethodPost, "/api/analyze", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Equal(t, map[string]float64{"TV": 50, "Facebook": 40, "YouTube": 60, "Radio": 30, "Press": 20},
		analyzer.got.Efficiencies)
	assert.Equal(t, "TV 2+", analyzer.got.Models["TV"])
}

// newValidatingRunner returns a real runner over a one-model catalog. Requests that
// fail validation never reach the catalog, so nothing is loaded from disk.
func newValidatingRunner(t *testing.T) *portfolio.Runner {
	t.Helper()
	cat, err := catalog.New(zap.NewNop(), config.CatalogConfig{
		ModelDir: t.TempDir(),
		Models: []config.ModelConfig{
			{Name: "TV", Channel: "TV", File: "tv.json", MinSpend: 625000, MaxSpend: 125000000},
		},
	})
	require.NoError(t, err)
	runner, err := portfolio.NewRunner(zap.NewNop(), cat, portfolio.Options{})
	require.NoError(t, err)
	return runner
}

func TestHandleAnalyzeValidationThroughRunner(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{
			name:      "non-numeric efficiency",
			body:      `{"efficiencies":{"TV":"50","Facebook":"high","YouTube":"60","Radio":"30","Press":"20"}}`,
			wantError: `Invalid efficiency for 'Facebook': "high" is not a number`,
		},
		{
			name:      "empty string efficiency",
			body:      `{"efficiencies":{"TV":"50","Facebook":"40","YouTube":"","Radio":"30","Press":"20"}}`,
			wantError: `Invalid efficiency for 'YouTube': "" is not a number`,
		},
		{
			name:      "null efficiency is missing",
			body:      `{"efficiencies":{"TV":null,"Facebook":"40","YouTube":"60","Radio":"30","Press":"20"}}`,
			wantError: "Missing efficiency for 'TV'",
		},
		{
			name:      "empty body",
			body:      "",
			wantError: "Missing efficiency for 'TV'",
		},
		{
			name:      "empty object",
			body:      `{}`,
			wantError: "Missing efficiency for 'TV'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(Deps{Analyzer: newValidatingRunner(t)}, nil)

			rr := do(h, http.MethodPost, "/api/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantError, decodeError(t, rr))
		})
	}
}

func TestHandleAnalyzeBodyTooLarge(t *testing.T) {
	h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{result: sampleResult()}}, &Config{MaxBodySize: 16})

	rr := do(h, http.MethodPost, "/api/analyze", analyzeBody)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Contains(t, decodeError(t, rr), "16 bytes")
}

func TestHandleAnalyzeMethodNotAllowed(t *testing.T) {
	h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{}}, nil)

	rr := do(h, http.MethodGet, "/api/analyze", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandleAnalyzeRateLimit(t *testing.T) {
	cfg := &Config{RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1}}
	h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{result: sampleResult()}}, cfg)

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/analyze", analyzeBody).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodPost, "/api/analyze", analyzeBody).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code, "only analyze is limited")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{}}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleModels(t *testing.T) {
	h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{}, Models: fakeModels{}}, nil)

	rr := do(h, http.MethodGet, "/api/models", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Channels []channelModels `json:"channels"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Channels, 5)

	tv := body.Channels[0]
	assert.Equal(t, "TV", tv.Channel)
	assert.Equal(t, "TV", tv.Default)
	require.Len(t, tv.Models, 2)
	assert.Equal(t, "TV 2+", tv.Models[1].Name)
	assert.Equal(t, 625000.0, tv.Models[1].Domain.MinSpend)

	fb := body.Channels[1]
	assert.Equal(t, "Facebook", fb.Default)
	assert.Equal(t, []string{"Facebook"}, fb.Models[0].Aliases)

	assert.Empty(t, body.Channels[4].Models)
	assert.Empty(t, body.Channels[4].Default)
}

func TestHandleModelsWithoutCatalog(t *testing.T) {
	h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{}}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(h, http.MethodGet, "/api/models", "").Code)
}

func TestHandleRuns(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{}}, nil)
		rr := do(h, http.MethodGet, "/api/runs", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "run history is disabled", decodeError(t, rr))
	})

	t.Run("default limit", func(t *testing.T) {
		runs := &fakeRuns{}
		h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{}, Runs: runs}, nil)
		rr := do(h, http.MethodGet, "/api/runs", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"runs":[]}`, rr.Body.String())
		assert.Equal(t, 20, runs.limit)
	})

	t.Run("explicit limit", func(t *testing.T) {
		runs := &fakeRuns{runs: []history.Run{{ID: "a"}, {ID: "b"}}}
		h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{}, Runs: runs}, nil)
		rr := do(h, http.MethodGet, "/api/runs?limit=2", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 2, runs.limit)

		var body struct {
			Runs []history.Run `json:"runs"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Len(t, body.Runs, 2)
		assert.Equal(t, "a", body.Runs[0].ID)
	})

	t.Run("invalid limit", func(t *testing.T) {
		h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{}, Runs: &fakeRuns{}}, nil)
		assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/runs?limit=-3", "").Code)
		assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/runs?limit=abc", "").Code)
	})
}

func TestServe_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	cfg := &Config{Address: fmt.Sprintf("127.0.0.1:%d", port), ShutdownTimeout: 5 * time.Second}
	h := newTestHandler(Deps{Analyzer: &fakeAnalyzer{}}, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- Serve(ctx, zap.NewNop(), cfg, h)
	}()

	var ready bool
	for i := 0; i < 50; i++ {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/healthz", port))
		if err == nil {
			resp.Body.Close()
			ready = resp.StatusCode == http.StatusOK
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, ready, "server did not become ready in time")

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
