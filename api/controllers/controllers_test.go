package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/isolele/isolele-backend/api/middleware"
	"github.com/isolele/isolele-backend/internal/checkout"
	"github.com/isolele/isolele-backend/internal/reindex"
	"github.com/isolele/isolele-backend/internal/stats"
	"github.com/isolele/isolele-backend/pkg/config"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubStats struct {
	dashboard *stats.Dashboard
	err       error
}

func (s stubStats) Dashboard(context.Context) (*stats.Dashboard, error) { return s.dashboard, s.err }

type stubReindex struct {
	report *reindex.Report
	err    error
}

func (s stubReindex) Run(context.Context) (*reindex.Report, error) { return s.report, s.err }

type stubMachines struct{ err error }

func (s stubMachines) View(string) (checkout.View, error) { return checkout.View{}, s.err }

func (s stubMachines) Do(string, func(*checkout.Machine) error) (checkout.View, error) {
	return checkout.View{}, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
}

func decodeError(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&envelope))
	return envelope.Error.Code
}

func TestHealthLiveSetsEnvHeader(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "dev", resp.Header().Get(envHeader))
}

func TestHealthReadyReportsDownDependency(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	handler := HealthReady(cfg, testLogger(), map[string]Pinger{
		"db":    stubPinger{},
		"redis": stubPinger{err: errors.New("connection refused")},
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Equal(t, string(pkgerrors.CodeDependency), decodeError(t, resp.Body))
}

func TestHealthReadyAllUp(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "prod"}}
	handler := HealthReady(cfg, testLogger(), map[string]Pinger{"db": stubPinger{}, "redis": stubPinger{}})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, "ready", envelope.Data.Status)
	require.Equal(t, map[string]string{"db": "up", "redis": "up"}, envelope.Data.Checks)
}

func TestAdminDashboard(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	handler := AdminDashboard(stubStats{dashboard: &stats.Dashboard{
		Counts:      map[string]int64{"products": 4, "orders_pending": 1},
		GeneratedAt: now,
	}}, testLogger())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data stats.Dashboard `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, int64(4), envelope.Data.Counts["products"])
	require.True(t, envelope.Data.GeneratedAt.Equal(now))
}

func TestAdminDashboardPropagatesError(t *testing.T) {
	handler := AdminDashboard(stubStats{err: pkgerrors.New(pkgerrors.CodeDependency, "count failed")}, testLogger())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestAdminReindexReturnsPartialFailuresAsReport(t *testing.T) {
	report := &reindex.Report{Results: []reindex.ServiceResult{
		{Service: "google", OK: true, Status: http.StatusOK},
		{Service: "bing", OK: false, Status: http.StatusBadGateway, Error: "bad gateway"},
	}}
	handler := AdminReindex(stubReindex{report: report}, testLogger())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/reindex", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data reindex.Report `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Len(t, envelope.Data.Results, 2)
	require.False(t, envelope.Data.Results[1].OK)
}

func TestAdminReindexInterrupted(t *testing.T) {
	handler := AdminReindex(stubReindex{err: context.DeadlineExceeded}, testLogger())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/reindex", nil))

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestCheckoutRequiresCartToken(t *testing.T) {
	resp := httptest.NewRecorder()
	CheckoutGet(stubMachines{}, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/checkout", nil))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, resp.Body))
}

func TestCheckoutMachineLookupFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/checkout/open", nil)
	req = req.WithContext(middleware.WithCartToken(req.Context(), "6f1c9a52-5a0e-4b55-9b43-0a3a1ef0b2a4"))

	resp := httptest.NewRecorder()
	CheckoutOpen(stubMachines{err: pkgerrors.New(pkgerrors.CodeInternal, "registry closed")}, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
}
