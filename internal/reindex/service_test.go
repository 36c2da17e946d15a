package reindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isolele/isolele-backend/pkg/config"
	"github.com/isolele/isolele-backend/pkg/logger"
	"github.com/isolele/isolele-backend/pkg/metrics"
)

type recorder struct {
	mu       sync.Mutex
	order    []string
	sitemaps []string
	indexNow indexNowPayload
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

func newEngines(t *testing.T, bingStatus int) (*recorder, *httptest.Server) {
	t.Helper()
	rec := &recorder{}
	mux := http.NewServeMux()
	mux.HandleFunc("/google/ping", func(w http.ResponseWriter, r *http.Request) {
		rec.record("google")
		rec.sitemaps = append(rec.sitemaps, r.URL.Query().Get("sitemap"))
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/bing/ping", func(w http.ResponseWriter, r *http.Request) {
		rec.record("bing")
		w.WriteHeader(bingStatus)
		_, _ = w.Write([]byte("gone"))
	})
	mux.HandleFunc("/indexnow", func(w http.ResponseWriter, r *http.Request) {
		rec.record("indexnow")
		assert.Equal(t, http.MethodPost, r.Method)
		_ = json.NewDecoder(r.Body).Decode(&rec.indexNow)
		w.WriteHeader(http.StatusAccepted)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return rec, srv
}

func testConfig(srv *httptest.Server, key string) config.ReindexConfig {
	return config.ReindexConfig{
		SitemapPath:   "/sitemap.xml",
		Pages:         []string{"/", "/comics"},
		Locales:       []string{"en", "fr"},
		IndexNowKey:   key,
		GooglePingURL: srv.URL + "/google/ping",
		BingPingURL:   srv.URL + "/bing/ping",
		IndexNowURL:   srv.URL + "/indexnow",
	}
}

func TestPageURLs(t *testing.T) {
	urls, err := PageURLs("https://isolele.com/", []string{"/", "about/"}, []string{"en", "fr"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://isolele.com/en",
		"https://isolele.com/fr",
		"https://isolele.com/en/about",
		"https://isolele.com/fr/about",
	}, urls)

	_, err = PageURLs("isolele.com", []string{"/"}, []string{"en"})
	assert.Error(t, err)
}

func TestRunReportsEveryServiceEvenWhenOneFails(t *testing.T) {
	rec, srv := newEngines(t, http.StatusGone)
	reg := prometheus.NewRegistry()
	m := metrics.NewReindexMetrics(reg)

	svc, err := NewService(config.AppConfig{PublicBaseURL: "https://isolele.com"}, testConfig(srv, "abc123"), logger.Nop(), m, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Equal(t, []string{"google", "bing", "indexnow"}, rec.order)

	assert.Equal(t, ServiceResult{Service: ServiceGoogle, OK: true, Status: 200}, report.Results[0])
	assert.False(t, report.Results[1].OK)
	assert.Equal(t, http.StatusGone, report.Results[1].Status)
	assert.Contains(t, report.Results[1].Error, "gone")
	assert.True(t, report.Results[2].OK)
	assert.False(t, report.AllOK())

	assert.Equal(t, []string{"https://isolele.com/sitemap.xml"}, rec.sitemaps)
	assert.Equal(t, "isolele.com", rec.indexNow.Host)
	assert.Equal(t, "https://isolele.com/abc123.txt", rec.indexNow.KeyLocation)
	assert.Len(t, rec.indexNow.URLList, 4)
	assert.Equal(t, report.URLs, rec.indexNow.URLList)

	assert.Equal(t, 1.0, pingCount(t, reg, "google", "success"))
	assert.Equal(t, 1.0, pingCount(t, reg, "bing", "failure"))
	assert.Equal(t, 1.0, pingCount(t, reg, "indexnow", "success"))
}

func TestRunWithoutIndexNowKeySkipsSubmission(t *testing.T) {
	rec, srv := newEngines(t, http.StatusOK)
	svc, err := NewService(config.AppConfig{PublicBaseURL: "https://isolele.com"}, testConfig(srv, ""), logger.Nop(), nil, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.True(t, report.Results[0].OK)
	assert.True(t, report.Results[1].OK)
	assert.False(t, report.Results[2].OK)
	assert.Contains(t, report.Results[2].Error, "not configured")
	assert.Equal(t, []string{"google", "bing"}, rec.order)
}

func TestRunUnreachableEngineIsCaptured(t *testing.T) {
	_, srv := newEngines(t, http.StatusOK)
	cfg := testConfig(srv, "abc123")
	cfg.GooglePingURL = "http://127.0.0.1:1/ping"

	svc, err := NewService(config.AppConfig{PublicBaseURL: "https://isolele.com"}, cfg, logger.Nop(), nil, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Results[0].OK)
	assert.Zero(t, report.Results[0].Status)
	assert.NotEmpty(t, report.Results[0].Error)
	assert.True(t, report.Results[1].OK)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	_, srv := newEngines(t, http.StatusOK)
	svc, err := NewService(config.AppConfig{PublicBaseURL: "https://isolele.com"}, testConfig(srv, "k"), logger.Nop(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func pingCount(t *testing.T, reg *prometheus.Registry, service, result string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "isolele_reindex_pings_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["service"] == service && labels["result"] == result {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}
