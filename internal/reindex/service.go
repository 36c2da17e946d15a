package reindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/isolele/isolele-backend/pkg/config"
	"github.com/isolele/isolele-backend/pkg/logger"
	"github.com/isolele/isolele-backend/pkg/metrics"
)

const (
	ServiceGoogle   = "google"
	ServiceBing     = "bing"
	ServiceIndexNow = "indexnow"

	responseBodyReadLimit int64 = 512
)

// ServiceResult is the outcome of one notification call.
type ServiceResult struct {
	Service string `json:"service"`
	OK      bool   `json:"ok"`
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Report is always complete: one entry per service, in call order.
type Report struct {
	Results     []ServiceResult `json:"results"`
	URLs        []string        `json:"urls"`
	SitemapURL  string          `json:"sitemap_url"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// AllOK reports whether every service accepted the notification.
func (r *Report) AllOK() bool {
	for _, res := range r.Results {
		if !res.OK {
			return false
		}
	}
	return true
}

type Service interface {
	Run(ctx context.Context) (*Report, error)
}

// Option configures optional service behavior.
type Option func(*service)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *service) {
		if client != nil {
			s.httpClient = client
		}
	}
}

type service struct {
	cfg        config.ReindexConfig
	baseURL    string
	httpClient *http.Client
	logg       *logger.Logger
	metrics    *metrics.ReindexMetrics
	now        func() time.Time
}

// NewService validates the configured endpoints up front so Run never fails on config.
func NewService(app config.AppConfig, cfg config.ReindexConfig, logg *logger.Logger, m *metrics.ReindexMetrics, opts ...Option) (Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if _, err := PageURLs(app.PublicBaseURL, cfg.Pages, cfg.Locales); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &service{
		cfg:        cfg,
		baseURL:    app.PublicBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logg:       logg,
		metrics:    m,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Run notifies each search engine in turn. A failing call never stops the next one;
// the returned error is reserved for a cancelled context.
func (s *service) Run(ctx context.Context) (*Report, error) {
	urls, err := PageURLs(s.baseURL, s.cfg.Pages, s.cfg.Locales)
	if err != nil {
		return nil, err
	}
	sitemap, err := SitemapURL(s.baseURL, s.cfg.SitemapPath)
	if err != nil {
		return nil, err
	}

	report := &Report{URLs: urls, SitemapURL: sitemap, SubmittedAt: s.now().UTC()}
	calls := []struct {
		name string
		fn   func(context.Context) (int, error)
	}{
		{ServiceGoogle, func(ctx context.Context) (int, error) { return s.ping(ctx, s.cfg.GooglePingURL, sitemap) }},
		{ServiceBing, func(ctx context.Context) (int, error) { return s.ping(ctx, s.cfg.BingPingURL, sitemap) }},
		{ServiceIndexNow, func(ctx context.Context) (int, error) { return s.submitIndexNow(ctx, urls) }},
	}
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		status, err := call.fn(ctx)
		res := ServiceResult{Service: call.name, Status: status, OK: err == nil}
		if err != nil {
			res.Error = err.Error()
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"service": call.name, "status": status, "error": err.Error()}), "reindex.ping_failed")
		}
		s.metrics.IncPing(call.name, res.OK)
		report.Results = append(report.Results, res)
	}
	s.logg.Info(s.logg.WithField(ctx, "urls", len(urls)), "reindex.completed")
	return report, nil
}

func (s *service) ping(ctx context.Context, endpoint, sitemap string) (int, error) {
	target, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || target.Host == "" {
		return 0, fmt.Errorf("ping endpoint %q is not configured", endpoint)
	}
	q := target.Query()
	q.Set("sitemap", sitemap)
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("build ping request: %w", err)
	}
	return s.do(req)
}

type indexNowPayload struct {
	Host        string   `json:"host"`
	Key         string   `json:"key"`
	KeyLocation string   `json:"keyLocation"`
	URLList     []string `json:"urlList"`
}

func (s *service) submitIndexNow(ctx context.Context, urls []string) (int, error) {
	key := strings.TrimSpace(s.cfg.IndexNowKey)
	if key == "" {
		return 0, fmt.Errorf("indexnow key is not configured")
	}
	root, err := parseBase(s.baseURL)
	if err != nil {
		return 0, err
	}
	body, err := json.Marshal(indexNowPayload{
		Host:        root.Host,
		Key:         key,
		KeyLocation: root.JoinPath(key + ".txt").String(),
		URLList:     urls,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal indexnow payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.IndexNowURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build indexnow request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return s.do(req)
}

func (s *service) do(req *http.Request) (int, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", req.Method, req.URL.Host, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, responseBodyReadLimit))
	return resp.StatusCode, nil
}
