// Package nvd fetches vulnerability records from the NVD CVE API 2.0 and
// reshapes them into the domain model.
package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/cveledger-backend/internal/model"
	"github.com/goodnatureofminers/cveledger-backend/pkg/workerpool"
)

// DefaultBaseURL is the public NVD CVE API 2.0 endpoint.
const DefaultBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

// NVD expects this exact timestamp layout in date range parameters.
const dateLayout = "2006-01-02T15:04:05.000"

const (
	defaultPageSize = 200
	defaultWorkers  = 3
	// Without an API key NVD allows 5 requests per 30 seconds; one
	// request per 7 seconds stays under it with margin.
	unauthenticatedInterval = 7 * time.Second
)

// Config carries the tunables of a Client. Zero values select defaults.
type Config struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Workers  int
	Timeout  time.Duration
	// RequestInterval overrides the pacing between API calls; zero
	// selects the default for the authentication mode.
	RequestInterval time.Duration
}

// Client is a rate-limited NVD API client. Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	workers    int
	httpClient *http.Client
	limiter    ratelimit.Limiter
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient builds a Client. Unauthenticated clients are paced well below
// the published NVD rate limit; with an API key one request per second is
// allowed.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	interval := cfg.RequestInterval
	if interval <= 0 {
		interval = time.Second // one per second with an API key
		if cfg.APIKey == "" {
			interval = unauthenticatedInterval
		}
	}
	limiter := ratelimit.New(1, ratelimit.Per(interval))
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		pageSize:   cfg.PageSize,
		workers:    cfg.Workers,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		logger:     logger,
		now:        time.Now,
	}
}

// Recent fetches every CVE published in the last days days, following NVD
// pagination. Results keep the API's page order.
func (c *Client) Recent(ctx context.Context, days int) ([]model.Record, error) {
	if days < 1 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	end := c.now().UTC()
	start := end.AddDate(0, 0, -days)

	base := url.Values{}
	base.Set("pubStartDate", start.Format(dateLayout))
	base.Set("pubEndDate", end.Format(dateLayout))
	base.Set("resultsPerPage", strconv.Itoa(c.pageSize))

	first, err := c.fetchPage(ctx, base, 0)
	if err != nil {
		return nil, err
	}
	total := first.TotalResults
	c.logger.Info("nvd window fetched",
		zap.Int("days", days),
		zap.Int("total", total),
		zap.Int("page_size", c.pageSize))

	pages := [][]vulnerability{first.Vulnerabilities}
	if total > c.pageSize {
		extra := (total - 1) / c.pageSize // pages beyond the first
		pages = append(pages, make([][]vulnerability, extra)...)

		offsets := make([]int, 0, extra)
		for p := 1; p <= extra; p++ {
			offsets = append(offsets, p)
		}
		var mu sync.Mutex
		err = workerpool.Process(ctx, c.workers, offsets, func(ctx context.Context, page int) error {
			resp, err := c.fetchPage(ctx, base, page*c.pageSize)
			if err != nil {
				return err
			}
			mu.Lock()
			pages[page] = resp.Vulnerabilities
			mu.Unlock()
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	fetchedAt := c.now().UTC()
	var records []model.Record
	for _, page := range pages {
		for _, v := range page {
			records = append(records, extractRecord(v.CVE, fetchedAt))
		}
	}
	return records, nil
}

// SearchByID looks a single CVE up. A nil record with nil error means the
// id is unknown to NVD.
func (c *Client) SearchByID(ctx context.Context, id string) (*model.Record, error) {
	params := url.Values{}
	params.Set("cveId", id)
	resp, err := c.fetchPage(ctx, params, -1)
	if err != nil {
		return nil, err
	}
	if len(resp.Vulnerabilities) == 0 {
		return nil, nil
	}
	r := extractRecord(resp.Vulnerabilities[0].CVE, c.now().UTC())
	return &r, nil
}

func (c *Client) fetchPage(ctx context.Context, base url.Values, startIndex int) (*apiResponse, error) {
	c.limiter.Take()

	params := url.Values{}
	for k, vs := range base {
		params[k] = vs
	}
	if startIndex >= 0 {
		params.Set("startIndex", strconv.Itoa(startIndex))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build nvd request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("apiKey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nvd request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nvd returned status %d", resp.StatusCode)
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode nvd response: %w", err)
	}
	return &out, nil
}
