package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goodnatureofminers/cveledger-backend/internal/ledger"
	"github.com/goodnatureofminers/cveledger-backend/internal/model"
	"github.com/goodnatureofminers/cveledger-backend/internal/service"
)

const requestTimeout = 5 * time.Minute

type apiClient struct {
	base string
	hc   *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: requestTimeout},
	}
}

type chainResponse struct {
	Status ledger.Status `json:"status"`
	Blocks []struct {
		Index     uint64 `json:"index"`
		Timestamp int64  `json:"timestamp"`
		Hash      string `json:"hash"`
		PrevHash  string `json:"previous_hash"`
		Nonce     uint64 `json:"nonce"`
		Records   int    `json:"record_count"`
	} `json:"blocks"`
}

type listResponse struct {
	Count int            `json:"count"`
	CVEs  []model.Record `json:"cves"`
}

type mineResponse struct {
	Message string        `json:"message"`
	Block   *ledger.Block `json:"block"`
}

type searchResponse struct {
	CVE    model.Record `json:"cve"`
	Staged bool         `json:"staged"`
}

type validateResponse struct {
	Valid bool   `json:"is_valid"`
	Error string `json:"error"`
}

func (c *apiClient) chain(ctx context.Context) (chainResponse, error) {
	var out chainResponse
	err := c.do(ctx, http.MethodGet, "/chain", nil, &out)
	return out, err
}

func (c *apiClient) list(ctx context.Context, severity, source string) (listResponse, error) {
	q := url.Values{}
	if severity != "" {
		q.Set("severity", strings.ToUpper(severity))
	}
	if source != "" {
		q.Set("source", source)
	}
	path := "/cves"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out listResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *apiClient) pending(ctx context.Context) (listResponse, error) {
	var out listResponse
	err := c.do(ctx, http.MethodGet, "/pending", nil, &out)
	return out, err
}

func (c *apiClient) get(ctx context.Context, id string) (model.Record, error) {
	var out model.Record
	err := c.do(ctx, http.MethodGet, "/cves/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *apiClient) report(ctx context.Context, record model.Record) error {
	return c.do(ctx, http.MethodPost, "/report", record, nil)
}

func (c *apiClient) mine(ctx context.Context, maxBatch int) (mineResponse, error) {
	path := "/mine"
	if maxBatch > 0 {
		path = fmt.Sprintf("/mine?max=%d", maxBatch)
	}
	var out mineResponse
	err := c.do(ctx, http.MethodPost, path, nil, &out)
	return out, err
}

func (c *apiClient) sync(ctx context.Context, days int) (service.SyncReport, error) {
	path := "/sync"
	if days > 0 {
		path = fmt.Sprintf("/sync?days=%d", days)
	}
	var out service.SyncReport
	err := c.do(ctx, http.MethodPost, path, nil, &out)
	return out, err
}

func (c *apiClient) search(ctx context.Context, id string) (searchResponse, error) {
	var out searchResponse
	err := c.do(ctx, http.MethodGet, "/search?cve_id="+url.QueryEscape(id), nil, &out)
	return out, err
}

func (c *apiClient) validate(ctx context.Context) (validateResponse, error) {
	var out validateResponse
	err := c.do(ctx, http.MethodGet, "/validate", nil, &out)
	return out, err
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
