// Supabase REST client. PostgREST conventions: RPCs are POSTs under
// /rest/v1/rpc/, table reads are GETs with query-string filters.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/mveldt/timeport/internal/models"
	"github.com/mveldt/timeport/internal/shared"
	"golang.org/x/oauth2"
)

const rpcReportFunction = "get_project_time_report"

// SupabaseClient makes authenticated requests against the backend REST API.
type SupabaseClient struct {
	baseURL    string
	httpClient *http.Client
}

// apiKeyTransport injects the service key as the apikey header PostgREST
// expects alongside the bearer token.
type apiKeyTransport struct {
	key  string
	next http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("apikey", t.key)
	return t.next.RoundTrip(clone)
}

// NewSupabaseClient creates a client for the given project URL and service
// key. A nil http client gets the default bearer+apikey stack built from
// [oauth2.StaticTokenSource].
func NewSupabaseClient(baseURL, key string, client *http.Client) *SupabaseClient {
	if client == nil {
		base := &http.Client{Transport: &apiKeyTransport{key: key, next: http.DefaultTransport}}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: key, TokenType: "Bearer"})
		client = oauth2.NewClient(ctx, src)
	}

	return &SupabaseClient{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// Rpc invokes a backend function with a JSON payload and decodes the row set
// it returns.
func (c *SupabaseClient) Rpc(ctx context.Context, fn string, payload any) (models.Table, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RPC payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/rpc/%s", c.baseURL, fn)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// Select reads rows from a table with the given PostgREST filters.
func (c *SupabaseClient) Select(ctx context.Context, table string, params url.Values) (models.Table, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req)
}

func (c *SupabaseClient) do(req *http.Request) (models.Table, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %d: %s", shared.ErrAPIRequest, req.URL.Path, resp.StatusCode, truncate(body, 200))
	}

	var table models.Table
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}

	return table, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// CallProjectReport implements [RPCCaller] over REST. Custom-range runs pass
// explicit date bounds; the named filters are resolved backend-side.
func (c *SupabaseClient) CallProjectReport(ctx context.Context, project string, filter models.DateFilter, startDate, endDate string) (models.Table, error) {
	payload := map[string]any{
		"target_project_name_param": project,
		"date_filter_param":         string(filter),
	}
	if filter == models.FilterCustomRange {
		payload["start_date_param"] = startDate
		payload["end_date_param"] = endDate
	}
	return c.Rpc(ctx, rpcReportFunction, payload)
}

// LookupCompany resolves a company by name, excluding soft-deleted rows.
func (c *SupabaseClient) LookupCompany(ctx context.Context, name string) (models.Row, error) {
	params := url.Values{}
	params.Set("select", "id,name")
	params.Set("name", "eq."+name)
	params.Set("deleted_at", "is.null")
	params.Set("limit", "1")

	rows, err := c.Select(ctx, "companies", params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q", shared.ErrCompanyNotFound, name)
	}
	return rows[0], nil
}

// FetchCompanyTable reads all active rows of a table scoped to one company.
func (c *SupabaseClient) FetchCompanyTable(ctx context.Context, table, companyID string) (models.Table, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("company_id", "eq."+companyID)
	params.Set("deleted_at", "is.null")

	return c.Select(ctx, table, params)
}
