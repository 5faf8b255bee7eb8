// Package grafana executes PromQL queries through the Grafana datasource proxy.
package grafana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nlmetrics/nlmetrics/internal/errors"
)

// DefaultTimeout bounds each backend query; there is no retry layer, a
// timed-out call fails the turn.
const DefaultTimeout = 10 * time.Second

// QueryResult is one normalized sample: the instantaneous value of a series
type QueryResult struct {
	Labels    map[string]string `json:"labels"`
	Timestamp float64           `json:"timestamp"`
	Value     float64           `json:"value"`
}

// queryResponse mirrors the Prometheus query API payload proxied by Grafana
type queryResponse struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string `json:"resultType"`
		Result     []struct {
			Metric map[string]string `json:"metric"`
			Value  []interface{}     `json:"value"`
		} `json:"result"`
	} `json:"data"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
}

// Client is an HTTP client for the Grafana datasource proxy query endpoint
type Client struct {
	baseURL      string
	apiKey       string
	datasourceID int
	httpClient   *http.Client
}

// NewClient creates a new Grafana client
func NewClient(baseURL, apiKey string, datasourceID int, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if datasourceID <= 0 {
		datasourceID = 1
	}

	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       apiKey,
		datasourceID: datasourceID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Execute runs an instant query and normalizes the response into one
// QueryResult per series, keeping only the first value pair. An empty backend
// result set yields an empty slice, not an error.
func (c *Client) Execute(ctx context.Context, promql string) ([]QueryResult, error) {
	if c.apiKey == "" {
		return nil, errors.NewBackendUnauthorizedError()
	}

	params := url.Values{}
	params.Set("query", promql)

	reqURL := fmt.Sprintf("%s/api/datasources/proxy/%d/api/v1/query?%s",
		c.baseURL, c.datasourceID, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.NewBackendUnreachableError(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewBackendUnreachableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewBackendUnreachableError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewBackendHTTPError(resp.StatusCode, string(body))
	}

	var queryResp queryResponse
	if err := json.Unmarshal(body, &queryResp); err != nil {
		return nil, errors.NewBackendResponseMalformedError(err)
	}

	if queryResp.Status != "" && queryResp.Status != "success" {
		return nil, errors.NewBackendHTTPError(resp.StatusCode,
			fmt.Sprintf("%s: %s", queryResp.ErrorType, queryResp.Error))
	}

	results := make([]QueryResult, 0, len(queryResp.Data.Result))
	for _, series := range queryResp.Data.Result {
		if len(series.Value) < 2 {
			continue
		}

		ts, ok := series.Value[0].(float64)
		if !ok {
			return nil, errors.NewBackendResponseMalformedError(
				fmt.Errorf("unexpected timestamp type %T", series.Value[0]))
		}

		valStr, ok := series.Value[1].(string)
		if !ok {
			return nil, errors.NewBackendResponseMalformedError(
				fmt.Errorf("unexpected value type %T", series.Value[1]))
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return nil, errors.NewBackendResponseMalformedError(err)
		}

		labels := series.Metric
		if labels == nil {
			labels = map[string]string{}
		}

		results = append(results, QueryResult{
			Labels:    labels,
			Timestamp: ts,
			Value:     val,
		})
	}

	return results, nil
}

// TestConnection verifies connectivity by executing a trivial query
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Execute(ctx, "up")
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}
