package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"pfline/internal/model"
)

// GridStatusClient fetches LMP data from the GridStatus API.
type GridStatusClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	// Cache is optional; nil disables caching.
	Cache  *ResponseCache
	Logger *zap.Logger
}

// NewGridStatusClient creates a client. An empty baseURL means
// "https://api.gridstatus.io"; a nil logger discards output.
func NewGridStatusClient(apiKey, baseURL string, logger *zap.Logger) *GridStatusClient {
	if baseURL == "" {
		baseURL = "https://api.gridstatus.io"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridStatusClient{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		Logger: logger.Named("gridstatus"),
	}
}

// QueryLocationParams defines parameters for querying location data.
type QueryLocationParams struct {
	DatasetID  string    // e.g., "caiso_lmp_real_time_5_min"
	LocationID string    // e.g., "TH_NP15_GEN-APND"
	StartTime  time.Time // Start of time range
	EndTime    time.Time // End of time range
	Timezone   string    // e.g., "market", "UTC" (default: "market")
	Download   bool      // If true, sets download=true query param
}

// GridStatusError is an error reported by, or about, the GridStatus API.
type GridStatusError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
}

func (e *GridStatusError) Error() string {
	return e.Message
}

func (c *GridStatusClient) log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// QueryLocation fetches LMP data for one location.
func (c *GridStatusClient) QueryLocation(ctx context.Context, params QueryLocationParams) (*model.GridStatusLMPResponse, error) {
	if err := c.validateAPIKey(); err != nil {
		return nil, err
	}
	if params.DatasetID == "" {
		return nil, fmt.Errorf("dataset_id is required")
	}
	if params.LocationID == "" {
		return nil, fmt.Errorf("location_id is required")
	}
	if params.StartTime.IsZero() || params.EndTime.IsZero() {
		return nil, fmt.Errorf("start_time and end_time are required")
	}
	if params.StartTime.After(params.EndTime) {
		return nil, fmt.Errorf("start_time must be before end_time")
	}
	if params.Timezone == "" {
		params.Timezone = "market"
	}

	logger := c.log().With(
		zap.String("dataset", params.DatasetID),
		zap.String("location", params.LocationID),
		zap.String("start", params.StartTime.Format("2006-01-02")),
		zap.String("end", params.EndTime.Format("2006-01-02")),
	)

	cacheKey := GenerateCacheKey(params)
	if cached, found := c.Cache.Get(cacheKey); found {
		logger.Info("cache hit", zap.Int("intervals", len(cached.Data)))
		return cached, nil
	}

	// /v1/datasets/{dataset_id}/query/location/{location_id}
	path := fmt.Sprintf("/v1/datasets/%s/query/location/%s", url.PathEscape(params.DatasetID), url.PathEscape(params.LocationID))
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("start_time", params.StartTime.Format("2006-01-02"))
	q.Set("end_time", params.EndTime.Format("2006-01-02"))
	q.Set("timezone", params.Timezone)
	if params.Download {
		q.Set("download", "true")
	}
	u.RawQuery = q.Encode()

	logger.Debug("request", zap.String("path", u.Path), zap.String("timezone", params.Timezone))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Accept", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	began := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(began)
	if err != nil {
		logger.Warn("request failed", zap.Error(err), zap.Duration("duration", duration))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("response", zap.Int("status", resp.StatusCode), zap.Duration("duration", duration))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		logger.Warn("invalid API key or insufficient permissions")
		return nil, &GridStatusError{
			StatusCode: resp.StatusCode,
			Code:       "INVALID_API_KEY",
			Message:    "Invalid API key or insufficient permissions",
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		logger.Warn("rate limit exceeded", zap.String("retry_after", retryAfter))
		return nil, &GridStatusError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	case http.StatusUnauthorized:
		logger.Warn("unauthorized")
		return nil, &GridStatusError{
			StatusCode: resp.StatusCode,
			Code:       "UNAUTHORIZED",
			Message:    "Unauthorized: Invalid API key",
		}
	default:
		logger.Warn("unexpected status", zap.String("status_text", resp.Status))
		return nil, &GridStatusError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	var result model.GridStatusLMPResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Warn("decoding response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	logger.Info("received intervals", zap.Int("intervals", len(result.Data)))

	if c.Cache != nil {
		c.Cache.Set(cacheKey, &result)
	}
	return &result, nil
}

// validateAPIKey rejects missing and obviously malformed keys.
func (c *GridStatusClient) validateAPIKey() error {
	if c.APIKey == "" {
		return &GridStatusError{
			Code:    "MISSING_API_KEY",
			Message: "API key is required",
		}
	}
	if len(c.APIKey) < 10 {
		return &GridStatusError{
			Code:    "INVALID_API_KEY_FORMAT",
			Message: "API key appears to be invalid (too short)",
		}
	}
	return nil
}

// QueryLocationByString parses "YYYY-MM-DD" dates and queries in market time.
func (c *GridStatusClient) QueryLocationByString(ctx context.Context, datasetID, locationID, startDate, endDate string) (*model.GridStatusLMPResponse, error) {
	startTime, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date format (expected YYYY-MM-DD): %w", err)
	}
	endTime, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date format (expected YYYY-MM-DD): %w", err)
	}
	return c.QueryLocation(ctx, QueryLocationParams{
		DatasetID:  datasetID,
		LocationID: locationID,
		StartTime:  startTime,
		EndTime:    endTime,
		Timezone:   "market",
		Download:   true,
	})
}
