// Package upstream talks to the registration backend and turns its loosely
// typed records into domain values.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/registrar/internal/domain/grading"
	"github.com/okian/registrar/internal/domain/schedule"
	"github.com/okian/registrar/pkg/logger"
	"github.com/okian/registrar/pkg/metrics"
	"github.com/okian/registrar/pkg/requestid"
)

const (
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 8 << 20

	endpointGrades        = "grades"
	endpointRegistrations = "registrations"
)

// Client is a read-only REST client for the backend. It never retries.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  logger.Logger
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		logger:  logger.Get().Named("upstream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// FetchGrades returns every grade record of studentID.
func (c *Client) FetchGrades(ctx context.Context, studentID string) ([]grading.GradeRecord, error) {
	raws, err := c.fetch(ctx, studentID, endpointGrades)
	if err != nil {
		return nil, err
	}
	return NormalizeGradeRecords(raws), nil
}

// FetchRegisteredSections returns the sections studentID is already
// registered in.
func (c *Client) FetchRegisteredSections(ctx context.Context, studentID string) ([]schedule.ScheduleItem, error) {
	raws, err := c.fetch(ctx, studentID, endpointRegistrations)
	if err != nil {
		return nil, err
	}
	return NormalizeSections(raws), nil
}

func (c *Client) fetch(ctx context.Context, studentID, endpoint string) ([]map[string]any, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	target := c.baseURL + "/students/" + url.PathEscape(studentID) + "/" + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	ctx, id := requestid.Ensure(ctx)
	req.Header.Set(requestid.Header, id)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "error", latency)
		metrics.RecordErrorByComponent("upstream", "transport")
		c.logger.Error(ctx, "upstream request failed",
			logger.String("endpoint", endpoint),
			logger.String("request_id", id),
			logger.Error(err))
		return nil, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(endpoint, strconv.Itoa(resp.StatusCode), latency)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", endpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: student %s", ErrNotFound, studentID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.RecordErrorByComponent("upstream", "status")
		c.logger.Warn(ctx, "upstream returned non-2xx",
			logger.String("endpoint", endpoint),
			logger.Int("status", resp.StatusCode),
			logger.String("request_id", id))
		return nil, fmt.Errorf("%w: %d from %s", ErrUpstreamStatus, resp.StatusCode, endpoint)
	}

	raws, err := DecodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	c.logger.Debug(ctx, "upstream fetch",
		logger.String("endpoint", endpoint),
		logger.Int("records", len(raws)),
		logger.Float64("latency_ms", latency))
	return raws, nil
}
