// Package inventory is the client for the shared inventory service, the live
// system of record for off-site item availability and customer codes.
//
// Every call runs under its own deadline derived from the caller's context.
// When the deadline fires the request is cancelled, not abandoned. There are
// no retries; callers decide how to degrade on error.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"discovery/internal/catalog"
	"discovery/internal/inventory/metrics"
	"discovery/pkg/platform/circuit"
)

const (
	DefaultTimeout = 5 * time.Second

	opItemAvailability = "item_availability"
	opBibAvailability  = "bib_availability"
	opCustomerCode     = "customer_code"

	itemAvailabilityPath = "/sharedCollection/itemAvailabilityStatus"
	bibAvailabilityPath  = "/sharedCollection/bibAvailabilityStatus"
	searchPath           = "/searchService/search"

	maxResponseBytes = 4 << 20
	primaryBibIDLen  = 8
)

// Client talks to the shared inventory over JSON/HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *circuit.Breaker
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the default otelhttp-instrumented client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a client for baseURL authenticated with apiKey.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("inventory base URL is required")
	}
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:     slog.Default(),
		tracer:     otel.Tracer("discovery/inventory"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ItemAvailability asks for the live status of a batch of barcodes. Rows for
// barcodes the service did not echo back are simply missing from the result.
func (c *Client) ItemAvailability(ctx context.Context, barcodes []string) ([]ItemStatus, error) {
	if len(barcodes) == 0 {
		return nil, nil
	}
	var rows []availabilityRow
	if err := c.post(ctx, opItemAvailability, itemAvailabilityPath, itemAvailabilityRequest{Barcodes: barcodes}, &rows,
		attribute.Int("inventory.barcodes", len(barcodes))); err != nil {
		return nil, err
	}
	return c.toStatuses(ctx, rows), nil
}

// BibAvailability returns the live status of every item on a bibliographic
// record held by inst.
func (c *Client) BibAvailability(ctx context.Context, inst catalog.Institution, bibID string) ([]ItemStatus, error) {
	instID := inst.InventoryID()
	if instID == "" {
		return nil, newError(CategoryBadData, opBibAvailability, "unknown institution", nil)
	}
	padded, err := PadBibID(inst, bibID)
	if err != nil {
		return nil, newError(CategoryBadData, opBibAvailability, "invalid bib id", err)
	}
	var rows []availabilityRow
	if err := c.post(ctx, opBibAvailability, bibAvailabilityPath,
		bibAvailabilityRequest{BibliographicID: padded, InstitutionID: instID}, &rows,
		attribute.String("inventory.institution", instID)); err != nil {
		return nil, err
	}
	return c.toStatuses(ctx, rows), nil
}

// CustomerCode looks up the customer code that owns barcode's storage
// allocation. A barcode with no code yields a not_found error.
func (c *Client) CustomerCode(ctx context.Context, barcode string) (string, error) {
	var resp searchResponse
	if err := c.post(ctx, opCustomerCode, searchPath,
		searchRequest{FieldName: "Barcode", FieldValue: barcode}, &resp); err != nil {
		return "", err
	}
	if code := customerCodeFromSearch(resp, barcode); code != "" {
		return code, nil
	}
	return "", newError(CategoryNotFound, opCustomerCode, "no customer code for barcode", nil)
}

// customerCodeFromSearch prefers the item row matching barcode and falls back
// to a bib row's own code.
func customerCodeFromSearch(resp searchResponse, barcode string) string {
	for _, row := range resp.SearchResultRows {
		for _, item := range row.SearchItemResultRows {
			if item.Barcode == barcode && item.CustomerCode != "" {
				return item.CustomerCode
			}
		}
	}
	for _, row := range resp.SearchResultRows {
		if row.CustomerCode != "" && (row.Barcode == "" || row.Barcode == barcode) {
			return row.CustomerCode
		}
	}
	return ""
}

func (c *Client) toStatuses(ctx context.Context, rows []availabilityRow) []ItemStatus {
	out := make([]ItemStatus, 0, len(rows))
	for _, row := range rows {
		st := ParseStatus(row.ItemAvailabilityStatus)
		if st == StatusUnrecognized {
			c.metrics.IncUnrecognizedStatus()
			c.logger.WarnContext(ctx, "unrecognized inventory status",
				"barcode", row.ItemBarcode,
				"status", row.ItemAvailabilityStatus,
			)
		}
		out = append(out, ItemStatus{
			Barcode:      strings.TrimSpace(row.ItemBarcode),
			Status:       st,
			RawStatus:    row.ItemAvailabilityStatus,
			CustomerCode: strings.TrimSpace(row.CustomerCode),
		})
	}
	return out
}

func (c *Client) post(ctx context.Context, op, path string, body, out any, attrs ...attribute.KeyValue) (err error) {
	if c.breaker != nil && !c.breaker.Allow() {
		c.metrics.IncShortCircuited(op)
		return newError(CategoryProviderOutage, op, "shared inventory unavailable", ErrCircuitOpen)
	}

	ctx, span := c.tracer.Start(ctx, "inventory."+op, trace.WithAttributes(attrs...))
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			cat := CategoryOf(err)
			outcome = string(cat)
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			c.recordFailure(ctx, cat)
		} else {
			c.recordSuccess(ctx)
		}
		c.metrics.ObserveCall(op, outcome, time.Since(start))
		span.End()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return newError(CategoryInternal, op, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return newError(CategoryInternal, op, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api_key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return newError(CategoryTimeout, op, fmt.Sprintf("no response within %s", c.timeout), err)
		}
		return newError(CategoryProviderOutage, op, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return newError(CategoryTimeout, op, "response body timed out", err)
		}
		return newError(CategoryProviderOutage, op, "read response", err)
	}
	return parseResponse(op, resp.StatusCode, raw, out)
}

// parseResponse maps HTTP status codes onto categories and decodes 2xx bodies.
func parseResponse(op string, status int, body []byte, out any) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return newError(CategoryAuthentication, op, fmt.Sprintf("status %d", status), nil)
	case status == http.StatusNotFound:
		return newError(CategoryNotFound, op, "status 404", nil)
	case status == http.StatusTooManyRequests:
		return newError(CategoryRateLimited, op, "status 429", nil)
	case status >= 500:
		return newError(CategoryProviderOutage, op, fmt.Sprintf("status %d", status), nil)
	case status < 200 || status > 299:
		return newError(CategoryContractMismatch, op, fmt.Sprintf("unexpected status %d", status), nil)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return newError(CategoryBadData, op, "decode response", err)
	}
	return nil
}

func (c *Client) recordFailure(ctx context.Context, cat Category) {
	if c.breaker == nil || !countsAsFailure(cat) {
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.metrics.SetBreakerOpen(true)
		c.logger.WarnContext(ctx, "inventory circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	if c.breaker == nil {
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.metrics.SetBreakerOpen(false)
		c.logger.InfoContext(ctx, "inventory circuit closed", "breaker", c.breaker.Name())
	}
}

// PadBibID converts a catalog bib id into the shared inventory form. Primary
// ids lose their "b" prefix and are left-padded to eight digits; partner ids
// lose their institution prefix.
func PadBibID(inst catalog.Institution, bibID string) (string, error) {
	id := strings.TrimSpace(bibID)
	switch inst {
	case catalog.InstitutionNYPL:
		id = strings.TrimPrefix(id, "b")
		if id == "" || !isDigits(id) {
			return "", fmt.Errorf("bib id %q is not numeric", bibID)
		}
		if len(id) < primaryBibIDLen {
			id = strings.Repeat("0", primaryBibIDLen-len(id)) + id
		}
		return id, nil
	case catalog.InstitutionPrinceton, catalog.InstitutionColumbia, catalog.InstitutionHarvard:
		for _, p := range []string{"pb", "cb", "hb"} {
			id = strings.TrimPrefix(id, p)
		}
		if id == "" {
			return "", fmt.Errorf("bib id %q is empty", bibID)
		}
		return id, nil
	default:
		return "", fmt.Errorf("no bib id form for institution %q", inst)
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
