// Package nhtsa fetches recall-letter listings and documents from the NHTSA
// vPIC API.
package nhtsa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bryan-buckman/recallfinder/internal/logger"
	"github.com/bryan-buckman/recallfinder/internal/metrics"
	"github.com/bryan-buckman/recallfinder/internal/model"
)

// Defaults mirror the public vPIC endpoint.
const (
	DefaultBaseURL      = "https://vpic.nhtsa.dot.gov/api/vehicles"
	DefaultDocumentType = 565
	DefaultTimeout      = 30 * time.Second
	// DefaultMaxPages bounds pagination in case the API never returns a short page.
	DefaultMaxPages = 10
	// DefaultMinPageRows is the row count below which a page is treated as the last one.
	DefaultMinPageRows = 10
	// MaxDocumentBytes caps a single PDF download.
	MaxDocumentBytes = 64 << 20
)

// StatusError reports a non-200 upstream response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// ErrDocumentTooLarge is returned when a PDF exceeds MaxDocumentBytes.
var ErrDocumentTooLarge = errors.New("document exceeds size limit")

// Config holds the client settings.
type Config struct {
	BaseURL      string
	DocumentType int
	Timeout      time.Duration
	MaxPages     int
	MinPageRows  int
}

// Client talks to the vPIC API. It is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. The configured timeout is
// not applied to a caller-supplied client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client, filling zero-valued settings with defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.DocumentType == 0 {
		cfg.DocumentType = DefaultDocumentType
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.MinPageRows <= 0 {
		cfg.MinPageRows = DefaultMinPageRows
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.WithModule("nhtsa"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageURL returns the CSV listing URL for one page of a model year.
func (c *Client) PageURL(year, page int) string {
	return fmt.Sprintf("%s/GetParts?type=%d&fromDate=1/1/%d&toDate=12/31/%d&format=csv&page=%d",
		c.cfg.BaseURL, c.cfg.DocumentType, year, year, page)
}

// FetchYear walks the listing pages for year and returns every row fetched.
// Paging stops on a short page, after MaxPages, on a non-200 status or on any
// error. The returned table is never nil; when err is non-nil it holds the
// rows gathered before the failure.
func (c *Client) FetchYear(ctx context.Context, year int) (*model.Table, error) {
	c.log.Info("fetching recall letters", zap.Int("year", year))

	table := model.NewTable()
	var fetchErr error
	for page := 1; page <= c.cfg.MaxPages; page++ {
		rows, err := c.fetchPage(ctx, year, page, table)
		if err != nil {
			outcome := "error"
			var se *StatusError
			if errors.As(err, &se) {
				outcome = "status"
			}
			metrics.UpstreamPages.WithLabelValues(outcome).Inc()
			c.log.Error("fetch page failed", zap.Int("year", year), zap.Int("page", page), zap.Error(err))
			fetchErr = fmt.Errorf("year %d page %d: %w", year, page, err)
			break
		}

		// A short page still carries real letters; keep them before stopping.
		table.Rows = append(table.Rows, rows...)
		if len(rows) < c.cfg.MinPageRows {
			metrics.UpstreamPages.WithLabelValues("short").Inc()
			c.log.Info("reached end of data", zap.Int("year", year), zap.Int("page", page), zap.Int("rows", len(rows)))
			break
		}
		metrics.UpstreamPages.WithLabelValues("ok").Inc()
	}

	c.log.Info("fetched recall letters", zap.Int("year", year), zap.Int("records", table.Len()))
	return table, fetchErr
}

func (c *Client) fetchPage(ctx context.Context, year, page int, table *model.Table) ([]model.Letter, error) {
	pageURL := c.PageURL(year, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: pageURL, Code: resp.StatusCode}
	}

	columns, rows, err := parseLetters(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	table.AddColumns(columns...)
	return rows, nil
}

// FetchDocument downloads the PDF at docURL.
func (c *Client) FetchDocument(ctx context.Context, docURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		metrics.DocumentFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.DocumentFetches.WithLabelValues("error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.DocumentFetches.WithLabelValues("status").Inc()
		return nil, &StatusError{URL: docURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentBytes+1))
	if err != nil {
		metrics.DocumentFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(body) > MaxDocumentBytes {
		metrics.DocumentFetches.WithLabelValues("error").Inc()
		return nil, ErrDocumentTooLarge
	}

	metrics.DocumentFetches.WithLabelValues("ok").Inc()
	return body, nil
}
