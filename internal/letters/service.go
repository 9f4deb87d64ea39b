// Package letters answers the questions the UI asks about a model year's
// recall letters: which manufacturers filed, which documents they filed, and
// where a given document lives.
package letters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/bryan-buckman/recallfinder/internal/cache"
	"github.com/bryan-buckman/recallfinder/internal/logger"
	"github.com/bryan-buckman/recallfinder/internal/model"
)

// FirstYear is the oldest model year offered in the picker.
const FirstYear = 1981

var (
	// ErrNoData means the year produced no records.
	ErrNoData = errors.New("no data")
	// ErrInvalidFormat means the upstream table lacks the manufacturer column.
	ErrInvalidFormat = errors.New("invalid data format")
	// ErrNoManufacturers means the caller selected nothing.
	ErrNoManufacturers = errors.New("no manufacturers selected")
	// ErrNoVersions means none of the selected manufacturers have records.
	ErrNoVersions = errors.New("no versions for selected manufacturers")
	// ErrURLMissing means the matching record carries no document URL.
	ErrURLMissing = errors.New("document url not available")
)

// NotFoundError is returned when no record matches a manufacturer/version pair.
type NotFoundError struct {
	Manufacturer string
	Version      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Version %q not found for manufacturer %q", e.Version, e.Manufacturer)
}

// Fetcher retrieves raw data from the upstream API.
type Fetcher interface {
	FetchYear(ctx context.Context, year int) (*model.Table, error)
	FetchDocument(ctx context.Context, url string) ([]byte, error)
}

// Service combines the upstream fetcher with the year cache.
type Service struct {
	fetcher Fetcher
	cache   *cache.YearCache
	group   singleflight.Group
	log     *zap.Logger
}

// NewService wires a fetcher to a cache.
func NewService(fetcher Fetcher, c *cache.YearCache) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   c,
		log:     logger.WithModule("letters"),
	}
}

// CachedYears returns the number of years currently held in memory.
func (s *Service) CachedYears() int {
	return s.cache.Len()
}

// Records returns the table for year, from cache when fresh. Fetch failures
// are logged and whatever rows were gathered are returned; an empty table is
// never cached. Concurrent misses for the same year share one fetch.
func (s *Service) Records(ctx context.Context, year int) *model.Table {
	if table, ok := s.cache.Get(year); ok {
		s.log.Debug("using cached data", zap.Int("year", year))
		return table
	}

	v, _, _ := s.group.Do(strconv.Itoa(year), func() (interface{}, error) {
		if table, ok := s.cache.Get(year); ok {
			return table, nil
		}
		return s.load(context.WithoutCancel(ctx), year), nil
	})
	return v.(*model.Table)
}

// Refresh fetches year unconditionally and replaces the cached table when the
// fetch produced rows.
func (s *Service) Refresh(ctx context.Context, year int) *model.Table {
	v, _, _ := s.group.Do(strconv.Itoa(year), func() (interface{}, error) {
		return s.load(ctx, year), nil
	})
	return v.(*model.Table)
}

func (s *Service) load(ctx context.Context, year int) *model.Table {
	table, err := s.fetcher.FetchYear(ctx, year)
	if table == nil {
		table = model.NewTable()
	}
	if err != nil {
		s.log.Error("fetch incomplete", zap.Int("year", year), zap.Int("records", table.Len()), zap.Error(err))
	}
	if !table.Empty() {
		s.cache.Set(year, table)
	}
	return table
}

// Manufacturers lists the manufacturers with letters for year.
func (s *Service) Manufacturers(ctx context.Context, year int, order SortOrder) (*ManufacturerListing, error) {
	table := s.Records(ctx, year)
	if table.Empty() {
		return nil, ErrNoData
	}
	if !table.HasColumn(model.ColumnManufacturerName) {
		return nil, ErrInvalidFormat
	}
	listing := ListManufacturers(table, order)
	s.log.Info("listed manufacturers",
		zap.Int("year", year),
		zap.String("sorted_by", string(listing.SortedBy)),
		zap.Int("count", listing.Len()))
	return listing, nil
}

// Versions lists the distinct documents filed by the given manufacturers.
func (s *Service) Versions(ctx context.Context, year int, manufacturers []string) ([]model.Version, error) {
	if len(manufacturers) == 0 {
		return nil, ErrNoManufacturers
	}
	table := s.Records(ctx, year)
	if table.Empty() {
		return nil, ErrNoData
	}
	if !table.HasColumn(model.ColumnManufacturerName) {
		return nil, ErrInvalidFormat
	}
	versions := ListVersions(table, manufacturers)
	if len(versions) == 0 {
		return nil, ErrNoVersions
	}
	s.log.Info("listed versions", zap.Int("year", year), zap.Strings("manufacturers", manufacturers), zap.Int("count", len(versions)))
	return versions, nil
}

// Locate returns the record for a manufacturer/version pair.
func (s *Service) Locate(ctx context.Context, year int, manufacturer, version string) (model.Letter, error) {
	table := s.Records(ctx, year)
	if table.Empty() {
		return model.Letter{}, ErrNoData
	}
	letter, err := FindLetter(table, manufacturer, version)
	if err != nil {
		s.log.Warn("letter lookup failed", zap.Int("year", year),
			zap.String("manufacturer", manufacturer), zap.String("version", version), zap.Error(err))
		return model.Letter{}, err
	}
	return letter, nil
}

// Document is a downloaded recall-letter PDF.
type Document struct {
	Filename  string
	SourceURL string
	Content   []byte
}

// Download locates and fetches the PDF for a manufacturer/version pair.
func (s *Service) Download(ctx context.Context, year int, manufacturer, version string) (*Document, error) {
	letter, err := s.Locate(ctx, year, manufacturer, version)
	if err != nil {
		return nil, err
	}
	s.log.Info("fetching document", zap.Int("year", year), zap.String("url", letter.URL))

	content, err := s.fetcher.FetchDocument(ctx, letter.URL)
	if err != nil {
		s.log.Error("document fetch failed", zap.String("url", letter.URL), zap.Error(err))
		return nil, err
	}
	return &Document{
		Filename:  Filename(year, manufacturer, version),
		SourceURL: letter.URL,
		Content:   content,
	}, nil
}

// Years returns the selectable model years, newest first.
func Years(now time.Time) []int {
	years := make([]int, 0, now.Year()-FirstYear+1)
	for y := now.Year(); y >= FirstYear; y-- {
		years = append(years, y)
	}
	return years
}

// Filename builds the download name for a document.
func Filename(year int, manufacturer, version string) string {
	return fmt.Sprintf("%d_%s_%s.pdf", year, CleanFilename(manufacturer), CleanFilename(version))
}

// CleanFilename keeps ASCII letters, digits and spaces, then turns spaces into
// underscores.
func CleanFilename(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, s)
	return cleaned
}
