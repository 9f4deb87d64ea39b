package letters

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bryan-buckman/recallfinder/internal/model"
)

type fakeFetcher struct {
	mu       sync.Mutex
	tables   map[int]*model.Table
	yearErr  error
	docs     map[string][]byte
	docErr   error
	calls    int32
	delay    time.Duration
	docCalls []string
	// started, when set, is signalled once and FetchYear then blocks until
	// its context is done.
	started chan struct{}
}

func (f *fakeFetcher) FetchYear(ctx context.Context, year int) (*model.Table, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.started != nil {
		close(f.started)
		<-ctx.Done()
		return model.NewTable(), ctx.Err()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tables[year]; ok {
		return t, f.yearErr
	}
	return model.NewTable(), f.yearErr
}

func (f *fakeFetcher) FetchDocument(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docCalls = append(f.docCalls, url)
	if f.docErr != nil {
		return nil, f.docErr
	}
	return f.docs[url], nil
}

func (f *fakeFetcher) fetchCalls() int {
	return int(atomic.LoadInt32(&f.calls))
}

func letter(manufacturer, name, date, url string) model.Letter {
	l := model.Letter{Manufacturer: manufacturer, Name: name, LetterDate: date, URL: url}
	if d, ok := model.ParseLetterDate(date); ok {
		l.Date = d
	}
	return l
}

func fullTable(rows ...model.Letter) *model.Table {
	t := model.NewTable(
		model.ColumnManufacturerName,
		model.ColumnName,
		model.ColumnLetterDate,
		model.ColumnURL,
	)
	t.Rows = rows
	return t
}
