package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bryan-buckman/recallfinder/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func sampleTable() *model.Table {
	tbl := model.NewTable(model.ColumnManufacturerName)
	tbl.Rows = []model.Letter{{Manufacturer: "Ford"}}
	return tbl
}

func TestGetMissOnEmptyCache(t *testing.T) {
	c := New(0)
	_, ok := c.Get(2020)
	require.False(t, ok)
	require.Equal(t, DefaultTTL, c.ttl)
}

func TestEntryExpiresExactlyAtTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := New(30*time.Minute, WithClock(clock.Now))
	tbl := sampleTable()
	c.Set(2024, tbl)

	clock.Advance(30*time.Minute - time.Nanosecond)
	got, ok := c.Get(2024)
	require.True(t, ok)
	require.Same(t, tbl, got)

	clock.Advance(time.Nanosecond)
	_, ok = c.Get(2024)
	require.False(t, ok)
	require.Equal(t, 0, c.Len(), "stale entry is removed on access")
}

func TestSetReplacesAndRefreshesTimestamp(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := New(time.Minute, WithClock(clock.Now))
	c.Set(2023, sampleTable())

	clock.Advance(50 * time.Second)
	replacement := sampleTable()
	c.Set(2023, replacement)

	clock.Advance(50 * time.Second)
	got, ok := c.Get(2023)
	require.True(t, ok)
	require.Same(t, replacement, got)
}

func TestPruneDropsOnlyStaleEntries(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := New(time.Minute, WithClock(clock.Now))
	c.Set(2020, sampleTable())
	clock.Advance(45 * time.Second)
	c.Set(2021, sampleTable())
	clock.Advance(30 * time.Second)

	require.Equal(t, 1, c.Prune())
	require.Equal(t, 1, c.Len())
	_, ok := c.Get(2021)
	require.True(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(year int) {
			defer wg.Done()
			c.Set(year, sampleTable())
			c.Get(year)
			c.Prune()
		}(2000 + i%4)
	}
	wg.Wait()
	require.Equal(t, 4, c.Len())
}
