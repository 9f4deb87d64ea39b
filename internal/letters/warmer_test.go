package letters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bryan-buckman/recallfinder/internal/cache"
	"github.com/bryan-buckman/recallfinder/internal/model"
)

func TestWarmerDefaultsToCurrentYear(t *testing.T) {
	w := NewWarmer(newTestService(&fakeFetcher{}), 0, nil)
	w.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	require.Equal(t, []int{2026}, w.Years())
	require.Equal(t, MinWarmInterval, w.interval)
}

func TestWarmerRunOnceRefreshesAndPrunes(t *testing.T) {
	f := &fakeFetcher{tables: map[int]*model.Table{
		2024: fullTable(letter("Ford", "Q1", "1/1/2024", "u")),
		2023: fullTable(letter("Kia", "Q1", "1/1/2023", "u")),
	}}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := cache.New(time.Minute, cache.WithClock(func() time.Time { return now }))
	svc := NewService(f, c)
	c.Set(1999, fullTable(letter("Old", "x", "", "")))
	now = now.Add(2 * time.Minute)

	w := NewWarmer(svc, time.Hour, []int{2024, 2023})
	w.RunOnce()

	require.Equal(t, 2, f.fetchCalls())
	require.Equal(t, 2, c.Len())
	_, ok := c.Get(1999)
	require.False(t, ok)
	_, ok = c.Get(2024)
	require.True(t, ok)
}

func TestWarmerStartStop(t *testing.T) {
	f := &fakeFetcher{tables: map[int]*model.Table{
		2024: fullTable(letter("Ford", "Q1", "1/1/2024", "u")),
	}}
	w := NewWarmer(newTestService(f), time.Hour, []int{2024})
	w.Start()
	require.Eventually(t, func() bool { return f.fetchCalls() == 1 }, time.Second, 10*time.Millisecond)
	w.Stop()
}

func TestWarmerStopCancelsInFlightRefresh(t *testing.T) {
	f := &fakeFetcher{started: make(chan struct{})}
	w := NewWarmer(newTestService(f), time.Hour, []int{2024})
	w.Start()

	select {
	case <-f.started:
	case <-time.After(time.Second):
		t.Fatal("refresh never started")
	}

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return while a refresh was in flight")
	}
}
