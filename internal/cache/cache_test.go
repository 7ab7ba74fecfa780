package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type payload struct {
	Calories int    `json:"calories"`
	Label    string `json:"label"`
}

func TestSetGetRoundTrip(t *testing.T) {
	c := New(1024*1024, time.Minute)

	want := payload{Calories: 1850, Label: "today"}
	if err := c.Set("home:user1", want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	fresh, ok := c.Get("home:user1", &got)
	if !ok || !fresh {
		t.Fatalf("expected fresh hit, got fresh=%v ok=%v", fresh, ok)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestGetMiss(t *testing.T) {
	c := New(1024*1024, time.Minute)
	var got payload
	if _, ok := c.Get("absent", &got); ok {
		t.Error("expected miss for absent key")
	}
}

func TestInvalidate(t *testing.T) {
	c := New(1024*1024, time.Minute)
	_ = c.Set("k", payload{Calories: 1})
	c.Invalidate("k")
	var got payload
	if _, ok := c.Get("k", &got); ok {
		t.Error("expected miss after Invalidate")
	}
}

func TestGetOrRefreshMissBlocksOnRefresh(t *testing.T) {
	c := New(1024*1024, time.Minute)

	var calls atomic.Int32
	refresh := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return payload{Calories: 2000, Label: "fetched"}, nil
	}

	var got payload
	if err := c.GetOrRefresh(context.Background(), "k", &got, refresh); err != nil {
		t.Fatalf("GetOrRefresh: %v", err)
	}
	if got.Calories != 2000 {
		t.Errorf("got %+v", got)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 refresh call, got %d", calls.Load())
	}

	// Second call within the freshness window must not refresh again.
	var again payload
	if err := c.GetOrRefresh(context.Background(), "k", &again, refresh); err != nil {
		t.Fatalf("GetOrRefresh: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("fresh hit still refreshed: %d calls", calls.Load())
	}
}

func TestGetOrRefreshServesStaleThenRefreshes(t *testing.T) {
	c := New(1024*1024, 10*time.Millisecond)

	_ = c.Set("k", payload{Calories: 1500, Label: "stale"})
	time.Sleep(30 * time.Millisecond) // let it go stale

	done := make(chan struct{})
	refresh := func(ctx context.Context) (any, error) {
		defer close(done)
		return payload{Calories: 1600, Label: "refreshed"}, nil
	}

	var got payload
	if err := c.GetOrRefresh(context.Background(), "k", &got, refresh); err != nil {
		t.Fatalf("GetOrRefresh: %v", err)
	}
	if got.Label != "stale" {
		t.Errorf("expected the stale value to be served immediately, got %+v", got)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background refresh never ran")
	}
}

func TestGetOrRefreshPropagatesRefreshError(t *testing.T) {
	c := New(1024*1024, time.Minute)

	wantErr := errors.New("backend unavailable")
	var got payload
	err := c.GetOrRefresh(context.Background(), "k", &got, func(ctx context.Context) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected refresh error, got %v", err)
	}
}
