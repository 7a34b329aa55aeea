package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"beatforge/model"

	"github.com/shopspring/decimal"
)

// scriptedClient fails a fixed number of times before succeeding.
type scriptedClient struct {
	failures int
	calls    int
	result   *Result
}

func (c *scriptedClient) CreateProduct(_ context.Context, _ *model.Beat) (*Result, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, errors.New("processor unavailable")
	}
	return c.result, nil
}

func testBeat() *model.Beat {
	return &model.Beat{
		ID:             "beat-1",
		Title:          "Night Drive",
		WavPrice:       decimal.RequireFromString("19.99"),
		TrackoutPrice:  decimal.RequireFromString("49.99"),
		UnlimitedPrice: decimal.RequireFromString("99.99"),
	}
}

func newRecordingSyncer(client PaymentClient, maxAttempts int) (*Syncer, *[]time.Duration) {
	s := NewSyncer(client, 100*time.Millisecond, maxAttempts, time.Second)
	delays := &[]time.Duration{}
	s.sleep = func(d time.Duration) { *delays = append(*delays, d) }
	return s, delays
}

func TestSyncSucceedsFirstTry(t *testing.T) {
	client := &scriptedClient{result: &Result{ProductID: "prod_1"}}
	s, delays := newRecordingSyncer(client, 3)

	res, err := s.Sync(context.Background(), testBeat())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.ProductID != "prod_1" {
		t.Errorf("product id = %q, want prod_1", res.ProductID)
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1", client.calls)
	}
	if len(*delays) != 0 {
		t.Errorf("expected no backoff on first-try success, got %v", *delays)
	}
}

func TestSyncBacksOffExponentially(t *testing.T) {
	client := &scriptedClient{failures: 2, result: &Result{ProductID: "prod_1"}}
	s, delays := newRecordingSyncer(client, 3)

	res, err := s.Sync(context.Background(), testBeat())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res == nil || res.ProductID != "prod_1" {
		t.Fatalf("unexpected result %+v", res)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(*delays) != len(want) {
		t.Fatalf("delays = %v, want %v", *delays, want)
	}
	for i := range want {
		if (*delays)[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, (*delays)[i], want[i])
		}
	}
}

func TestSyncGivesUpAfterMaxAttempts(t *testing.T) {
	client := &scriptedClient{failures: 10}
	s, delays := newRecordingSyncer(client, 3)

	res, err := s.Sync(context.Background(), testBeat())
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3", client.calls)
	}
	// No sleep after the final attempt.
	if len(*delays) != 2 {
		t.Errorf("expected 2 backoff sleeps, got %v", *delays)
	}
}

func TestNewSyncerRaisesAttemptFloor(t *testing.T) {
	client := &scriptedClient{failures: 10}
	s, _ := newRecordingSyncer(client, 0)

	if _, err := s.Sync(context.Background(), testBeat()); err == nil {
		t.Fatal("expected error")
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1 (floor)", client.calls)
	}
}
