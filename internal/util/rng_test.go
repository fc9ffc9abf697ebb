package util

import (
	"testing"
	"time"
)

func TestNewZeroSeedMatchesOne(t *testing.T) {
	a, b := New(0), New(1)
	for i := 0; i < 8; i++ {
		if x, y := a.Int63(), b.Int63(); x != y {
			t.Fatalf("expected identical streams, got %d vs %d", x, y)
		}
	}
}

func TestBetween(t *testing.T) {
	rng := New(42)
	for i := 0; i < 500; i++ {
		d := Between(rng, 5*time.Second, 7*time.Second)
		if d < 5*time.Second || d > 7*time.Second {
			t.Fatalf("expected value in [5s,7s], got %v", d)
		}
	}
	if got := Between(rng, 9*time.Second, 3*time.Second); got != 9*time.Second {
		t.Fatalf("expected inverted range to collapse to min, got %v", got)
	}
	if got := Between(nil, time.Second, 2*time.Second); got != time.Second {
		t.Fatalf("expected nil source to return min, got %v", got)
	}
}

func TestChanceBounds(t *testing.T) {
	rng := New(7)
	if Chance(rng, 0) {
		t.Fatalf("expected 0%% to never hit")
	}
	if !Chance(rng, 100) {
		t.Fatalf("expected 100%% to always hit")
	}
	if Pick(rng, 0) != -1 {
		t.Fatalf("expected -1 for empty pick")
	}
}
