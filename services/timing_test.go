package services

import (
	"testing"
	"time"

	"homescout/models"
)

func TestDisplayTime(t *testing.T) {
	calc := testCalculator()
	posted := time.Date(2026, 8, 30, 14, 22, 0, 0, time.UTC)
	updated := time.Date(2026, 8, 31, 9, 5, 0, 0, time.UTC)

	if _, ok := calc.DisplayTime(&models.Listing{}); ok {
		t.Fatalf("expected no display time without timestamps")
	}

	got, ok := calc.DisplayTime(&models.Listing{Posted: &posted})
	if !ok || !got.Equal(posted) {
		t.Fatalf("expected posted time, got %v %v", got, ok)
	}

	got, ok = calc.DisplayTime(&models.Listing{Posted: &posted, Updated: &updated})
	if !ok || !got.Equal(updated) {
		t.Fatalf("expected updated to win, got %v %v", got, ok)
	}
}

func TestInsertTime(t *testing.T) {
	calc := testCalculator()

	got := calc.InsertTime(&models.Listing{RawDate: "2019-05-30 00:12"})
	want := time.Date(2019, 5, 30, 0, 12, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}

	if got := calc.InsertTime(&models.Listing{}); got != calc.InsertTimeFallback {
		t.Fatalf("expected fallback for empty raw date, got %d", got)
	}
	if got := calc.InsertTime(&models.Listing{RawDate: "soonish"}); got != calc.InsertTimeFallback {
		t.Fatalf("expected fallback for unparseable raw date, got %d", got)
	}
}

func TestAvailabilityLabel(t *testing.T) {
	calc := testCalculator()
	now := calc.Now()

	if got := calc.AvailabilityLabel(&models.Listing{}); got != "N/A" {
		t.Fatalf("expected N/A, got %q", got)
	}

	past := now.Add(-time.Second)
	if got := calc.AvailabilityLabel(&models.Listing{Availability: &past}); got != "Now" {
		t.Fatalf("expected Now for past date, got %q", got)
	}

	exact := now
	if got := calc.AvailabilityLabel(&models.Listing{Availability: &exact}); got != "Now" {
		t.Fatalf("expected Now for current instant, got %q", got)
	}

	future := now.Add(10 * 24 * time.Hour)
	if got := calc.AvailabilityLabel(&models.Listing{Availability: &future}); got != "Sep 11" {
		t.Fatalf("expected Sep 11, got %q", got)
	}
}

func TestAreaLabel(t *testing.T) {
	tests := []struct {
		area string
		want string
	}{
		{"", "N/A"},
		{"2400ft2", "2400"},
		{"2400 sqft", "2400"},
		{"2400 sq ft", "2400"},
		{"1800", "1800"},
	}
	for _, tt := range tests {
		if got := AreaLabel(&models.Listing{Area: tt.area}); got != tt.want {
			t.Fatalf("%q: got %q, want %q", tt.area, got, tt.want)
		}
	}
}
