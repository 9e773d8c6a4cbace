package services

import (
	"math"
	"testing"
	"time"

	"homescout/config"
	"homescout/models"
)

func testCalculator() *Calculator {
	return &Calculator{
		Tiers:              config.TierConfig{Low: 700, High: 1300},
		InsertTimeFallback: 1559197920,
		Now:                func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestPricePerPerson(t *testing.T) {
	calc := testCalculator()

	tests := []struct {
		name    string
		listing models.Listing
		want    float64
	}{
		{
			name:    "weighted occupancy",
			listing: models.Listing{Price: "$2,800", Bedrooms: 4, Bathrooms: 2},
			want:    2800 / 3.4,
		},
		{
			name:    "zero baths divides by bedrooms",
			listing: models.Listing{Price: "$1,400", Bedrooms: 4},
			want:    350,
		},
		{
			name:    "monthly suffix",
			listing: models.Listing{Price: "$2,800/mo", Bedrooms: 4, Bathrooms: 2},
			want:    2800 / 3.4,
		},
		{
			name:    "per month suffix",
			listing: models.Listing{Price: "$2,800 per month", Bedrooms: 4, Bathrooms: 2},
			want:    2800 / 3.4,
		},
		{
			name:    "unparseable price",
			listing: models.Listing{Price: "call for price", Bedrooms: 4, Bathrooms: 2},
			want:    UnknownPrice,
		},
		{
			name:    "missing price",
			listing: models.Listing{Bedrooms: 4, Bathrooms: 2},
			want:    UnknownPrice,
		},
		{
			name:    "zero bedrooms",
			listing: models.Listing{Price: "$2,800", Bathrooms: 2},
			want:    UnknownPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.PricePerPerson(&tt.listing)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("got %g, want %g", got, tt.want)
			}
		})
	}
}

func TestPricePerPersonMonotonicInBaths(t *testing.T) {
	calc := testCalculator()

	// More bathrooms means more estimated occupants, so a lower per-person
	// price at the same rent.
	one := calc.PricePerPerson(&models.Listing{Price: "$2,800", Bedrooms: 4, Bathrooms: 1})
	three := calc.PricePerPerson(&models.Listing{Price: "$2,800", Bedrooms: 4, Bathrooms: 3})
	if three >= one {
		t.Fatalf("expected more baths to lower price per person: %g vs %g", one, three)
	}
}

func TestTier(t *testing.T) {
	calc := testCalculator()

	// One bedroom and zero baths makes price-per-person equal the price, so
	// tier boundaries can be probed directly.
	tests := []struct {
		price string
		want  Tier
	}{
		{"$500", TierLow},
		{"$700", TierLow},
		{"$701", TierMid},
		{"$1,300", TierMid},
		{"$1,301", TierHigh},
		{"no price", TierUnknown},
	}

	for _, tt := range tests {
		l := &models.Listing{Price: tt.price, Bedrooms: 1}
		if got := calc.Tier(l); got != tt.want {
			t.Fatalf("%s: got %v, want %v", tt.price, got, tt.want)
		}
	}

	// The canonical family-home case lands in the middle bucket.
	l := &models.Listing{Price: "$2,800", Bedrooms: 4, Bathrooms: 2}
	if got := calc.Tier(l); got != TierMid {
		t.Fatalf("expected mid tier, got %v", got)
	}
}

func TestTierLabelsAndColors(t *testing.T) {
	tests := []struct {
		tier  Tier
		label string
		color string
	}{
		{TierLow, "$", "#008000"},
		{TierMid, "$$", "#FFA500"},
		{TierHigh, "$$$", "#FF0000"},
		{TierUnknown, "?", "#FFFFFF"},
	}
	for _, tt := range tests {
		if tt.tier.Label() != tt.label {
			t.Fatalf("label for %v: got %q", tt.tier, tt.tier.Label())
		}
		if tt.tier.Color() != tt.color {
			t.Fatalf("color for %v: got %q", tt.tier, tt.tier.Color())
		}
	}
}
