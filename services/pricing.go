// Package services computes the derived fields a notification needs from a
// canonical listing: price-per-person, tier, time resolution and the
// authoritative location representation. Everything here is a pure function
// of the listing plus configuration; nothing is persisted.
package services

import (
	"strconv"
	"strings"
	"time"

	"homescout/config"
	"homescout/models"
)

// UnknownPrice is the sentinel returned when a price cannot be parsed.
const UnknownPrice = -1.0

type Tier int

const (
	TierUnknown Tier = iota
	TierLow
	TierMid
	TierHigh
)

func (t Tier) Label() string {
	switch t {
	case TierLow:
		return "$"
	case TierMid:
		return "$$"
	case TierHigh:
		return "$$$"
	default:
		return "?"
	}
}

func (t Tier) Color() string {
	switch t {
	case TierLow:
		return "#008000"
	case TierMid:
		return "#FFA500"
	case TierHigh:
		return "#FF0000"
	default:
		return "#FFFFFF"
	}
}

// Calculator holds the deployment knobs for derived-field computation.
// Now is swappable for tests.
type Calculator struct {
	Tiers              config.TierConfig
	InsertTimeFallback int64
	Now                func() time.Time
}

func NewCalculator(bot config.BotConfig) *Calculator {
	return &Calculator{
		Tiers:              bot.Tiers,
		InsertTimeFallback: bot.InsertTimeFallback,
		Now:                time.Now,
	}
}

// PricePerPerson divides the parsed price by a weighted occupancy estimate
// of 0.7*bedrooms + 0.3*bathrooms. When bathrooms is zero the price is
// divided by bedrooms alone. Returns UnknownPrice when the price text does
// not parse or the listing has no bedrooms.
func (c *Calculator) PricePerPerson(l *models.Listing) float64 {
	price, ok := parsePrice(l.Price)
	if !ok || price < 0 || l.Bedrooms == 0 {
		return UnknownPrice
	}

	if l.Bathrooms == 0 {
		return price / l.Bedrooms
	}
	return price / (0.7*l.Bedrooms + 0.3*l.Bathrooms)
}

// Tier buckets price-per-person by the two configured ascending thresholds.
func (c *Calculator) Tier(l *models.Listing) Tier {
	ppp := c.PricePerPerson(l)
	switch {
	case ppp < 0:
		return TierUnknown
	case ppp <= c.Tiers.Low:
		return TierLow
	case ppp <= c.Tiers.High:
		return TierMid
	default:
		return TierHigh
	}
}

func parsePrice(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "/mo")
	s = strings.TrimSuffix(s, " per month")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")

	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}
