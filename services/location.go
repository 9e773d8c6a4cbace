package services

import "homescout/models"

// maxAddressAccuracy is the worst map_accuracy at which a source-provided
// address is still trusted over raw coordinates.
const maxAddressAccuracy = 10

type LocationKind int

const (
	LocationNone LocationKind = iota
	LocationAddress
	LocationCoords
)

// ResolveLocation picks the authoritative location representation: the
// address when present and precise enough, else coordinates, else none.
func ResolveLocation(l *models.Listing) LocationKind {
	if l.GAddress != "" && l.MapAccuracy <= maxAddressAccuracy {
		return LocationAddress
	}
	if l.GCoords != nil {
		return LocationCoords
	}
	return LocationNone
}
