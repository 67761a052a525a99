package messages

import "time"

// TrackingLookedUp is emitted once per fresh successful lookup (cache hits
// do not repeat it).
type TrackingLookedUp struct {
	TrackNumber string    `json:"track_number"`
	CarrierCode string    `json:"carrier_code"`
	Status      string    `json:"status"`
	EventCount  int       `json:"event_count"`
	CheckedAt   time.Time `json:"checked_at"`
}
