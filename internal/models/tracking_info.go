package models

import (
	"sort"
	"time"
)

// TrackingInfo is the aggregate every lookup resolves to, regardless of
// which backend produced it. Events are kept newest-first for display.
type TrackingInfo struct {
	TrackingNumber    string           `json:"trackNumber"`
	CarrierCode       string           `json:"carrierCode"`
	CarrierName       string           `json:"carrierName"`
	Status            Status           `json:"status"`
	EstimatedDelivery *time.Time       `json:"estimatedDelivery,omitempty"`
	Events            []*TrackingEvent `json:"events"`
	Origin            *string          `json:"origin,omitempty"`
	Destination       *string          `json:"destination,omitempty"`
	LastUpdatedAt     time.Time        `json:"lastUpdatedAt"`
}

// SortEventsDesc re-asserts the newest-first invariant.
func (t *TrackingInfo) SortEventsDesc() {
	sort.SliceStable(t.Events, func(i, j int) bool {
		return t.Events[i].EventTime.After(t.Events[j].EventTime)
	})
}

// Normalize sorts events, derives the current status from the newest event
// when the backend did not report one, and stamps LastUpdatedAt.
func (t *TrackingInfo) Normalize() {
	t.SortEventsDesc()
	if !t.Status.Valid() && len(t.Events) > 0 {
		t.Status = t.Events[0].Status
	}
	if t.LastUpdatedAt.IsZero() {
		t.LastUpdatedAt = time.Now().UTC()
	}
}
