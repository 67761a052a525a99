package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/BearBump/ParcelScope/internal/trackerr"
	"github.com/google/uuid"
)

// TrackingEvent is one checkpoint on a shipment's journey. Events are never
// mutated after construction.
type TrackingEvent struct {
	ID             string          `json:"id"`
	TrackingNumber string          `json:"trackNumber"`
	Status         Status          `json:"status"`
	Message        string          `json:"message"`
	Location       *string         `json:"location,omitempty"`
	EventTime      time.Time       `json:"eventTime"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

type TrackingEventInput struct {
	TrackingNumber string
	Status         Status
	Message        string
	Location       *string
	EventTime      time.Time
	Payload        json.RawMessage
}

// NewTrackingEvent trims and validates the required fields and fills the
// optional ones with defaults (no location, now, no payload).
func NewTrackingEvent(in TrackingEventInput) (*TrackingEvent, error) {
	num := strings.TrimSpace(in.TrackingNumber)
	if num == "" {
		return nil, trackerr.New(trackerr.KindValidation, "trackNumber is required")
	}
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, trackerr.New(trackerr.KindValidation, "message is required")
	}
	if !in.Status.Valid() {
		return nil, trackerr.Newf(trackerr.KindValidation, "unknown tracking status %q", string(in.Status))
	}

	when := in.EventTime
	if when.IsZero() {
		when = time.Now().UTC()
	}

	var loc *string
	if in.Location != nil {
		if l := strings.TrimSpace(*in.Location); l != "" {
			loc = &l
		}
	}

	return &TrackingEvent{
		ID:             uuid.NewString(),
		TrackingNumber: num,
		Status:         in.Status,
		Message:        msg,
		Location:       loc,
		EventTime:      when,
		Payload:        in.Payload,
	}, nil
}

// Checkpoint is a raw upstream checkpoint record before normalization.
type Checkpoint struct {
	Tag        string // carrier's own status tag/code
	StatusText string // carrier's human status line
	Message    string
	Location   string
	City       string
	Country    string
	Time       time.Time
	Raw        json.RawMessage
}

// FallbackLocation picks the best location the checkpoint offers:
// explicit field, then city+country, then city alone, then none.
func (c Checkpoint) FallbackLocation() *string {
	if l := strings.TrimSpace(c.Location); l != "" {
		return &l
	}
	city := strings.TrimSpace(c.City)
	if city == "" {
		return nil
	}
	if country := strings.TrimSpace(c.Country); country != "" {
		l := city + ", " + country
		return &l
	}
	return &city
}

// FallbackMessage picks the checkpoint message, then the raw status text,
// then the normalized status label.
func (c Checkpoint) FallbackMessage(st Status) string {
	if m := strings.TrimSpace(c.Message); m != "" {
		return m
	}
	if m := strings.TrimSpace(c.StatusText); m != "" {
		return m
	}
	return st.Label()
}

// EventFromCheckpoint builds an event from a raw carrier checkpoint. The
// checkpoint tag must resolve through the vocabulary; everything else falls
// back per FallbackLocation/FallbackMessage.
func EventFromCheckpoint(trackingNumber string, cp Checkpoint, vocab map[string]Status) (*TrackingEvent, error) {
	st, err := StatusFromVocabulary(cp.Tag, vocab)
	if err != nil {
		return nil, err
	}
	return NewTrackingEvent(TrackingEventInput{
		TrackingNumber: trackingNumber,
		Status:         st,
		Message:        cp.FallbackMessage(st),
		Location:       cp.FallbackLocation(),
		EventTime:      cp.Time,
		Payload:        cp.Raw,
	})
}

// DisplayLocation is a derived view for rendering; the stored value is not
// altered.
func (e *TrackingEvent) DisplayLocation() string {
	if e.Location == nil {
		return ""
	}
	return *e.Location
}

func (e *TrackingEvent) DisplayTime() string {
	return e.EventTime.UTC().Format("02 Jan 2006 15:04")
}
