package models

import (
	"testing"
	"time"

	"github.com/BearBump/ParcelScope/internal/trackerr"
	"github.com/stretchr/testify/require"
)

func TestNewTrackingEvent_trims(t *testing.T) {
	ev, err := NewTrackingEvent(TrackingEventInput{
		TrackingNumber: "  AB123  ",
		Status:         StatusInTransit,
		Message:        "  ok  ",
	})
	require.NoError(t, err)
	require.Equal(t, "AB123", ev.TrackingNumber)
	require.Equal(t, "ok", ev.Message)
	require.NotEmpty(t, ev.ID)
	require.Nil(t, ev.Location)
	require.False(t, ev.EventTime.IsZero())
}

func TestNewTrackingEvent_validates(t *testing.T) {
	_, err := NewTrackingEvent(TrackingEventInput{TrackingNumber: "  ", Status: StatusInTransit, Message: "m"})
	require.True(t, trackerr.IsKind(err, trackerr.KindValidation))

	_, err = NewTrackingEvent(TrackingEventInput{TrackingNumber: "N", Status: StatusInTransit, Message: "   "})
	require.True(t, trackerr.IsKind(err, trackerr.KindValidation))

	_, err = NewTrackingEvent(TrackingEventInput{TrackingNumber: "N", Status: Status("BOGUS"), Message: "m"})
	require.True(t, trackerr.IsKind(err, trackerr.KindValidation))
}

func TestCheckpoint_fallbackLocation(t *testing.T) {
	loc := Checkpoint{Location: "Paris Hub", City: "Lyon", Country: "FR"}.FallbackLocation()
	require.NotNil(t, loc)
	require.Equal(t, "Paris Hub", *loc)

	loc = Checkpoint{City: "Lyon", Country: "FR"}.FallbackLocation()
	require.NotNil(t, loc)
	require.Equal(t, "Lyon, FR", *loc)

	loc = Checkpoint{City: "Lyon"}.FallbackLocation()
	require.NotNil(t, loc)
	require.Equal(t, "Lyon", *loc)

	require.Nil(t, Checkpoint{}.FallbackLocation())
}

func TestCheckpoint_fallbackMessage(t *testing.T) {
	require.Equal(t, "left facility", Checkpoint{Message: "left facility", StatusText: "raw"}.FallbackMessage(StatusInTransit))
	require.Equal(t, "raw", Checkpoint{StatusText: "raw"}.FallbackMessage(StatusInTransit))
	require.Equal(t, "In transit", Checkpoint{}.FallbackMessage(StatusInTransit))
}

func TestEventFromCheckpoint(t *testing.T) {
	vocab := map[string]Status{"DLV": StatusDelivered}
	when := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	ev, err := EventFromCheckpoint("N1", Checkpoint{
		Tag:  "DLV",
		City: "Lyon", Country: "FR",
		Time: when,
	}, vocab)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, ev.Status)
	require.Equal(t, "Delivered", ev.Message) // falls back to the label
	require.Equal(t, "Lyon, FR", *ev.Location)
	require.Equal(t, when, ev.EventTime)

	_, err = EventFromCheckpoint("N1", Checkpoint{Tag: "NOPE"}, vocab)
	require.True(t, trackerr.IsKind(err, trackerr.KindVocabulary))
}

func TestTrackingEvent_displayViews(t *testing.T) {
	when := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	ev, err := NewTrackingEvent(TrackingEventInput{
		TrackingNumber: "N",
		Status:         StatusDelivered,
		Message:        "done",
		EventTime:      when,
	})
	require.NoError(t, err)
	require.Equal(t, "", ev.DisplayLocation())
	require.Equal(t, "01 Mar 2025 12:30", ev.DisplayTime())
}
