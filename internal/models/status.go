package models

import (
	"strings"

	"github.com/BearBump/ParcelScope/internal/trackerr"
)

// Status is the normalized tracking status every backend is mapped into.
// The set is closed: adapters translate their own vocabularies through
// static tables instead of introducing new values.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusInfoReceived   Status = "INFO_RECEIVED"
	StatusInTransit      Status = "IN_TRANSIT"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusFailedAttempt  Status = "FAILED_ATTEMPT"
	StatusException      Status = "EXCEPTION"
	StatusExpired        Status = "EXPIRED"
)

// FAILED_ATTEMPT and EXCEPTION share OUT_FOR_DELIVERY's rank: a shipment
// stalled near delivery, not one that moved backwards on the timeline.
var statusTable = map[Status]struct {
	label string
	order int
}{
	StatusPending:        {"Pending", 0},
	StatusInfoReceived:   {"Info received", 1},
	StatusInTransit:      {"In transit", 2},
	StatusOutForDelivery: {"Out for delivery", 3},
	StatusFailedAttempt:  {"Failed attempt", 3},
	StatusException:      {"Exception", 3},
	StatusDelivered:      {"Delivered", 4},
	StatusExpired:        {"Expired", 4},
}

// StatusFromString parses a status case-insensitively. Values outside the
// eight fail with a validation error.
func StatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := statusTable[st]; !ok {
		return "", trackerr.Newf(trackerr.KindValidation, "unknown tracking status %q", s)
	}
	return st, nil
}

// StatusFromVocabulary maps an external carrier tag into a normalized status
// through a per-vocabulary table. The tag space is closed and curated, so an
// unknown tag is an explicit failure rather than a silent default.
func StatusFromVocabulary(tag string, vocab map[string]Status) (Status, error) {
	st, ok := vocab[tag]
	if !ok {
		return "", trackerr.Newf(trackerr.KindVocabulary, "carrier tag %q is not in the vocabulary", tag)
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := statusTable[s]
	return ok
}

func (s Status) Label() string {
	return statusTable[s].label
}

// Order is the rank used for timeline rendering.
func (s Status) Order() int {
	return statusTable[s].order
}

func (s Status) IsFinal() bool {
	return s == StatusDelivered || s == StatusExpired
}

func (s Status) HasIssue() bool {
	return s == StatusFailedAttempt || s == StatusException
}

func (s Status) IsActive() bool {
	return !s.IsFinal()
}
