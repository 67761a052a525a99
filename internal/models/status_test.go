package models

import (
	"strings"
	"testing"

	"github.com/BearBump/ParcelScope/internal/trackerr"
	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{
	StatusPending, StatusInfoReceived, StatusInTransit, StatusOutForDelivery,
	StatusDelivered, StatusFailedAttempt, StatusException, StatusExpired,
}

func TestStatusFromString_caseInsensitive(t *testing.T) {
	for _, st := range allStatuses {
		upper, err := StatusFromString(strings.ToUpper(string(st)))
		require.NoError(t, err)
		lower, err := StatusFromString(strings.ToLower(string(st)))
		require.NoError(t, err)
		require.Equal(t, upper, lower)
		require.Equal(t, st, upper)
	}
}

func TestStatusFromString_unknown(t *testing.T) {
	_, err := StatusFromString("TELEPORTED")
	require.Error(t, err)
	require.True(t, trackerr.IsKind(err, trackerr.KindValidation))
}

func TestStatus_derivedFlags(t *testing.T) {
	for _, st := range allStatuses {
		wantFinal := st == StatusDelivered || st == StatusExpired
		wantIssue := st == StatusFailedAttempt || st == StatusException
		require.Equal(t, wantFinal, st.IsFinal(), "IsFinal(%s)", st)
		require.Equal(t, wantIssue, st.HasIssue(), "HasIssue(%s)", st)
		require.Equal(t, !wantFinal, st.IsActive(), "IsActive(%s)", st)
	}
}

func TestStatus_order(t *testing.T) {
	// Stalled-near-delivery statuses share the out-for-delivery rank.
	require.Equal(t, StatusOutForDelivery.Order(), StatusFailedAttempt.Order())
	require.Equal(t, StatusOutForDelivery.Order(), StatusException.Order())

	require.Less(t, StatusPending.Order(), StatusInfoReceived.Order())
	require.Less(t, StatusInfoReceived.Order(), StatusInTransit.Order())
	require.Less(t, StatusInTransit.Order(), StatusOutForDelivery.Order())
	require.Less(t, StatusOutForDelivery.Order(), StatusDelivered.Order())
}

func TestStatusFromVocabulary(t *testing.T) {
	vocab := map[string]Status{
		"OK":   StatusDelivered,
		"MOVE": StatusInTransit,
	}

	st, err := StatusFromVocabulary("OK", vocab)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, st)

	_, err = StatusFromVocabulary("INVENTED", vocab)
	require.Error(t, err)
	require.True(t, trackerr.IsKind(err, trackerr.KindVocabulary))
}

func TestStatus_labels(t *testing.T) {
	for _, st := range allStatuses {
		require.NotEmpty(t, st.Label())
	}
}
