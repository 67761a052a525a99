package trackerr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := New(KindNotFound, "no parcel")
	require.Equal(t, KindNotFound, KindOf(err))

	wrapped := errors.Wrap(err, "outer")
	require.Equal(t, KindNotFound, KindOf(wrapped))

	require.Equal(t, KindUpstream, KindOf(errors.New("plain")))
}

func TestWrap_keepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindTimeout, cause, "backend did not answer")

	require.Equal(t, "backend did not answer: connection refused", err.Error())
	require.True(t, errors.Is(err, cause))
	require.True(t, IsKind(err, KindTimeout))
	require.False(t, IsKind(err, KindAuth))
}

func TestNewf(t *testing.T) {
	err := Newf(KindValidation, "field %s is empty", "trackNumber")
	require.Equal(t, "field trackNumber is empty", err.Error())
	require.True(t, IsKind(err, KindValidation))
}
