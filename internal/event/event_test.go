package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{want: "CopyProgress", typ: CopyProgress},
		{want: "CopyDone", typ: CopyDone},
		{want: "SyncDone", typ: SyncDone},
		{want: "CopyFailed", typ: CopyFailed},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Type(999).String())
}

func TestEventZeroValue(t *testing.T) {
	var e Event
	assert.Equal(t, Type(0), e.Type)
	assert.Zero(t, e.Bytes)
	require.NoError(t, e.Err)
}

func TestEventFields(t *testing.T) {
	syncErr := errors.New("sync failed")
	e := Event{
		Type:  SyncDone,
		Bytes: 20480,
		Err:   syncErr,
	}
	assert.Equal(t, SyncDone, e.Type)
	assert.Equal(t, uint64(20480), e.Bytes)
	assert.ErrorIs(t, e.Err, syncErr)
}
