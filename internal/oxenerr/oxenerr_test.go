package oxenerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := New(NotFound, "commitdb.Get", "commit abc123 not found")
	assert.Equal(t, "commitdb.Get: commit abc123 not found", err.Error())
	assert.Equal(t, NotFound, err.Kind())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(IoError, "objstore.Put", "writing blob", cause)

	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, IoError, KindOf(err))
}

func TestIsDispatchesByKind(t *testing.T) {
	err := New(ResourceBusy, "kvstore.Open", "another writer holds the lock")

	assert.True(t, Is(err, ResourceBusy))
	assert.False(t, Is(err, NotFound))
	assert.False(t, Is(errors.New("plain error"), NotFound))
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		IoError:           "IoError",
		Corruption:        "Corruption",
		NotFound:          "NotFound",
		AlreadyExists:     "AlreadyExists",
		InvalidInput:      "InvalidInput",
		ResourceBusy:      "ResourceBusy",
		CheckoutConflict:  "CheckoutConflict",
		AuthMissing:       "AuthMissing",
		Unknown:           "Unknown",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
