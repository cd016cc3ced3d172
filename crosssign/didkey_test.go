package crosssign

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDIDKey_RoundTrip(t *testing.T) {
	pub, _ := generateKeypair()

	did, err := EncodeDIDKey(pub)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(did, "did:key:z"))

	decoded, err := DecodeDIDKey(did)
	require.NoError(t, err)
	assert.Equal(t, []byte(pub), decoded)
}

func TestDIDKey_RejectsWrongLength(t *testing.T) {
	_, err := EncodeDIDKey([]byte("too-short"))
	assert.Error(t, err)
}

func TestDIDKey_RejectsBadPrefix(t *testing.T) {
	_, err := DecodeDIDKey("did:web:example.org")
	assert.Error(t, err)
}
