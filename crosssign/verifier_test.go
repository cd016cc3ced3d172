package crosssign

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEd25519Verifier_ValidAndInvalidAndMalformed(t *testing.T) {
	v := NewEd25519Verifier()
	pub, priv := generateKeypair()
	msg := []byte("hello")
	sig := signContent(priv, msg)

	assert.Equal(t, ResultValid, v.Verify(pub, msg, sig))
	assert.Equal(t, ResultInvalid, v.Verify(pub, []byte("tampered"), sig))

	// Malformed key/signature sizes are a failed verification, not an
	// unavailable primitive, and must not panic the caller.
	assert.Equal(t, ResultInvalid, v.Verify([]byte("too-short"), msg, sig))
	assert.Equal(t, ResultInvalid, v.Verify(pub, msg, []byte("too-short")))
}

func TestUnavailableVerifier_AlwaysUnavailable(t *testing.T) {
	v := UnavailableVerifier{}
	pub, priv := generateKeypair()
	msg := []byte("hello")
	sig := signContent(priv, msg)

	assert.Equal(t, ResultUnavailable, v.Verify(pub, msg, sig))
}
