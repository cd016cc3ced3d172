package crosssign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossSigningKey_SetVerifiedRejectsInvalidKey(t *testing.T) {
	// Not valid base64 -> no decodable ed25519 material -> structurally invalid.
	key := NewCrossSigningKey("@bob:example.org", "notreallyakey", nil, nil, nil)
	assert.False(t, key.IsValid())

	err := key.SetVerified(true)
	require.Error(t, err)
	var invalidErr *InvalidKeyError
	assert.ErrorAs(t, err, &invalidErr)
}

func TestCrossSigningKey_SetVerifiedSucceedsOnValidKey(t *testing.T) {
	pub, _ := generateKeypair()
	key, _ := newTestCrossSigningKey("@bob:example.org", []string{UsageMaster}, pub)
	require.True(t, key.IsValid())

	require.NoError(t, key.SetVerified(true))
	assert.True(t, key.DirectVerified())
}

func TestCrossSigningKey_HasUsage(t *testing.T) {
	pub, _ := generateKeypair()
	key, _ := newTestCrossSigningKey("@bob:example.org", []string{UsageSelfSigning, UsageUserSigning}, pub)
	assert.True(t, key.HasUsage(UsageSelfSigning))
	assert.True(t, key.HasUsage(UsageUserSigning))
	assert.False(t, key.HasUsage(UsageMaster))
}

func TestKeyEquals_ByUserAndIdentifier(t *testing.T) {
	pub, _ := generateKeypair()
	a, _ := newTestCrossSigningKey("@bob:example.org", []string{UsageMaster}, pub)
	b, _ := newTestCrossSigningKey("@bob:example.org", []string{UsageMaster}, pub)
	assert.True(t, KeyEquals(a, b))

	c, _ := newTestCrossSigningKey("@carol:example.org", []string{UsageMaster}, pub)
	assert.False(t, KeyEquals(a, c))
}
