package crosssign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(selfUserID string) *TrustDirectory {
	return NewTrustDirectory(selfUserID, NewEd25519Verifier())
}

// Anchor via a locally verified master key: a device that self-signs, and
// whose user's master key has been directly verified by the local operator,
// is trusted end to end.
func TestHasValidSignatureChain_AnchoredViaLocalMaster(t *testing.T) {
	dir := newTestDirectory("@me:example.org")

	masterPub, masterPriv := generateKeypair()
	master, _ := newTestCrossSigningKey("@bob:example.org", []string{UsageMaster}, masterPub)
	require.NoError(t, master.SetVerified(true))

	devicePub, devicePriv := generateKeypair()
	device := newTestDeviceKey("@bob:example.org", "DEVICE1", devicePub, NewEd25519Verifier())
	selfSignDevice(device, devicePriv)
	signKeyWith(device, "@bob:example.org", "ed25519:"+master.Identifier(), masterPriv)

	bundle := NewUserKeyBundle("@bob:example.org")
	bundle.AddCrossSigningKey(master)
	bundle.AddDeviceKey(device)
	dir.PutBundle(bundle)

	assert.True(t, dir.Verified(master))
	assert.True(t, dir.Verified(device))
	assert.Equal(t, StatusVerified, bundle.Verified(dir))
}

// A third party's attestation about someone else's key is never, on its own,
// sufficient to extend trust — only self-attestations or attestations from
// the local operator are honored.
func TestHasValidSignatureChain_RejectsTransitiveThirdParty(t *testing.T) {
	dir := newTestDirectory("@me:example.org")

	// @carol's master key is verified locally.
	carolPub, carolPriv := generateKeypair()
	carolMaster, _ := newTestCrossSigningKey("@carol:example.org", []string{UsageMaster}, carolPub)
	require.NoError(t, carolMaster.SetVerified(true))
	dir.PutBundle(&UserKeyBundle{userID: "@carol:example.org", deviceKeys: map[string]*DeviceKey{}, crossSigningKeys: map[string]*CrossSigningKey{UsageMaster: carolMaster}})

	// @bob's master key is signed by @carol, not by @bob or @me — this must
	// NOT be honored even though carol's own key checks out.
	bobPub, _ := generateKeypair()
	bobMaster, _ := newTestCrossSigningKey("@bob:example.org", []string{UsageMaster}, bobPub)
	signKeyWith(bobMaster, "@carol:example.org", "ed25519:"+carolMaster.Identifier(), carolPriv)

	bundle := NewUserKeyBundle("@bob:example.org")
	bundle.AddCrossSigningKey(bobMaster)
	dir.PutBundle(bundle)

	assert.False(t, dir.Verified(bobMaster))
	assert.False(t, dir.Signed(bobMaster))
}

// Cycle safety: a contrived signature loop between two keys must not hang or
// stack-overflow the walk, and must resolve to untrusted.
func TestHasValidSignatureChain_CycleSafe(t *testing.T) {
	dir := newTestDirectory("@a:example.org")

	aPub, aPriv := generateKeypair()
	aKey, _ := newTestCrossSigningKey("@a:example.org", []string{UsageMaster}, aPub)

	bPub, bPriv := generateKeypair()
	bKey, _ := newTestCrossSigningKey("@a:example.org", []string{UsageSelfSigning}, bPub)

	signKeyWith(aKey, "@a:example.org", "ed25519:"+bKey.Identifier(), bPriv)
	signKeyWith(bKey, "@a:example.org", "ed25519:"+aKey.Identifier(), aPriv)

	bundle := NewUserKeyBundle("@a:example.org")
	bundle.AddCrossSigningKey(aKey)
	bundle.AddCrossSigningKey(bKey)
	dir.PutBundle(bundle)

	assert.False(t, dir.Verified(aKey))
	assert.False(t, dir.Verified(bKey))
}

// A device that never self-signed has no ed25519-backed attestation that it
// really belongs to the device it claims, so it reads as blocked even
// without an explicit local block.
func TestDeviceKey_UnsignedDeviceIsEffectivelyBlocked(t *testing.T) {
	pub, _ := generateKeypair()
	device := newTestDeviceKey("@bob:example.org", "DEVICE2", pub, NewEd25519Verifier())

	assert.True(t, device.Blocked())
	assert.False(t, device.directVerified)
}

// An explicit local block overrides everything else, including a valid
// self-signature.
func TestDeviceKey_ExplicitBlockOverridesSelfSignature(t *testing.T) {
	pub, priv := generateKeypair()
	device := newTestDeviceKey("@bob:example.org", "DEVICE3", pub, NewEd25519Verifier())
	selfSignDevice(device, priv)

	require.False(t, device.Blocked())
	require.NoError(t, device.SetBlocked(true))
	assert.True(t, device.Blocked())
}

// Self-signing with the verification primitive unavailable is accepted
// optimistically (spec §4.4): an already-present self-signature isn't
// re-derived as blocked just because the primitive that would confirm it
// cryptographically can't run.
func TestDeviceKey_SelfSignWithUnavailableVerifier(t *testing.T) {
	pub, priv := generateKeypair()
	device := newTestDeviceKey("@bob:example.org", "DEVICE4", pub, UnavailableVerifier{})
	selfSignDevice(device, priv)

	assert.Equal(t, ResultValid, device.selfSigned())
	assert.False(t, device.Blocked())
}

// A device's membership in the rollup requires its own chain to resolve
// under the strict, verified_only policy: while the master key it's signed
// by is itself still unverified, that device's chain bottoms out on nothing
// and, with no anchored identity, the gap collapses into UNKNOWN. Once the
// master becomes verified, the same device's chain now resolves and the
// bundle reaches VERIFIED. Adding a device that never cross-signed with the
// master then reintroduces a concrete, reportable gap (UNKNOWN_DEVICE).
func TestUserKeyBundle_VerifiedRollupAsymmetry(t *testing.T) {
	dir := newTestDirectory("@me:example.org")

	masterPub, masterPriv := generateKeypair()
	master, _ := newTestCrossSigningKey("@bob:example.org", []string{UsageMaster}, masterPub)

	devicePub, devicePriv := generateKeypair()
	device := newTestDeviceKey("@bob:example.org", "DEVICE5", devicePub, NewEd25519Verifier())
	selfSignDevice(device, devicePriv)
	signKeyWith(device, "@bob:example.org", "ed25519:"+master.Identifier(), masterPriv)

	bundle := NewUserKeyBundle("@bob:example.org")
	bundle.AddCrossSigningKey(master)
	bundle.AddDeviceKey(device)
	dir.PutBundle(bundle)

	// Master not verified yet: the device's own chain has nothing to anchor
	// to, so it doesn't count as verified either.
	assert.Equal(t, StatusUnknown, bundle.Verified(dir))

	require.NoError(t, master.SetVerified(true))
	assert.Equal(t, StatusVerified, bundle.Verified(dir))

	// Add a second device that never signed with the master.
	otherPub, otherPriv := generateKeypair()
	other := newTestDeviceKey("@bob:example.org", "DEVICE6", otherPub, NewEd25519Verifier())
	selfSignDevice(other, otherPriv)
	bundle.AddDeviceKey(other)

	assert.Equal(t, StatusUnknownDevice, bundle.Verified(dir))
}

func TestEncryptToDevice_RespectsEncryptionToggleAndBlock(t *testing.T) {
	dir := newTestDirectory("@me:example.org")
	pub, priv := generateKeypair()
	device := newTestDeviceKey("@bob:example.org", "DEVICE7", pub, NewEd25519Verifier())
	selfSignDevice(device, priv)

	assert.False(t, dir.EncryptToDevice(device), "encryption disabled by default")

	dir.SetEncryptionEnabled(true)
	assert.True(t, dir.EncryptToDevice(device))

	require.NoError(t, device.SetBlocked(true))
	assert.False(t, dir.EncryptToDevice(device))
}
