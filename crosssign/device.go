package crosssign

// DeviceKey models a single end-to-end-encryption device belonging to a user
// (spec §3, "DeviceKey"). A device is only trustworthy once it has signed its
// own identity keys with its own Ed25519 key — that self-signature is what
// `selfSigned` memoizes, and it is what the device's effective block state
// hinges on.
type DeviceKey struct {
	baseKey

	algorithms    []string
	lastActive    int64
	curve25519Key string // base64 curve25519 public key, if any

	verifier Verifier

	selfSignedComputed bool
	selfSignedResult   VerifyResult
}

// NewDeviceKey constructs a device key. verifier is used only to check the
// device's self-signature (spec §4.4); it never sees another user's key
// material.
func NewDeviceKey(userID, deviceID string, keys map[string]string, signatures map[string]map[string]string, unsigned map[string]interface{}, algorithms []string, curve25519Key string, lastActive int64, verifier Verifier) *DeviceKey {
	if verifier == nil {
		verifier = UnavailableVerifier{}
	}
	return &DeviceKey{
		baseKey:       newBaseKey(userID, deviceID, keys, signatures, unsigned),
		algorithms:    algorithms,
		lastActive:    lastActive,
		curve25519Key: curve25519Key,
		verifier:      verifier,
	}
}

func (d *DeviceKey) Algorithms() []string  { return d.algorithms }
func (d *DeviceKey) LastActive() int64     { return d.lastActive }
func (d *DeviceKey) Curve25519Key() string { return d.curve25519Key }

// signableAttrs returns the JSON-shaped attribute map a device key's
// signature is computed and verified over (spec §4.1 excludes verified,
// blocked, unsigned, signatures — CanonicalJSON strips those itself).
func (d *DeviceKey) signableAttrs() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    d.userID,
		"device_id":  d.identifier,
		"algorithms": d.algorithms,
		"keys":       d.keys,
		"signatures": d.signatures,
		"unsigned":   d.unsigned,
	}
}

func (d *DeviceKey) SigningContent() ([]byte, error) {
	return CanonicalJSON(d.signableAttrs())
}

// selfSigned reports whether the device signed its own identity keys with
// its own Ed25519 key, memoizing the result in the shared signature cache
// (keyed by the device's own user id, since a device always signs for
// itself).
func (d *DeviceKey) selfSigned() VerifyResult {
	if d.selfSignedComputed {
		return d.selfSignedResult
	}
	d.selfSignedComputed = true
	d.selfSignedResult = d.computeSelfSigned()
	return d.selfSignedResult
}

func (d *DeviceKey) computeSelfSigned() VerifyResult {
	fullKeyID := "ed25519:" + d.identifier
	if cached, ok := d.cacheLookup(d.userID, fullKeyID); ok {
		if cached {
			return ResultValid
		}
		return ResultInvalid
	}

	pubKey, ok := d.Ed25519Key()
	if !ok {
		return ResultUnavailable
	}

	sigsBySigner, ok := d.signatures[d.userID]
	if !ok {
		return ResultUnavailable
	}
	sigB64, ok := sigsBySigner[fullKeyID]
	if !ok {
		return ResultUnavailable
	}
	sig, err := decodeKeyMaterial(sigB64)
	if err != nil {
		return ResultUnavailable
	}

	content, err := d.SigningContent()
	if err != nil {
		return ResultUnavailable
	}

	result := d.verifier.Verify(pubKey, content, sig)
	if result == ResultUnavailable {
		// The primitive itself couldn't run — spec §4.4 says to treat an
		// already-present self-signature as valid rather than block every
		// device a client happens to load without the binding available.
		d.cacheStore(d.userID, fullKeyID, true)
		return ResultValid
	}
	d.cacheStore(d.userID, fullKeyID, result == ResultValid)
	return result
}

// IsValid reports whether this device key is structurally usable: it must
// carry both its ed25519 and curve25519 key material, at least one supported
// algorithm, and a genuine self-signature (spec §4.4).
func (d *DeviceKey) IsValid() bool {
	if _, ok := d.Ed25519Key(); !ok {
		return false
	}
	if len(d.algorithms) == 0 {
		return false
	}
	if d.curve25519Key == "" {
		return false
	}
	return d.selfSigned() == ResultValid
}

// Blocked is the effective block state: an explicit local block, OR a device
// that never self-signed — an unsigned device's keys cannot be trusted to
// belong to the device they claim, so treating it as blocked is the safe
// default (spec §4.4).
func (d *DeviceKey) Blocked() bool {
	if d.blocked {
		return true
	}
	return d.selfSigned() != ResultValid
}

// SetBlocked sets the local block flag. On an invalid key this is a silent
// no-op (spec §4.4) — unlike CrossSigningKey, a malformed device key has no
// downstream anchoring role, so failing loudly here would only be noise.
func (d *DeviceKey) SetBlocked(blocked bool) error {
	if !d.IsValid() {
		return nil
	}
	d.blocked = blocked
	return nil
}

// SetDirectVerified marks the device as locally, directly verified (e.g. by
// an out-of-band emoji comparison). A no-op on an invalid key, matching
// SetBlocked.
func (d *DeviceKey) SetDirectVerified(verified bool) error {
	if !d.IsValid() {
		return nil
	}
	d.directVerified = verified
	return nil
}
