package crosssign

import "strings"

// Verification rollup states for a user's whole key bundle (spec §4.6).
const (
	StatusVerified      = "VERIFIED"
	StatusUnknownDevice = "UNKNOWN_DEVICE"
	StatusUnknown       = "UNKNOWN"
)

// UserKeyBundle holds every device key and cross-signing key a directory
// knows about for one user (spec §3, "UserKeyBundle"). It does not itself
// know how to walk signature chains — that's the directory's job, since the
// chain walk routinely needs to cross into other users' bundles.
type UserKeyBundle struct {
	userID  string
	outdated bool

	deviceKeys        map[string]*DeviceKey        // device id -> key
	crossSigningKeys  map[string]*CrossSigningKey   // usage -> key
}

// NewUserKeyBundle constructs an empty bundle for a user.
func NewUserKeyBundle(userID string) *UserKeyBundle {
	return &UserKeyBundle{
		userID:           userID,
		deviceKeys:       map[string]*DeviceKey{},
		crossSigningKeys: map[string]*CrossSigningKey{},
	}
}

func (b *UserKeyBundle) UserID() string  { return b.userID }
func (b *UserKeyBundle) Outdated() bool  { return b.outdated }
func (b *UserKeyBundle) MarkOutdated()   { b.outdated = true }
func (b *UserKeyBundle) MarkRefreshed()  { b.outdated = false }

// AddDeviceKey registers or replaces a device in the bundle.
func (b *UserKeyBundle) AddDeviceKey(d *DeviceKey) {
	b.deviceKeys[d.Identifier()] = d
}

// AddCrossSigningKey registers the master, self_signing, or user_signing key
// for this user, keyed by its declared usage. A key with more than one usage
// is registered under each.
func (b *UserKeyBundle) AddCrossSigningKey(k *CrossSigningKey) {
	for _, usage := range k.Usage() {
		b.crossSigningKeys[usage] = k
	}
}

// DeviceKeys returns every device registered for this user.
func (b *UserKeyBundle) DeviceKeys() map[string]*DeviceKey { return b.deviceKeys }

func (b *UserKeyBundle) MasterKey() *CrossSigningKey       { return b.crossSigningKeys[UsageMaster] }
func (b *UserKeyBundle) SelfSigningKey() *CrossSigningKey  { return b.crossSigningKeys[UsageSelfSigning] }
func (b *UserKeyBundle) UserSigningKey() *CrossSigningKey  { return b.crossSigningKeys[UsageUserSigning] }

// GetKey looks up any key (device or cross-signing) in this bundle by its
// raw identifier, regardless of kind.
func (b *UserKeyBundle) GetKey(identifier string) SignableKey {
	if d, ok := b.deviceKeys[identifier]; ok {
		return d
	}
	if csk := b.crossSigningKeyByIdentifier(identifier); csk != nil {
		return csk
	}
	return nil
}

func (b *UserKeyBundle) crossSigningKeyByIdentifier(identifier string) *CrossSigningKey {
	for _, k := range b.crossSigningKeys {
		if k.Identifier() == identifier {
			return k
		}
	}
	return nil
}

// resolveSignerKeyID finds a key in this bundle by its full "algo:id" form,
// e.g. "ed25519:abcd...". Only ed25519 is a recognized signing algorithm
// (spec §2); anything else never resolves.
func (b *UserKeyBundle) resolveSignerKeyID(fullKeyID string) SignableKey {
	id, ok := strings.CutPrefix(fullKeyID, "ed25519:")
	if !ok {
		return nil
	}
	return b.GetKey(id)
}

// Verified computes the three-valued rollup for this user's whole bundle
// against dir (spec §4.6). Device membership in the rollup is each device's
// own §4.3 `verified` state — not blocked and resolved under the strict,
// verified_only chain walk (dir.Verified) — since the any-signed policy would
// let a device anchored only to an untrusted key count toward VERIFIED. When
// at least one device exists, "all devices verified" reaches VERIFIED whether
// or not the master key itself reads as verified. A gap in the device set is
// asymmetric: it reads as UNKNOWN_DEVICE once the master key is verified, and
// as UNKNOWN while it is not. A bundle with no devices is VERIFIED if the
// master key is verified and UNKNOWN otherwise.
func (b *UserKeyBundle) Verified(dir *TrustDirectory) string {
	master := b.MasterKey()
	if master == nil {
		return StatusUnknown
	}

	masterVerified := dir.Verified(master)

	if len(b.deviceKeys) == 0 {
		if masterVerified {
			return StatusVerified
		}
		return StatusUnknown
	}

	allDevicesVerified := true
	for _, d := range b.deviceKeys {
		if !dir.Verified(d) {
			allDevicesVerified = false
			break
		}
	}

	if masterVerified {
		if allDevicesVerified {
			return StatusVerified
		}
		return StatusUnknownDevice
	}

	if allDevicesVerified {
		return StatusVerified
	}
	return StatusUnknown
}
