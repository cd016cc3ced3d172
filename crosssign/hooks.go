package crosssign

import "context"

// PersistenceHooks lets a host application durably record the local trust
// decisions this package computes in memory (spec §6). The directory calls
// them synchronously and returns any error they report to its own caller;
// they may block on I/O, hence the context.
type PersistenceHooks interface {
	PersistDeviceVerification(ctx context.Context, userID, deviceID string, verified bool) error
	PersistDeviceBlock(ctx context.Context, userID, deviceID string, blocked bool) error
	PersistCrossSigningVerification(ctx context.Context, userID, keyID string, verified bool) error
	PersistCrossSigningBlock(ctx context.Context, userID, keyID string, blocked bool) error
}

// CrossSigningHooks lets a host application supply its own user-signing key
// so that newly trusted keys belonging to other users can be cross-signed
// automatically (spec §6). Signable reports whether the local session
// currently holds a private user-signing key capable of signing at all; Sign
// is fire-and-forget — the directory does not wait on it to complete the
// verification it just performed.
type CrossSigningHooks interface {
	Signable(keys []SignableKey) bool
	Sign(keys []SignableKey)
}

// noopCrossSigningHooks is the default used when a directory is built
// without an explicit CrossSigningHooks — e.g. a read-only or
// server-side evaluation context that has no private signing key at all.
type noopCrossSigningHooks struct{}

func (noopCrossSigningHooks) Signable(_ []SignableKey) bool { return false }
func (noopCrossSigningHooks) Sign(_ []SignableKey)          {}

// VerificationHooks bundles the persistence and cross-signing hooks a
// TrustDirectory is constructed with.
type VerificationHooks struct {
	Persistence  PersistenceHooks
	CrossSigning CrossSigningHooks
}

// WithHooks attaches hooks to an existing directory, filling in a no-op
// CrossSigningHooks if none is supplied so callers never need a nil check.
func (d *TrustDirectory) WithHooks(hooks VerificationHooks) *TrustDirectory {
	if hooks.CrossSigning == nil {
		hooks.CrossSigning = noopCrossSigningHooks{}
	}
	d.hooks = hooks
	return d
}

// VerifyDevice marks a device directly verified and persists the decision if
// a PersistenceHooks is attached. The device's memoized self-signed result is
// left as it is.
func (d *TrustDirectory) VerifyDevice(ctx context.Context, device *DeviceKey, verified bool) error {
	if err := device.SetDirectVerified(verified); err != nil {
		return err
	}
	if d.hooks.Persistence == nil {
		return nil
	}
	return d.hooks.Persistence.PersistDeviceVerification(ctx, device.UserID(), device.Identifier(), verified)
}

// BlockDevice sets a device's local block flag and persists the decision.
func (d *TrustDirectory) BlockDevice(ctx context.Context, device *DeviceKey, blocked bool) error {
	if err := device.SetBlocked(blocked); err != nil {
		return err
	}
	if d.hooks.Persistence == nil {
		return nil
	}
	return d.hooks.Persistence.PersistDeviceBlock(ctx, device.UserID(), device.Identifier(), blocked)
}

// VerifyCrossSigningKey marks a cross-signing key directly verified,
// persists the decision, and — if the local session holds a private
// user-signing key capable of it — offers every device and cross-signing
// key belonging to the same user up to CrossSigningHooks.Sign, so trust
// that was just anchored locally gets attested for other sessions too.
func (d *TrustDirectory) VerifyCrossSigningKey(ctx context.Context, key *CrossSigningKey, verified bool) error {
	if err := key.SetVerified(verified); err != nil {
		return err
	}
	if d.hooks.Persistence != nil {
		if err := d.hooks.Persistence.PersistCrossSigningVerification(ctx, key.UserID(), key.Identifier(), verified); err != nil {
			return err
		}
	}

	if verified && d.hooks.CrossSigning != nil {
		if bundle := d.bundles[key.UserID()]; bundle != nil {
			signable := collectSignable(bundle)
			if len(signable) > 0 && d.hooks.CrossSigning.Signable(signable) {
				d.hooks.CrossSigning.Sign(signable)
			}
		}
	}
	return nil
}

// BlockCrossSigningKey sets a cross-signing key's local block flag and
// persists the decision.
func (d *TrustDirectory) BlockCrossSigningKey(ctx context.Context, key *CrossSigningKey, blocked bool) error {
	if err := key.SetBlocked(blocked); err != nil {
		return err
	}
	if d.hooks.Persistence == nil {
		return nil
	}
	return d.hooks.Persistence.PersistCrossSigningBlock(ctx, key.UserID(), key.Identifier(), blocked)
}

func collectSignable(bundle *UserKeyBundle) []SignableKey {
	keys := make([]SignableKey, 0, len(bundle.DeviceKeys())+3)
	for _, dk := range bundle.DeviceKeys() {
		keys = append(keys, dk)
	}
	for _, usage := range []string{UsageMaster, UsageSelfSigning, UsageUserSigning} {
		if csk := bundle.crossSigningKeys[usage]; csk != nil {
			keys = append(keys, csk)
		}
	}
	return keys
}
