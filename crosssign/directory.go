package crosssign

import (
	"github.com/ratchet-sdk/crosssign/internal/logger"
)

// TrustDirectory is the root object of the trust-evaluation core: a
// collection of per-user key bundles, plus the one self_user_id whose
// attestations (alongside those made by the key's own user through its other
// keys) are honored when walking a signature chain (spec §4, "TrustDirectory").
//
// Edges in the signature graph are looked up against this directory by
// (user_id, key_id) rather than followed as pointers between key objects —
// keys never hold a reference to their signer, only the detached signature
// bytes. That keeps key construction order-independent: a device's signer
// doesn't need to exist yet when the device itself is built.
type TrustDirectory struct {
	selfUserID        string
	encryptionEnabled bool
	verifier          Verifier

	bundles map[string]*UserKeyBundle
	hooks   VerificationHooks
}

// NewTrustDirectory constructs an empty directory anchored at selfUserID —
// the local user, whose own attestations are always honored regardless of
// who they're about.
func NewTrustDirectory(selfUserID string, verifier Verifier) *TrustDirectory {
	if verifier == nil {
		verifier = UnavailableVerifier{}
	}
	return &TrustDirectory{
		selfUserID: selfUserID,
		verifier:   verifier,
		bundles:    map[string]*UserKeyBundle{},
		hooks:      VerificationHooks{CrossSigning: noopCrossSigningHooks{}},
	}
}

func (d *TrustDirectory) SelfUserID() string { return d.selfUserID }

// SetEncryptionEnabled flips whether end-to-end encryption is active for
// this session. EncryptToDevice refuses to recommend encrypting to any
// device while this is false (spec §4.6).
func (d *TrustDirectory) SetEncryptionEnabled(enabled bool) { d.encryptionEnabled = enabled }
func (d *TrustDirectory) EncryptionEnabled() bool           { return d.encryptionEnabled }

// PutBundle registers (or replaces) a user's key bundle.
func (d *TrustDirectory) PutBundle(b *UserKeyBundle) {
	d.bundles[b.UserID()] = b
}

// Bundle returns the bundle for a user, or nil if the directory has never
// seen one.
func (d *TrustDirectory) Bundle(userID string) *UserKeyBundle {
	return d.bundles[userID]
}

// Verified reports whether key is trusted under the strict policy: the
// signature chain must bottom out at a key that is directly, locally
// verified (spec §4.7's "verified_only" policy).
func (d *TrustDirectory) Verified(key SignableKey) bool {
	return d.hasValidSignatureChain(key, true, map[string]bool{})
}

// Signed reports whether key is trusted under the permissive policy: any
// self-consistent chain of valid signatures counts, even if no key in it has
// ever been directly verified by the local user (spec §4.7's "any-signed"
// policy). This is weaker than Verified and is meant for UI states like "has
// cross-signed devices" rather than for gating encryption decisions.
func (d *TrustDirectory) Signed(key SignableKey) bool {
	return d.hasValidSignatureChain(key, false, map[string]bool{})
}

// CrossVerified is an alias for Verified scoped to cross-signing keys,
// matching the vocabulary spec §4.6 uses when describing a user's master key
// state specifically.
func (d *TrustDirectory) CrossVerified(key *CrossSigningKey) bool {
	return d.Verified(key)
}

// EncryptToDevice reports whether it's safe to encrypt to a device: devices
// don't anchor trust decisions like cross-signing keys do, so blocked
// state — not verification depth — is the only thing checked, on top of the
// session-wide encryption toggle (spec §4.6).
func (d *TrustDirectory) EncryptToDevice(device *DeviceKey) bool {
	if !d.encryptionEnabled {
		return false
	}
	return !device.Blocked()
}

// hasValidSignatureChain is the recursive core (spec §4.7). It walks
// outward from key through the signatures attached to it, honoring only
// signers who are either the key's own user (self-attestation) or the
// directory's self_user_id (local-user attestation) — a third party vouching
// for someone else's key is never, on its own, sufficient to extend trust.
//
//  1. Cycle guard: a (user_id, key_id) pair already expanded anywhere in
//     this walk (the visited set is shared across all branches) aborts
//     immediately rather than recursing forever.
//  2. Base case: a blocked key never anchors a chain; a directly verified
//     key always does (verifiedOnly has no bearing on this check — a human
//     verification is definitionally the strongest anchor there is).
//  3. Otherwise, for every signature on key from an honored signer, resolve
//     the signer's own key, verify the detached signature (consulting and
//     populating key's signature cache so repeat walks over the same edge
//     are O(1)), and recurse into the signer.
//  4. Under the strict (verifiedOnly) policy, a signer edge only counts once
//     the signer itself resolves to a valid chain — recursion continues
//     until it bottoms out at a directly verified anchor. Under the
//     permissive (any-signed) policy, a single well-formed signature from
//     an honored signer is sufficient on its own; the signer need not also
//     resolve to a verified anchor.
func (d *TrustDirectory) hasValidSignatureChain(key SignableKey, verifiedOnly bool, visited map[string]bool) bool {
	if key == nil {
		return false
	}

	visitID := key.UserID() + ";" + key.Identifier()
	if visited[visitID] {
		return false
	}
	visited[visitID] = true

	if key.Blocked() {
		return false
	}
	if key.DirectVerified() {
		return true
	}

	for signerUserID, sigsByKeyID := range key.Signatures() {
		if signerUserID != d.selfUserID && signerUserID != key.UserID() {
			continue
		}

		bundle := d.bundles[signerUserID]
		if bundle == nil {
			continue
		}

		for fullKeyID, sigB64 := range sigsByKeyID {
			signerKey := bundle.resolveSignerKeyID(fullKeyID)
			if signerKey == nil || KeyEquals(signerKey, key) {
				continue
			}

			valid, known := key.cacheLookup(signerUserID, fullKeyID)
			if !known {
				valid = d.verifySignature(key, signerKey, sigB64)
				key.cacheStore(signerUserID, fullKeyID, valid)
			}
			if !valid {
				continue
			}

			if !verifiedOnly {
				logger.Debugw("signature chain anchored (any-signed)",
					logger.FieldUserID, key.UserID(),
					logger.FieldKeyID, key.Identifier(),
					logger.FieldSignerID, signerUserID,
				)
				return true
			}

			if d.hasValidSignatureChain(signerKey, verifiedOnly, visited) {
				logger.Debugw("signature chain anchored",
					logger.FieldUserID, key.UserID(),
					logger.FieldKeyID, key.Identifier(),
					logger.FieldSignerID, signerUserID,
				)
				return true
			}
		}
	}

	return false
}

func (d *TrustDirectory) verifySignature(key, signerKey SignableKey, sigB64 string) bool {
	pubKey, ok := signerKey.Ed25519Key()
	if !ok {
		return false
	}
	sig, err := decodeKeyMaterial(sigB64)
	if err != nil {
		return false
	}
	content, err := key.SigningContent()
	if err != nil {
		return false
	}
	return d.verifier.Verify(pubKey, content, sig) == ResultValid
}
