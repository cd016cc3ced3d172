// Package crosssign implements the cross-signing trust-evaluation core: the
// signable-key data model, the recursive signature-chain validator, and the
// per-user verification rollup that together decide whether an Ed25519 key
// belonging to any user is trusted.
package crosssign

import (
	"encoding/base64"
	"strings"
)

// SignableKey is the contract shared by DeviceKey and CrossSigningKey (spec
// §3, §4.3). It is intentionally small: the two concrete kinds differ enough
// in validity and self-signature rules that a capability interface, rather
// than a deep inheritance tree, is the right shape (spec §9 "Variant
// dispatch").
type SignableKey interface {
	UserID() string
	Identifier() string
	Ed25519Key() ([]byte, bool)
	IsValid() bool
	Blocked() bool
	DirectVerified() bool
	Signatures() map[string]map[string]string
	SigningContent() ([]byte, error)

	// SetBlocked sets the local block flag in memory only; persistence via
	// the injected hooks happens in TrustDirectory.BlockDevice /
	// BlockCrossSigningKey. Invalid keys behave per-variant (spec §4.4 vs §4.5).
	SetBlocked(blocked bool) error

	// cacheLookup/cacheStore give the directory's chain walker access to
	// this key's private signature_cache without exposing it publicly.
	cacheLookup(signerUserID, fullKeyID string) (bool, bool)
	cacheStore(signerUserID, fullKeyID string, valid bool)
}

// KeyEquals implements the equality rule from spec §4.3: two keys are equal
// iff their (user_id, identifier) pair matches.
func KeyEquals(a, b SignableKey) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UserID() == b.UserID() && a.Identifier() == b.Identifier()
}

// baseKey holds the state common to every SignableKey variant (spec §3).
type baseKey struct {
	userID         string
	identifier     string
	keys           map[string]string            // "algo:id" -> base64 public material
	signatures     map[string]map[string]string // user_id -> "algo:key_id" -> base64 signature
	unsigned       map[string]interface{}
	directVerified bool
	blocked        bool

	// signature_cache: signer user id -> full "algo:key_id" -> verified.
	// Append-only for the lifetime of the key (spec §3, §8): once a tuple is
	// cached the underlying (signing content, signer pubkey, signature) can
	// never change, because the key itself is immutable once constructed.
	sigCache map[string]map[string]bool
}

func newBaseKey(userID, identifier string, keys map[string]string, signatures map[string]map[string]string, unsigned map[string]interface{}) baseKey {
	if signatures == nil {
		signatures = map[string]map[string]string{}
	}
	if keys == nil {
		keys = map[string]string{}
	}
	return baseKey{
		userID:     userID,
		identifier: identifier,
		keys:       keys,
		signatures: signatures,
		unsigned:   unsigned,
		sigCache:   map[string]map[string]bool{},
	}
}

func (k *baseKey) UserID() string     { return k.userID }
func (k *baseKey) Identifier() string { return k.identifier }
func (k *baseKey) Blocked() bool      { return k.blocked }
func (k *baseKey) DirectVerified() bool { return k.directVerified }

func (k *baseKey) Signatures() map[string]map[string]string {
	return k.signatures
}

// Ed25519Key returns the decoded ed25519:<identifier> public key material,
// or false if absent (spec §3: "Must contain an ed25519:<identifier> entry
// for the key to be usable").
func (k *baseKey) Ed25519Key() ([]byte, bool) {
	if k.identifier == "" {
		return nil, false
	}
	encoded, ok := k.keys["ed25519:"+k.identifier]
	if !ok {
		return nil, false
	}
	decoded, err := decodeKeyMaterial(encoded)
	if err != nil {
		return nil, false
	}
	return decoded, true
}

func (k *baseKey) cacheLookup(signerUserID, fullKeyID string) (bool, bool) {
	perSigner, ok := k.sigCache[signerUserID]
	if !ok {
		return false, false
	}
	v, ok := perSigner[fullKeyID]
	return v, ok
}

func (k *baseKey) cacheStore(signerUserID, fullKeyID string, valid bool) {
	if k.sigCache[signerUserID] == nil {
		k.sigCache[signerUserID] = map[string]bool{}
	}
	k.sigCache[signerUserID][fullKeyID] = valid
}

// decodeKeyMaterial accepts either standard or unpadded-standard base64, the
// two encodings the wire format is realistically seen in.
func decodeKeyMaterial(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
