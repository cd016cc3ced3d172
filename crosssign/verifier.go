package crosssign

import (
	xed25519 "golang.org/x/crypto/ed25519"
)

// VerifyResult is the three-valued outcome of a signature check. Unlike a
// plain bool, it distinguishes "the signature didn't check out" from "we
// couldn't even try" — callers interpret the latter per call site (see
// DeviceKey.selfSigned and TrustDirectory.hasValidSignatureChain).
type VerifyResult int

const (
	ResultInvalid VerifyResult = iota
	ResultValid
	ResultUnavailable
)

// Verifier checks a detached Ed25519 signature. Implementations must be safe
// for concurrent use; the core never holds one across a suspension point.
type Verifier interface {
	Verify(pubKey, message, signature []byte) VerifyResult
}

// Ed25519Verifier is the production Verifier, backed by
// golang.org/x/crypto/ed25519. Each call is a scoped acquisition: no state is
// held between calls. Wrong-size keys and signatures are rejected up front as
// ResultInvalid; any panic that still escapes the primitive is converted to
// ResultUnavailable rather than propagating, so one bad key can never take
// down an entire chain walk.
type Ed25519Verifier struct{}

// NewEd25519Verifier returns the production verifier.
func NewEd25519Verifier() *Ed25519Verifier {
	return &Ed25519Verifier{}
}

func (Ed25519Verifier) Verify(pubKey, message, signature []byte) (result VerifyResult) {
	defer func() {
		if r := recover(); r != nil {
			result = ResultUnavailable
		}
	}()

	if len(pubKey) != xed25519.PublicKeySize || len(signature) != xed25519.SignatureSize {
		// Malformed input is a failed verification, not an absent primitive
		// (spec §4.2) — ResultUnavailable is reserved for the primitive
		// itself being unusable, never for bad key/signature material.
		return ResultInvalid
	}

	if xed25519.Verify(xed25519.PublicKey(pubKey), message, signature) {
		return ResultValid
	}
	return ResultInvalid
}

// UnavailableVerifier models the primitive being absent at runtime — the
// same situation a client built for an environment where the native Ed25519
// binding failed to load (or was never linked in) would face. Every call
// reports ResultUnavailable, letting callers exercise the "primitive not
// loaded" code paths described in spec §4.4 and §4.7 without needing a
// build-tag variant.
type UnavailableVerifier struct{}

func (UnavailableVerifier) Verify(_, _, _ []byte) VerifyResult {
	return ResultUnavailable
}
