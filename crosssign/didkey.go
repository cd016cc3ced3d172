package crosssign

import (
	"github.com/mr-tron/base58"

	"github.com/ratchet-sdk/crosssign/internal/errors"
)

// did:key multicodec prefix for ed25519-pub (0xed, 0x01), per the
// multiformats registry.
var ed25519Multicodec = [2]byte{0xed, 0x01}

// EncodeDIDKey encodes a raw 32-byte Ed25519 public key as a did:key
// identifier (did:key:z + base58btc(multicodec prefix + key)). Cross-signing
// keys and device keys are addressed by opaque identifiers in the core trust
// model, but hosts that want an interoperable, self-describing form for
// export or QR-code verification can use this instead.
func EncodeDIDKey(pubKey []byte) (string, error) {
	if len(pubKey) != 32 {
		return "", errors.Newf("ed25519 public key must be 32 bytes, got %d", len(pubKey))
	}
	buf := make([]byte, 2+len(pubKey))
	buf[0] = ed25519Multicodec[0]
	buf[1] = ed25519Multicodec[1]
	copy(buf[2:], pubKey)
	return "did:key:z" + base58.Encode(buf), nil
}

// DecodeDIDKey extracts the raw Ed25519 public key from a did:key:z...
// identifier.
func DecodeDIDKey(did string) ([]byte, error) {
	const prefix = "did:key:z"
	if len(did) <= len(prefix) || did[:len(prefix)] != prefix {
		return nil, errors.Newf("invalid did:key format: %s", did)
	}

	decoded, err := base58.Decode(did[len(prefix):])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to base58-decode did:key %s", did)
	}

	if len(decoded) != 34 {
		return nil, errors.Newf("unexpected decoded length %d for did:key %s (expected 34)", len(decoded), did)
	}
	if decoded[0] != ed25519Multicodec[0] || decoded[1] != ed25519Multicodec[1] {
		return nil, errors.Newf("unexpected multicodec prefix [%x %x] for did:key %s", decoded[0], decoded[1], did)
	}

	return decoded[2:], nil
}
