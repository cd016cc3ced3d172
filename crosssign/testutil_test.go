package crosssign

import (
	"crypto/rand"
	"encoding/base64"

	xed25519 "golang.org/x/crypto/ed25519"
)

// generateKeypair returns a fresh Ed25519 keypair for test fixtures.
func generateKeypair() (pub, priv []byte) {
	p, s, err := xed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	return p, s
}

// signContent signs a canonical content blob with priv.
func signContent(priv, content []byte) []byte {
	return xed25519.Sign(xed25519.PrivateKey(priv), content)
}

// newTestCrossSigningKey builds a valid cross-signing key for userID with the
// given usage, optionally self-consistent (no external signatures attached
// yet — callers add those separately via signKeyWith).
func newTestCrossSigningKey(userID string, usage []string, pub []byte) (*CrossSigningKey, []byte) {
	encoded := encodeRaw(pub)
	return NewCrossSigningKey(userID, encoded, usage, map[string]map[string]string{}, nil), pub
}

func newTestDeviceKey(userID, deviceID string, pub []byte, verifier Verifier) *DeviceKey {
	keys := map[string]string{"ed25519:" + deviceID: encodeRaw(pub)}
	curvePub, _ := generateKeypair()
	return NewDeviceKey(userID, deviceID, keys, map[string]map[string]string{}, nil,
		[]string{"m.olm.v1.curve25519-aes-sha2", "m.megolm.v1.aes-sha2"}, encodeRaw(curvePub), 0, verifier)
}

// selfSignDevice makes a device sign its own identity keys with its own
// private key, which is what makes DeviceKey.Blocked() return false.
func selfSignDevice(d *DeviceKey, priv []byte) {
	content, err := d.SigningContent()
	if err != nil {
		panic(err)
	}
	sig := signContent(priv, content)
	d.signatures[d.userID] = map[string]string{
		"ed25519:" + d.identifier: encodeRaw(sig),
	}
}

// signKeyWith attaches signerUserID's signature (over its signerPriv key,
// identified by signerFullKeyID) onto target's signatures map.
func signKeyWith(target SignableKey, signerUserID, signerFullKeyID string, signerPriv []byte) {
	content, err := target.SigningContent()
	if err != nil {
		panic(err)
	}
	sig := signContent(signerPriv, content)
	setSignature(target, signerUserID, signerFullKeyID, encodeRaw(sig))
}

func setSignature(target SignableKey, signerUserID, fullKeyID, sigB64 string) {
	switch k := target.(type) {
	case *DeviceKey:
		if k.signatures[signerUserID] == nil {
			k.signatures[signerUserID] = map[string]string{}
		}
		k.signatures[signerUserID][fullKeyID] = sigB64
	case *CrossSigningKey:
		if k.signatures[signerUserID] == nil {
			k.signatures[signerUserID] = map[string]string{}
		}
		k.signatures[signerUserID][fullKeyID] = sigB64
	}
}

func encodeRaw(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
