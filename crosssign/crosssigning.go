package crosssign

// Cross-signing key usages (spec §3, "CrossSigningKey").
const (
	UsageMaster      = "master"
	UsageSelfSigning = "self_signing"
	UsageUserSigning = "user_signing"
)

// CrossSigningKey models a user's master, self-signing, or user-signing key.
// Unlike DeviceKey, a cross-signing key carries no self-signature requirement
// — its validity is purely structural, and its trust comes entirely from the
// signature chain the directory walks against it (spec §4.5, §4.7).
type CrossSigningKey struct {
	baseKey

	usage []string
}

// NewCrossSigningKey constructs a cross-signing key for one of the master,
// self_signing, or user_signing roles.
func NewCrossSigningKey(userID, publicKey string, usage []string, signatures map[string]map[string]string, unsigned map[string]interface{}) *CrossSigningKey {
	keys := map[string]string{"ed25519:" + publicKey: publicKey}
	return &CrossSigningKey{
		baseKey: newBaseKey(userID, publicKey, keys, signatures, unsigned),
		usage:   usage,
	}
}

func (c *CrossSigningKey) Usage() []string { return c.usage }

// HasUsage reports whether this key is declared for the given role.
func (c *CrossSigningKey) HasUsage(usage string) bool {
	for _, u := range c.usage {
		if u == usage {
			return true
		}
	}
	return false
}

// PublicKey is an alias for Ed25519Key: a cross-signing key's identifier IS
// its own public key material (spec §3), unlike a device, whose identifier
// is an opaque device id.
func (c *CrossSigningKey) PublicKey() ([]byte, bool) { return c.Ed25519Key() }

func (c *CrossSigningKey) signableAttrs() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    c.userID,
		"usage":      c.usage,
		"keys":       c.keys,
		"signatures": c.signatures,
		"unsigned":   c.unsigned,
	}
}

func (c *CrossSigningKey) SigningContent() ([]byte, error) {
	return CanonicalJSON(c.signableAttrs())
}

// IsValid requires a non-empty user id, a present public key, a non-empty
// keys map, and a structurally usable ed25519 key (spec §4.5).
func (c *CrossSigningKey) IsValid() bool {
	if c.userID == "" || c.identifier == "" {
		return false
	}
	if len(c.keys) == 0 {
		return false
	}
	_, ok := c.Ed25519Key()
	return ok
}

// SetVerified marks this cross-signing key as directly, locally verified.
// Unlike DeviceKey, an invalid key raises InvalidKeyError instead of
// no-opping: a cross-signing key gates every transitive trust decision made
// through it, so silently ignoring a malformed one would make a whole trust
// chain look solid when it is not (spec §4.5).
func (c *CrossSigningKey) SetVerified(verified bool) error {
	if !c.IsValid() {
		return &InvalidKeyError{UserID: c.userID, Identifier: c.identifier, Reason: "key is not structurally valid"}
	}
	c.directVerified = verified
	return nil
}

// SetBlocked sets the local block flag, with the same invalid-key behavior
// as SetVerified.
func (c *CrossSigningKey) SetBlocked(blocked bool) error {
	if !c.IsValid() {
		return &InvalidKeyError{UserID: c.userID, Identifier: c.identifier, Reason: "key is not structurally valid"}
	}
	c.blocked = blocked
	return nil
}
