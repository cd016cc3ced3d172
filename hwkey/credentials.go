// Package hwkey anchors DeviceKey verification in a hardware authenticator
// (a security key or platform authenticator) via WebAuthn, as an alternative
// to an out-of-band emoji/QR comparison. Enrolling a hardware key for a
// device is treated as a local action equivalent to SAS verification: once
// the ceremony succeeds, the device is marked directly verified.
package hwkey

import (
	"database/sql"
	"encoding/hex"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/ratchet-sdk/crosssign/internal/errors"
)

// CredentialStore persists enrolled WebAuthn credentials, scoped to the
// (user, device) pair they were enrolled to verify.
type CredentialStore struct {
	db *sql.DB
}

// NewCredentialStore wraps an already-migrated *sql.DB (store/sqlite.Migrate
// creates the webauthn_credentials table alongside crosssign's own tables).
func NewCredentialStore(db *sql.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// Save records a newly enrolled credential for userID/deviceID.
func (s *CredentialStore) Save(userID, deviceID string, cred webauthn.Credential) error {
	id := hex.EncodeToString(cred.ID)
	_, err := s.db.Exec(
		`INSERT INTO webauthn_credentials
		 (id, user_id, device_id, credential_id, public_key, attestation_type, aaguid, sign_count, backup_eligible, backup_state, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		id, userID, deviceID, cred.ID, cred.PublicKey, cred.AttestationType, cred.Authenticator.AAGUID, cred.Authenticator.SignCount,
		cred.Flags.BackupEligible, cred.Flags.BackupState,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to save webauthn credential %s", id)
	}
	return nil
}

// ForDevice returns every credential enrolled against userID/deviceID.
func (s *CredentialStore) ForDevice(userID, deviceID string) ([]webauthn.Credential, error) {
	rows, err := s.db.Query(
		`SELECT credential_id, public_key, attestation_type, aaguid, sign_count, backup_eligible, backup_state
		 FROM webauthn_credentials WHERE user_id = ? AND device_id = ?`,
		userID, deviceID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query webauthn credentials")
	}
	defer rows.Close()

	var creds []webauthn.Credential
	for rows.Next() {
		var (
			credID          []byte
			publicKey       []byte
			attestationType string
			aaguid          []byte
			signCount       uint32
			backupEligible  bool
			backupState     bool
		)
		if err := rows.Scan(&credID, &publicKey, &attestationType, &aaguid, &signCount, &backupEligible, &backupState); err != nil {
			return nil, errors.Wrap(err, "failed to scan webauthn credential row")
		}
		creds = append(creds, webauthn.Credential{
			ID:              credID,
			PublicKey:       publicKey,
			AttestationType: attestationType,
			Flags: webauthn.CredentialFlags{
				BackupEligible: backupEligible,
				BackupState:    backupState,
			},
			Authenticator: webauthn.Authenticator{
				AAGUID:    aaguid,
				SignCount: signCount,
			},
		})
	}
	return creds, rows.Err()
}

// UpdateSignCount records a new signature counter after a successful
// authentication ceremony, guarding against cloned authenticators.
func (s *CredentialStore) UpdateSignCount(credID []byte, newCount uint32) error {
	id := hex.EncodeToString(credID)
	_, err := s.db.Exec(`UPDATE webauthn_credentials SET sign_count = ? WHERE id = ?`, newCount, id)
	if err != nil {
		return errors.Wrapf(err, "failed to update sign count for credential %s", id)
	}
	return nil
}
