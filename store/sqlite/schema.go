// Package sqlite persists local trust decisions (device/cross-signing key
// verification and block state) to SQLite, so a host application's
// TrustDirectory can be rehydrated across restarts instead of re-deriving
// every decision from scratch.
package sqlite

import (
	"database/sql"

	"github.com/ratchet-sdk/crosssign/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS device_verifications (
	user_id    TEXT NOT NULL,
	device_id  TEXT NOT NULL,
	verified   BOOLEAN NOT NULL DEFAULT 0,
	blocked    BOOLEAN NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, device_id)
);

CREATE TABLE IF NOT EXISTS cross_signing_verifications (
	user_id    TEXT NOT NULL,
	key_id     TEXT NOT NULL,
	verified   BOOLEAN NOT NULL DEFAULT 0,
	blocked    BOOLEAN NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, key_id)
);

CREATE TABLE IF NOT EXISTS webauthn_credentials (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	device_id        TEXT NOT NULL,
	credential_id    BLOB NOT NULL,
	public_key       BLOB NOT NULL,
	attestation_type TEXT NOT NULL,
	aaguid           BLOB,
	sign_count       INTEGER NOT NULL DEFAULT 0,
	backup_eligible  BOOLEAN NOT NULL DEFAULT 0,
	backup_state     BOOLEAN NOT NULL DEFAULT 0,
	created_at       TIMESTAMP NOT NULL
);
`

// Migrate creates the persistence tables if they don't already exist. Safe
// to call on every startup.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return errors.Wrap(err, "failed to migrate crosssign persistence schema")
	}
	return nil
}
