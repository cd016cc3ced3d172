package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/ratchet-sdk/crosssign/internal/errors"
)

// Store is a concrete crosssign.PersistenceHooks backed by SQLite. It only
// ever writes booleans keyed by (user_id, key_id); it holds no opinion about
// what those keys mean, leaving all trust-chain semantics to the directory
// that calls it.
type Store struct {
	db *sql.DB
}

// New wraps an already-migrated *sql.DB. Callers should have called Migrate
// on it first (or be relying on a host migration runner that eventually
// applies the same schema).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) PersistDeviceVerification(ctx context.Context, userID, deviceID string, verified bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_verifications (user_id, device_id, verified, blocked, updated_at)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT (user_id, device_id) DO UPDATE SET verified = excluded.verified, updated_at = excluded.updated_at
	`, userID, deviceID, verified, time.Now())
	if err != nil {
		return errors.Wrap(err, "failed to persist device verification")
	}
	return nil
}

func (s *Store) PersistDeviceBlock(ctx context.Context, userID, deviceID string, blocked bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_verifications (user_id, device_id, verified, blocked, updated_at)
		VALUES (?, ?, 0, ?, ?)
		ON CONFLICT (user_id, device_id) DO UPDATE SET blocked = excluded.blocked, updated_at = excluded.updated_at
	`, userID, deviceID, blocked, time.Now())
	if err != nil {
		return errors.Wrap(err, "failed to persist device block")
	}
	return nil
}

func (s *Store) PersistCrossSigningVerification(ctx context.Context, userID, keyID string, verified bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cross_signing_verifications (user_id, key_id, verified, blocked, updated_at)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT (user_id, key_id) DO UPDATE SET verified = excluded.verified, updated_at = excluded.updated_at
	`, userID, keyID, verified, time.Now())
	if err != nil {
		return errors.Wrap(err, "failed to persist cross-signing verification")
	}
	return nil
}

func (s *Store) PersistCrossSigningBlock(ctx context.Context, userID, keyID string, blocked bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cross_signing_verifications (user_id, key_id, verified, blocked, updated_at)
		VALUES (?, ?, 0, ?, ?)
		ON CONFLICT (user_id, key_id) DO UPDATE SET blocked = excluded.blocked, updated_at = excluded.updated_at
	`, userID, keyID, blocked, time.Now())
	if err != nil {
		return errors.Wrap(err, "failed to persist cross-signing block")
	}
	return nil
}

// DeviceVerificationState is the persisted local trust state for one device.
type DeviceVerificationState struct {
	Verified bool
	Blocked  bool
}

// LoadDeviceVerification rehydrates a device's persisted trust state, so a
// host can re-apply it to a freshly-built DeviceKey at startup. Returns
// (zero value, false, nil) if nothing has ever been recorded.
func (s *Store) LoadDeviceVerification(ctx context.Context, userID, deviceID string) (DeviceVerificationState, bool, error) {
	var state DeviceVerificationState
	err := s.db.QueryRowContext(ctx,
		`SELECT verified, blocked FROM device_verifications WHERE user_id = ? AND device_id = ?`,
		userID, deviceID,
	).Scan(&state.Verified, &state.Blocked)
	if err == sql.ErrNoRows {
		return DeviceVerificationState{}, false, nil
	}
	if err != nil {
		return DeviceVerificationState{}, false, errors.Wrap(err, "failed to load device verification")
	}
	return state, true, nil
}

// LoadCrossSigningVerification is the cross-signing-key analogue of
// LoadDeviceVerification.
func (s *Store) LoadCrossSigningVerification(ctx context.Context, userID, keyID string) (DeviceVerificationState, bool, error) {
	var state DeviceVerificationState
	err := s.db.QueryRowContext(ctx,
		`SELECT verified, blocked FROM cross_signing_verifications WHERE user_id = ? AND key_id = ?`,
		userID, keyID,
	).Scan(&state.Verified, &state.Blocked)
	if err == sql.ErrNoRows {
		return DeviceVerificationState{}, false, nil
	}
	if err != nil {
		return DeviceVerificationState{}, false, errors.Wrap(err, "failed to load cross-signing verification")
	}
	return state, true, nil
}
