package crosssign

import (
	"context"

	"github.com/google/uuid"
)

// RoomProvider creates or reuses the direct-message room a verification
// request is sent into. It's a thin seam over whatever transport the host
// application uses; this package never talks to a network itself (spec §1
// non-goals).
type RoomProvider interface {
	// DirectRoomWith returns the room id of an existing (or newly created)
	// direct chat with targetUserID.
	DirectRoomWith(ctx context.Context, targetUserID string) (roomID string, err error)
}

// VerificationRegistry tracks in-flight key-verification sessions so a host
// can look one up again (e.g. to cancel it, or to apply its outcome) without
// this package needing to own any transport state.
type VerificationRegistry interface {
	Register(session *KeyVerificationSession)
}

// KeyVerificationSession is the bookkeeping record for one in-progress
// interactive verification (spec §6). It deliberately carries no protocol
// state machine — that belongs to whatever SAS/QR transport the host wires
// up — only the identity of what's being verified and where.
type KeyVerificationSession struct {
	ID           string
	RequesterID  string // d.selfUserID, always
	TargetUserID string
	TargetDeviceID string // "*" for a self-verification broadcast; otherwise as passed by the caller
	RoomID       string
	SelfVerification bool // true when TargetUserID == RequesterID
}

// StartVerification begins an interactive verification with targetUserID
// (spec §6). Two shapes are distinguished because they have different
// transport requirements: verifying your own identity is a broadcast to all
// of your devices (TargetDeviceID "*", no room), while verifying someone
// else's identity is routed through a direct-message room the RoomProvider
// must be able to produce — and is the one place RoomCreationFailed can
// surface.
func (d *TrustDirectory) StartVerification(ctx context.Context, rooms RoomProvider, registry VerificationRegistry, targetUserID, targetDeviceID string) (*KeyVerificationSession, error) {
	session := &KeyVerificationSession{
		ID:               uuid.New().String(),
		RequesterID:      d.selfUserID,
		TargetUserID:     targetUserID,
		TargetDeviceID:   targetDeviceID,
		SelfVerification: targetUserID == d.selfUserID,
	}

	if session.SelfVerification {
		session.TargetDeviceID = "*"
	} else {
		roomID, err := rooms.DirectRoomWith(ctx, targetUserID)
		if err != nil {
			return nil, &RoomCreationFailed{TargetUserID: targetUserID, Cause: err}
		}
		session.RoomID = roomID
	}

	if registry != nil {
		registry.Register(session)
	}
	return session, nil
}
