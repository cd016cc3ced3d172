package crosssign

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRoomProvider struct {
	roomID string
	err    error
}

func (s stubRoomProvider) DirectRoomWith(_ context.Context, _ string) (string, error) {
	return s.roomID, s.err
}

type stubRegistry struct {
	registered []*KeyVerificationSession
}

func (r *stubRegistry) Register(s *KeyVerificationSession) {
	r.registered = append(r.registered, s)
}

func TestStartVerification_SelfVerificationSkipsRoomCreation(t *testing.T) {
	dir := newTestDirectory("@me:example.org")
	registry := &stubRegistry{}

	session, err := dir.StartVerification(context.Background(), stubRoomProvider{}, registry, "@me:example.org", "OTHERDEVICE")
	require.NoError(t, err)
	assert.True(t, session.SelfVerification)
	assert.Empty(t, session.RoomID)
	assert.Len(t, registry.registered, 1)
}

func TestStartVerification_OtherUserCreatesRoom(t *testing.T) {
	dir := newTestDirectory("@me:example.org")
	registry := &stubRegistry{}

	session, err := dir.StartVerification(context.Background(), stubRoomProvider{roomID: "!room:example.org"}, registry, "@bob:example.org", "")
	require.NoError(t, err)
	assert.False(t, session.SelfVerification)
	assert.Equal(t, "!room:example.org", session.RoomID)
}

func TestStartVerification_RoomCreationFailure(t *testing.T) {
	dir := newTestDirectory("@me:example.org")
	boom := assertAnError{}

	_, err := dir.StartVerification(context.Background(), stubRoomProvider{err: boom}, nil, "@bob:example.org", "")
	require.Error(t, err)
	var roomErr *RoomCreationFailed
	require.ErrorAs(t, err, &roomErr)
	assert.Equal(t, "@bob:example.org", roomErr.TargetUserID)
}

type assertAnError struct{}

func (assertAnError) Error() string { return "room service unavailable" }
