package hwkey

import (
	"context"
	"net/http"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/ratchet-sdk/crosssign"
	"github.com/ratchet-sdk/crosssign/internal/errors"
)

// enrollee adapts a (user_id, device_id) pair to the webauthn.User
// interface. A hardware key is enrolled once per device, not once per
// account, so WebAuthnID is the device identifier rather than the bare user
// id — letting the same user enroll a distinct hardware key per device.
type enrollee struct {
	userID, deviceID string
	existing         []webauthn.Credential
}

func (e enrollee) WebAuthnID() []byte                         { return []byte(e.userID + "/" + e.deviceID) }
func (e enrollee) WebAuthnName() string                       { return e.deviceID }
func (e enrollee) WebAuthnDisplayName() string                { return e.userID + " (" + e.deviceID + ")" }
func (e enrollee) WebAuthnCredentials() []webauthn.Credential { return e.existing }

// Enrollment runs WebAuthn registration ceremonies that anchor a DeviceKey's
// direct verification in a hardware authenticator, grounded in the same
// begin/finish ceremony shape a browser-facing login flow uses — but here
// the outcome feeds crosssign.TrustDirectory.VerifyDevice instead of a login
// session.
type Enrollment struct {
	webauthn *webauthn.WebAuthn
	creds    *CredentialStore
}

// New configures an Enrollment. rpOrigins are the origins a ceremony is
// allowed to be initiated from; the WebAuthn spec calls this the relying
// party's origin set.
func New(rpDisplayName, rpID string, rpOrigins []string, creds *CredentialStore) (*Enrollment, error) {
	w, err := webauthn.New(&webauthn.Config{
		RPDisplayName: rpDisplayName,
		RPID:          rpID,
		RPOrigins:     rpOrigins,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create WebAuthn instance")
	}
	return &Enrollment{webauthn: w, creds: creds}, nil
}

// BeginEnrollment starts a registration ceremony for userID/deviceID. The
// returned options are sent to the host's client for the browser/platform
// authenticator to act on; sessionData must be held by the caller (e.g. in
// a short-lived server-side cache keyed by deviceID) until FinishEnrollment.
func (e *Enrollment) BeginEnrollment(userID, deviceID string) (*protocol.CredentialCreation, *webauthn.SessionData, error) {
	existing, err := e.creds.ForDevice(userID, deviceID)
	if err != nil {
		return nil, nil, err
	}
	options, session, err := e.webauthn.BeginRegistration(enrollee{userID: userID, deviceID: deviceID, existing: existing})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to begin hardware-key enrollment for %s/%s", userID, deviceID)
	}
	return options, session, nil
}

// FinishEnrollment completes a registration ceremony: it validates the
// authenticator's response against the session started by BeginEnrollment,
// persists the resulting credential, and — on success — marks the device
// directly verified through dir (spec §4.4's direct-verification anchor,
// reached here via hardware possession instead of an emoji comparison).
func (e *Enrollment) FinishEnrollment(ctx context.Context, dir *crosssign.TrustDirectory, device *crosssign.DeviceKey, session webauthn.SessionData, req *http.Request) error {
	existing, err := e.creds.ForDevice(device.UserID(), device.Identifier())
	if err != nil {
		return err
	}
	cred, err := e.webauthn.FinishRegistration(enrollee{userID: device.UserID(), deviceID: device.Identifier(), existing: existing}, session, req)
	if err != nil {
		return errors.Wrapf(err, "failed to finish hardware-key enrollment for %s/%s", device.UserID(), device.Identifier())
	}

	if err := e.creds.Save(device.UserID(), device.Identifier(), *cred); err != nil {
		return err
	}

	return dir.VerifyDevice(ctx, device, true)
}
