package invites

import "errors"

// Error taxonomy for the invitation workflow. Handlers map these with
// errors.Is; details are attached via fmt.Errorf %w wrapping.
var (
	// ErrValidation covers missing or malformed fields at creation time.
	ErrValidation = errors.New("invalid invitation")

	// ErrInviteNotFound means the invitation id resolves to no record.
	ErrInviteNotFound = errors.New("invitation not found")

	// ErrAlreadyAccepted means the invitation was already redeemed; the same
	// id can never be redeemed again.
	ErrAlreadyAccepted = errors.New("invitation already accepted")

	// ErrEmailMismatch means the authenticated email does not match the
	// invited address. Security-relevant, never coerced.
	ErrEmailMismatch = errors.New("email mismatch")

	// ErrOnboardingFailed means the onboarding write set could not commit and
	// was rolled back entirely. Accepting again is safe while the invitation
	// is still pending.
	ErrOnboardingFailed = errors.New("onboarding failed")
)
