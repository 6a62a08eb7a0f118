package service

import "net/url"

// Outcome is the terminal result of a successfully executed command: the
// page the user should land on next.
type Outcome struct {
	Redirect string
}

// FormError is an expected user-input failure. The user is sent back to the
// originating form with the message carried in the error query parameter,
// rather than seeing a failure page.
type FormError struct {
	BackTo  string
	Message string
}

func (e *FormError) Error() string { return e.Message }

// Location is the redirect target carrying the URL-encoded message.
func (e *FormError) Location() string {
	return e.BackTo + "?error=" + url.QueryEscape(e.Message)
}

// Invalidator receives stale-page signals after each successful write so the
// presentation layer recomputes cached output for the affected paths.
type Invalidator interface {
	Invalidate(paths ...string)
}
