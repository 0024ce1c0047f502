package notify

import "errors"

var (
	// ErrNoRecipient is returned for events without a recipient.
	ErrNoRecipient = errors.New("event has no recipient")
	// ErrMissingUser is returned when a websocket upgrade has no caller identity.
	ErrMissingUser = errors.New("missing user id")
	// ErrHubClosed is returned after Close.
	ErrHubClosed = errors.New("websocket hub is closed")
)
