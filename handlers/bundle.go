// File: remindful/handlers/bundle.go
package handlers

import (
	"remindful/services/identity"
)

// HandlerBundle groups all endpoint handlers into one struct for route
// registration.
type HandlerBundle struct {
	// Sessions backs the auth middleware guarding protected routes.
	Sessions identity.SessionStore

	Auth      *AuthHandler
	Reminders *ReminderHandler
	Ops       *OpsHandler
}
