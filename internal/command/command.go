// Package command defines the chat command grammar and the typed intents it
// produces.
package command

// Intent identifies one admin-console action. The values double as the
// action names on the automation wire protocol.
type Intent string

const (
	IntentGiveAccess  Intent = "give_access"
	IntentEnrollUser  Intent = "enroll_user"
	IntentSuspendUser Intent = "suspend_user"
	IntentDeleteUser  Intent = "delete_user"
)

// Command is one fully parsed chat command with its course code already
// resolved against the catalog.
type Command struct {
	Intent     Intent
	Email      string
	FullName   string
	CourseCode string
	CourseName string
}
