// Package report renders every user-facing reply the relay sends back to
// the chat. Keeping the strings in one place keeps the bot and the queue
// worker out of the formatting business.
package report

import (
	"fmt"
	"time"

	"github.com/techpathai/learnyst-relay/internal/command"
)

// Queued acknowledges a freshly enqueued command with its queue position.
func Queued(position int) string {
	return fmt.Sprintf("Your command has been queued. Position in queue: %d", position)
}

// Processing announces that a command reached the front of the queue.
func Processing(cmd command.Command) string {
	switch cmd.Intent {
	case command.IntentGiveAccess:
		return fmt.Sprintf("Processing request to give access to %s for %s...", cmd.Email, cmd.CourseName)
	case command.IntentEnrollUser:
		return fmt.Sprintf("Processing request to enroll %s (%s) to %s...", cmd.FullName, cmd.Email, cmd.CourseName)
	case command.IntentSuspendUser:
		return fmt.Sprintf("Processing request to suspend user %s...", cmd.Email)
	case command.IntentDeleteUser:
		return fmt.Sprintf("Processing request to delete user %s...", cmd.Email)
	default:
		return fmt.Sprintf("Processing request for %s...", cmd.Email)
	}
}

// Success is the canned confirmation for a completed command.
func Success(cmd command.Command) string {
	switch cmd.Intent {
	case command.IntentGiveAccess:
		return fmt.Sprintf("✅ Successfully granted access to %s for %s", cmd.CourseName, cmd.Email)
	case command.IntentEnrollUser:
		return fmt.Sprintf("✅ Successfully enrolled %s (%s) with access to %s", cmd.FullName, cmd.Email, cmd.CourseName)
	case command.IntentSuspendUser:
		return fmt.Sprintf("✅ Successfully suspended user: %s", cmd.Email)
	case command.IntentDeleteUser:
		return fmt.Sprintf("✅ Successfully deleted user: %s", cmd.Email)
	default:
		return fmt.Sprintf("✅ Successfully processed request for %s", cmd.Email)
	}
}

// Retry announces the next attempt and how long the pacing delay holds it.
func Retry(delay time.Duration, nextAttempt, maxAttempts int) string {
	return fmt.Sprintf("Retrying command in %s... (Attempt %d/%d)", formatDelay(delay), nextAttempt, maxAttempts)
}

// Failed is the single final-failure notice after all attempts burn out.
func Failed(attempts int, lastMessage string) string {
	if lastMessage == "" {
		return fmt.Sprintf("❌ Command failed after %d attempts", attempts)
	}
	return fmt.Sprintf("❌ Command failed after %d attempts: %s", attempts, lastMessage)
}

// InvalidCourse rejects a command whose course code is not in the catalog.
func InvalidCourse(codes string) string {
	return fmt.Sprintf("Invalid course code. Available codes: %s", codes)
}

// Usage describes the full grammar for addressed messages that match none
// of the formats.
func Usage(mention, codes string) string {
	return "Invalid command format. Please use one of the following formats:\n" +
		fmt.Sprintf("1. %s email@example.com access course_code\n", mention) +
		fmt.Sprintf("2. %s email@example.com (Full Name) enroll course_code\n", mention) +
		fmt.Sprintf("3. %s email@example.com suspend\n", mention) +
		fmt.Sprintf("4. %s email@example.com delete\n", mention) +
		"\nAvailable course codes: " + codes
}

func formatDelay(d time.Duration) string {
	switch {
	case d >= time.Minute && d%time.Minute == 0:
		n := int(d / time.Minute)
		if n == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", n)
	case d >= time.Second && d%time.Second == 0:
		n := int(d / time.Second)
		if n == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", n)
	default:
		return d.String()
	}
}
