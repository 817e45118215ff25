package report

import (
	"testing"
	"time"

	"github.com/techpathai/learnyst-relay/internal/command"
)

func TestQueued(t *testing.T) {
	got := Queued(2)
	want := "Your command has been queued. Position in queue: 2"
	if got != want {
		t.Fatalf("Queued(2) = %q, want %q", got, want)
	}
}

func TestSuccessPerIntent(t *testing.T) {
	access := command.Command{Intent: command.IntentGiveAccess, Email: "a@b.co", CourseName: "Full Stack 1"}
	if got, want := Success(access), "✅ Successfully granted access to Full Stack 1 for a@b.co"; got != want {
		t.Fatalf("Success(access) = %q, want %q", got, want)
	}

	enroll := command.Command{Intent: command.IntentEnrollUser, Email: "a@b.co", FullName: "Jane Doe", CourseName: "Ownership"}
	if got, want := Success(enroll), "✅ Successfully enrolled Jane Doe (a@b.co) with access to Ownership"; got != want {
		t.Fatalf("Success(enroll) = %q, want %q", got, want)
	}

	suspend := command.Command{Intent: command.IntentSuspendUser, Email: "a@b.co"}
	if got, want := Success(suspend), "✅ Successfully suspended user: a@b.co"; got != want {
		t.Fatalf("Success(suspend) = %q, want %q", got, want)
	}
}

func TestRetryFormatsWholeMinutes(t *testing.T) {
	got := Retry(3*time.Minute, 2, 3)
	want := "Retrying command in 3 minutes... (Attempt 2/3)"
	if got != want {
		t.Fatalf("Retry() = %q, want %q", got, want)
	}

	if got := Retry(45*time.Second, 3, 3); got != "Retrying command in 45 seconds... (Attempt 3/3)" {
		t.Fatalf("Retry() = %q, want seconds form", got)
	}
	if got := Retry(1500*time.Millisecond, 2, 3); got != "Retrying command in 1.5s... (Attempt 2/3)" {
		t.Fatalf("Retry() = %q, want duration form", got)
	}
}

func TestUsageListsEveryFormat(t *testing.T) {
	got := Usage("@LearnystBot", "fs1, fs2")
	want := "Invalid command format. Please use one of the following formats:\n" +
		"1. @LearnystBot email@example.com access course_code\n" +
		"2. @LearnystBot email@example.com (Full Name) enroll course_code\n" +
		"3. @LearnystBot email@example.com suspend\n" +
		"4. @LearnystBot email@example.com delete\n" +
		"\nAvailable course codes: fs1, fs2"
	if got != want {
		t.Fatalf("Usage() = %q, want %q", got, want)
	}
}

func TestFailedIncludesLastMessage(t *testing.T) {
	got := Failed(3, "automation service status 500")
	want := "❌ Command failed after 3 attempts: automation service status 500"
	if got != want {
		t.Fatalf("Failed() = %q, want %q", got, want)
	}
	if got := Failed(3, ""); got != "❌ Command failed after 3 attempts" {
		t.Fatalf("Failed() = %q, want bare form", got)
	}
}
