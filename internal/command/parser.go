package command

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/techpathai/learnyst-relay/internal/catalog"
)

// ErrNoMention marks text that never addressed the bot. Callers drop these
// silently.
var ErrNoMention = errors.New("message does not mention the bot")

// ErrNoMatch marks text that addressed the bot but fits no command format.
var ErrNoMatch = errors.New("message matches no command format")

// UnknownCourseError reports a well-formed command with a course code the
// catalog does not know.
type UnknownCourseError struct {
	Code string
}

func (e *UnknownCourseError) Error() string {
	return fmt.Sprintf("unknown course code %q", e.Code)
}

const emailPattern = `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`

// Parser matches chat messages against the command grammar. Commands must
// span the whole trimmed message; anything extra fails the match.
type Parser struct {
	mention string
	courses *catalog.Catalog

	access  *regexp.Regexp
	enroll  *regexp.Regexp
	suspend *regexp.Regexp
	remove  *regexp.Regexp
}

// NewParser compiles the grammar for the given mention token.
func NewParser(mention string, courses *catalog.Catalog) *Parser {
	m := regexp.QuoteMeta(mention)
	return &Parser{
		mention: mention,
		courses: courses,
		access:  regexp.MustCompile(`^` + m + `\s+(` + emailPattern + `)\s+access\s+(\w+)$`),
		enroll:  regexp.MustCompile(`^` + m + `\s+(` + emailPattern + `)\s+\(([^)]+)\)\s+enroll\s+(\w+)$`),
		suspend: regexp.MustCompile(`^` + m + `\s+(` + emailPattern + `)\s+suspend$`),
		remove:  regexp.MustCompile(`^` + m + `\s+(` + emailPattern + `)\s+delete$`),
	}
}

// Mention returns the token messages must carry to be considered at all.
func (p *Parser) Mention() string {
	return p.mention
}

// Courses exposes the catalog the parser resolves codes against.
func (p *Parser) Courses() *catalog.Catalog {
	return p.courses
}

// Parse classifies one message. It returns ErrNoMention for messages that
// never address the bot, ErrNoMatch for addressed messages outside the
// grammar, and *UnknownCourseError when the course code fails catalog
// lookup. Nothing else mutates state; parsing is side-effect free.
func (p *Parser) Parse(text string) (Command, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.Contains(trimmed, p.mention) {
		return Command{}, ErrNoMention
	}

	if m := p.access.FindStringSubmatch(trimmed); m != nil {
		return p.resolveCourse(Command{Intent: IntentGiveAccess, Email: m[1]}, m[2])
	}
	if m := p.enroll.FindStringSubmatch(trimmed); m != nil {
		cmd := Command{Intent: IntentEnrollUser, Email: m[1], FullName: strings.TrimSpace(m[2])}
		return p.resolveCourse(cmd, m[3])
	}
	if m := p.suspend.FindStringSubmatch(trimmed); m != nil {
		return Command{Intent: IntentSuspendUser, Email: m[1]}, nil
	}
	if m := p.remove.FindStringSubmatch(trimmed); m != nil {
		return Command{Intent: IntentDeleteUser, Email: m[1]}, nil
	}
	return Command{}, ErrNoMatch
}

func (p *Parser) resolveCourse(cmd Command, code string) (Command, error) {
	course, ok := p.courses.Lookup(code)
	if !ok {
		return Command{}, &UnknownCourseError{Code: code}
	}
	cmd.CourseCode = course.Code
	cmd.CourseName = course.Name
	return cmd, nil
}
