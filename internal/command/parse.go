// Package command parses chat messages into structured commands.
//
// A message starts with "/" followed by a command word. The word is resolved
// to a [Kind] through an [Aliases] table; [Parse] then matches the arguments
// against the shape of that kind.
package command

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/calvinalkan/cuckoodo/internal/interval"
	"github.com/calvinalkan/cuckoodo/internal/issue"
)

// ErrInvalid is returned when a message does not match the shape of its kind.
var ErrInvalid = errors.New("command not understood")

// Command is a parsed message. Which fields are set depends on Kind.
type Command struct {
	Kind Kind
	// Word is the command word, lower-cased, without "/" or "@botname".
	Word string
	// Text is the note text (add).
	Text string
	// Assignee is the target assignee (add), the filter (list, empty means
	// unfiltered), the view to address (done, delete) or the current
	// assignee (reassign).
	Assignee string
	// NewAssignee is the assignee to move to (reassign).
	NewAssignee string
	// Position is the 1-based position in the addressed view.
	Position int
	// Phrase is the time phrase as typed (add), empty when absent.
	Phrase string
	// Interval is the parsed Phrase; nil when no phrase was given.
	Interval *time.Duration
}

const (
	assigneeExpr = `[\p{L}\p{N}_]+`
	leadExpr     = `(?:через|спустя|in|after)`
	anyPairExpr  = `\d{1,2}\s*\p{L}+\.?`
	unitExpr     = `(?:ч(?:ас(?:а|ов)?)?|м(?:ин(?:ут(?:а|у|ы)?)?)?|с(?:ек(?:унд(?:а|у|ы)?)?)?|h(?:ours?|rs?)?|m(?:in(?:s|utes?)?)?|s(?:ecs?|econds?)?)`
	unitPairExpr = `\d{1,2}\s*` + unitExpr + `\.?`
)

var (
	headPattern = regexp.MustCompile(`(?s)^\s*/(` + WordExpr + `)(?:@[A-Za-z0-9_]+)?(?:\s+(.*))?$`)

	// A time phrase is either a lead word followed by any number/word pairs,
	// or bare pairs whose words are recognised time units.
	addPattern = regexp.MustCompile(`(?is)^(?P<text>[^@\s].*?)` +
		`(?:\s+@(?P<assignee>` + assigneeExpr + `))?` +
		`(?:\s+(?:` + leadExpr + `\s+(?P<phrase>` + anyPairExpr + `(?:\s+` + anyPairExpr + `)*)` +
		`|(?P<bare>` + unitPairExpr + `(?:\s+` + unitPairExpr + `)*)))?` +
		`\s*$`)

	listPattern     = regexp.MustCompile(`^(?:@(` + assigneeExpr + `))?\s*$`)
	positionPattern = regexp.MustCompile(`^(\d{1,9})(?:\s+@(` + assigneeExpr + `))?\s*$`)
	reassignPattern = regexp.MustCompile(`(?i)^(\d{1,9})\s+@(` + assigneeExpr + `)\s+(?:on|на)\s+@(` + assigneeExpr + `)\s*$`)
)

// splitHead returns the lower-cased command word and the raw arguments.
func splitHead(text string) (string, string, bool) {
	m := headPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}

	return strings.ToLower(m[1]), m[2], true
}

// Parse matches text against the shape of kind.
// It returns [ErrInvalid] when text does not fit.
func Parse(kind Kind, text string) (Command, error) {
	word, args, ok := splitHead(text)
	if !ok {
		return Command{}, ErrInvalid
	}

	cmd := Command{Kind: kind, Word: word}

	switch kind {
	case KindStart, KindHelp:
		return cmd, nil
	case KindAdd:
		return parseAdd(cmd, args)
	case KindList:
		return parseList(cmd, args)
	case KindDone, KindDelete:
		return parsePosition(cmd, args)
	case KindReassign:
		return parseReassign(cmd, args)
	default:
		return Command{}, ErrInvalid
	}
}

func parseAdd(cmd Command, args string) (Command, error) {
	m := addPattern.FindStringSubmatch(args)
	if m == nil {
		return Command{}, ErrInvalid
	}

	cmd.Text = strings.TrimSpace(m[addPattern.SubexpIndex("text")])
	if cmd.Text == "" {
		return Command{}, ErrInvalid
	}

	cmd.Assignee = m[addPattern.SubexpIndex("assignee")]
	if cmd.Assignee == "" {
		cmd.Assignee = issue.AssigneeAll
	}

	phrase := m[addPattern.SubexpIndex("phrase")]
	if phrase == "" {
		phrase = m[addPattern.SubexpIndex("bare")]
	}

	if phrase != "" {
		d := interval.Duration(phrase)
		cmd.Phrase = phrase
		cmd.Interval = &d
	}

	return cmd, nil
}

func parseList(cmd Command, args string) (Command, error) {
	m := listPattern.FindStringSubmatch(args)
	if m == nil {
		return Command{}, ErrInvalid
	}

	cmd.Assignee = m[1]

	return cmd, nil
}

func parsePosition(cmd Command, args string) (Command, error) {
	m := positionPattern.FindStringSubmatch(args)
	if m == nil {
		return Command{}, ErrInvalid
	}

	pos, err := strconv.Atoi(m[1])
	if err != nil {
		return Command{}, ErrInvalid
	}

	cmd.Position = pos

	cmd.Assignee = m[2]
	if cmd.Assignee == "" {
		cmd.Assignee = issue.AssigneeAll
	}

	return cmd, nil
}

func parseReassign(cmd Command, args string) (Command, error) {
	m := reassignPattern.FindStringSubmatch(args)
	if m == nil {
		return Command{}, ErrInvalid
	}

	pos, err := strconv.Atoi(m[1])
	if err != nil {
		return Command{}, ErrInvalid
	}

	cmd.Position = pos
	cmd.Assignee = m[2]
	cmd.NewAssignee = m[3]

	return cmd, nil
}
