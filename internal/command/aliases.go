package command

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	// ErrAliasEmpty is returned for blank alias words.
	ErrAliasEmpty = errors.New("alias word is empty")
	// ErrAliasConflict is returned when one word is mapped to two kinds.
	ErrAliasConflict = errors.New("alias word mapped to more than one command")
	// ErrAliasInvalid is returned for words that can never be typed as a command.
	ErrAliasInvalid = errors.New("alias word must be letters, digits or underscores")
)

// DefaultAliases is the built-in alias table. Latin, Cyrillic and
// transliterated spellings all resolve to the same kinds.
func DefaultAliases() map[Kind][]string {
	return map[Kind][]string{
		KindStart:    {"start", "старт", "начать"},
		KindHelp:     {"help", "помощь", "справка", "pomosch"},
		KindAdd:      {"add", "a", "new", "todo", "remind", "добавить", "доб", "напомни", "напомнить", "dobavit", "napomni"},
		KindList:     {"list", "ls", "l", "список", "спис", "spisok"},
		KindDone:     {"done", "d", "готово", "сделано", "gotovo", "sdelano"},
		KindDelete:   {"delete", "del", "rm", "удалить", "удали", "udalit"},
		KindReassign: {"reassign", "move", "mv", "передать", "передай", "peredat"},
	}
}

// WordExpr matches a command word as typed after "/".
const WordExpr = `\p{L}[\p{L}\p{N}_]{0,31}`

var aliasWordPattern = regexp.MustCompile(`^` + WordExpr + `$`)

// Aliases resolves command words to kinds.
type Aliases struct {
	words map[string]Kind
}

// NewAliases builds an alias table from the defaults plus extra words.
// Words are case-insensitive; a leading "/" is ignored.
func NewAliases(extra map[Kind][]string) (*Aliases, error) {
	a := &Aliases{words: make(map[string]Kind)}

	for _, table := range []map[Kind][]string{DefaultAliases(), extra} {
		for _, kind := range Kinds() {
			for _, word := range table[kind] {
				err := a.add(kind, word)
				if err != nil {
					return nil, err
				}
			}
		}
	}

	return a, nil
}

func (a *Aliases) add(kind Kind, word string) error {
	word = normalizeWord(word)
	if word == "" {
		return fmt.Errorf("%w (%s)", ErrAliasEmpty, kind)
	}

	if !aliasWordPattern.MatchString(word) {
		return fmt.Errorf("%w: %q", ErrAliasInvalid, word)
	}

	if existing, ok := a.words[word]; ok && existing != kind {
		return fmt.Errorf("%w: %q is both %s and %s", ErrAliasConflict, word, existing, kind)
	}

	a.words[word] = kind

	return nil
}

// Lookup extracts the command word from text and resolves it.
// It returns false for text that is not a command or uses an unknown word.
func (a *Aliases) Lookup(text string) (Kind, string, bool) {
	word, _, ok := splitHead(text)
	if !ok {
		return 0, "", false
	}

	kind, ok := a.words[word]

	return kind, word, ok
}

// Words returns the words for kind, sorted.
func (a *Aliases) Words(kind Kind) []string {
	var words []string

	for word, k := range a.words {
		if k == kind {
			words = append(words, word)
		}
	}

	slices.Sort(words)

	return words
}

func normalizeWord(word string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(word), "/"))
}
