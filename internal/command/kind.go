package command

import "strings"

// Kind is the logical command a message resolves to.
type Kind int

// Command kinds. The zero value is not a valid kind.
const (
	KindStart Kind = iota + 1
	KindHelp
	KindAdd
	KindList
	KindDone
	KindDelete
	KindReassign
)

var kindNames = map[Kind]string{
	KindStart:    "start",
	KindHelp:     "help",
	KindAdd:      "add",
	KindList:     "list",
	KindDone:     "done",
	KindDelete:   "delete",
	KindReassign: "reassign",
}

// Kinds lists every kind in display order.
func Kinds() []Kind {
	return []Kind{KindStart, KindHelp, KindAdd, KindList, KindDone, KindDelete, KindReassign}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unknown"
}

// ParseKind maps a kind name as used in config files to a Kind.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, n := range kindNames {
		if n == name {
			return kind, true
		}
	}

	return 0, false
}
