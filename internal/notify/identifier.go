package notify

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBadIdentifier = errors.New("notify: malformed notification identifier")

// Identifier is the composite key of a scheduled notification. Encoding it
// with an explicit separator and parsing it back, instead of substring
// matching, keeps task ids that are prefixes of one another from colliding
// during cancellation.
//
// Clock is the reset time as "HHMM" (or the end time of a dated task) and
// Day is the "YYYYMMDD" of the occurrence (or the end date), so re-running
// the scheduler on the same day replaces entries rather than duplicating them.
type Identifier struct {
	TaskID string
	Phase  Phase
	Clock  string
	Day    string
}

const idSeparator = "|"

func (id Identifier) String() string {
	return strings.Join([]string{"task", id.TaskID, string(id.Phase), id.Clock, id.Day}, idSeparator)
}

// ParseIdentifier decodes an identifier produced by String. Identifiers from
// other sources fail with ErrBadIdentifier.
func ParseIdentifier(s string) (Identifier, error) {
	parts := strings.Split(s, idSeparator)
	if len(parts) != 5 || parts[0] != "task" || parts[1] == "" {
		return Identifier{}, fmt.Errorf("%w: %q", ErrBadIdentifier, s)
	}
	phase := Phase(parts[2])
	switch phase {
	case PhaseBefore, PhaseAfter, PhaseEndDate:
	default:
		return Identifier{}, fmt.Errorf("%w: unknown phase in %q", ErrBadIdentifier, s)
	}
	return Identifier{TaskID: parts[1], Phase: phase, Clock: parts[3], Day: parts[4]}, nil
}
