package transition

import (
	"errors"

	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
)

var (
	ErrNoAssignments   = errors.New("no assignments found for season")
	ErrMultipleLeaders = errors.New("season has more than one leader")
)

type Mode string

const (
	ModeBootstrap Mode = "bootstrap"
	ModeRegular   Mode = "regular"
)

// Move is a role change of one participant.
type Move struct {
	ParticipantID int64
	From          hierarchy.Role
	To            hierarchy.Role
}

// Kept is a participant whose role did not change.
type Kept struct {
	ParticipantID int64
	Role          hierarchy.Role
}

// Result reports a season-end pass. Every assigned participant appears in exactly one list.
type Result struct {
	Mode       Mode
	Promotions []Move
	Demotions  []Move
	Maintained []Kept
}
