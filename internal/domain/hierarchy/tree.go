package hierarchy

import "sort"

// OrphanReason explains why an assignment is not attached to the pyramid.
type OrphanReason string

const (
	OrphanMissingParent OrphanReason = "missing_parent"
	OrphanInvalidParent OrphanReason = "invalid_parent"
	OrphanUnknownRole   OrphanReason = "unknown_role"
)

// Orphan is an assignment whose parent edge does not satisfy the structural invariant.
// Orphans keep their own personal hours but contribute nothing upward.
type Orphan struct {
	ParticipantID int64
	Role          Role
	ParentID      *int64
	Reason        OrphanReason
}

// Tree is a read-only index over one season's assignments, built once per pass.
type Tree struct {
	all                  []Assignment
	byParticipant        map[int64]Assignment
	leaders              []Assignment
	captains             []Assignment
	subcaptains          []Assignment
	members              []Assignment
	subcaptainsByCaptain map[int64][]Assignment
	membersBySubcaptain  map[int64][]Assignment
	orphans              []Orphan
	units                map[int64]int
}

// BuildTree indexes assignments by parent. Every list it exposes is ordered by participant id.
// When a participant appears more than once the last assignment wins.
func BuildTree(assignments []Assignment) *Tree {
	t := &Tree{
		byParticipant:        make(map[int64]Assignment, len(assignments)),
		subcaptainsByCaptain: make(map[int64][]Assignment),
		membersBySubcaptain:  make(map[int64][]Assignment),
		units:                make(map[int64]int),
	}

	for _, a := range assignments {
		t.byParticipant[a.ParticipantID] = a
	}
	t.all = make([]Assignment, 0, len(t.byParticipant))
	for _, a := range t.byParticipant {
		t.all = append(t.all, a)
	}
	sortByParticipant(t.all)

	for _, a := range t.all {
		switch a.Role {
		case RoleLeader:
			t.leaders = append(t.leaders, a)
		case RoleCaptain:
			t.captains = append(t.captains, a)
		case RoleSubcaptain:
			t.subcaptains = append(t.subcaptains, a)
		case RoleMember:
			t.members = append(t.members, a)
		default:
			t.orphans = append(t.orphans, Orphan{ParticipantID: a.ParticipantID, Role: a.Role, Reason: OrphanUnknownRole})
		}
	}

	for _, sub := range t.subcaptains {
		if reason, ok := t.checkParent(sub.ParentCaptainID, RoleCaptain); !ok {
			t.orphans = append(t.orphans, Orphan{ParticipantID: sub.ParticipantID, Role: sub.Role, ParentID: sub.ParentCaptainID, Reason: reason})
			continue
		}
		t.subcaptainsByCaptain[*sub.ParentCaptainID] = append(t.subcaptainsByCaptain[*sub.ParentCaptainID], sub)
	}
	for _, member := range t.members {
		if reason, ok := t.checkParent(member.ParentSubcaptainID, RoleSubcaptain); !ok {
			t.orphans = append(t.orphans, Orphan{ParticipantID: member.ParticipantID, Role: member.Role, ParentID: member.ParentSubcaptainID, Reason: reason})
			continue
		}
		t.membersBySubcaptain[*member.ParentSubcaptainID] = append(t.membersBySubcaptain[*member.ParentSubcaptainID], member)
	}
	sort.SliceStable(t.orphans, func(i, j int) bool {
		return t.orphans[i].ParticipantID < t.orphans[j].ParticipantID
	})

	t.computeUnits()
	return t
}

func (t *Tree) checkParent(parentID *int64, want Role) (OrphanReason, bool) {
	if parentID == nil {
		return OrphanMissingParent, false
	}
	parent, ok := t.byParticipant[*parentID]
	if !ok || parent.Role != want {
		return OrphanInvalidParent, false
	}
	return "", true
}

func (t *Tree) computeUnits() {
	for _, m := range t.members {
		t.units[m.ParticipantID] = 1
	}
	for _, sub := range t.subcaptains {
		t.units[sub.ParticipantID] = 1 + len(t.membersBySubcaptain[sub.ParticipantID])
	}

	organization := 1
	for _, c := range t.captains {
		units := 1
		for _, sub := range t.subcaptainsByCaptain[c.ParticipantID] {
			units += t.units[sub.ParticipantID]
		}
		t.units[c.ParticipantID] = units
		organization += units
	}
	for _, l := range t.leaders {
		t.units[l.ParticipantID] = organization
	}
}

func (t *Tree) All() []Assignment {
	return t.all
}

func (t *Tree) Len() int {
	return len(t.all)
}

func (t *Tree) Get(participantID int64) (Assignment, bool) {
	a, ok := t.byParticipant[participantID]
	return a, ok
}

// Leader returns the leader with the lowest participant id when several exist.
func (t *Tree) Leader() (Assignment, bool) {
	if len(t.leaders) == 0 {
		return Assignment{}, false
	}
	return t.leaders[0], true
}

func (t *Tree) Leaders() []Assignment {
	return t.leaders
}

func (t *Tree) Captains() []Assignment {
	return t.captains
}

func (t *Tree) Subcaptains() []Assignment {
	return t.subcaptains
}

func (t *Tree) Members() []Assignment {
	return t.members
}

func (t *Tree) SubcaptainsOf(captainID int64) []Assignment {
	return t.subcaptainsByCaptain[captainID]
}

func (t *Tree) MembersOf(subcaptainID int64) []Assignment {
	return t.membersBySubcaptain[subcaptainID]
}

func (t *Tree) Orphans() []Orphan {
	return t.orphans
}

// Units is the number of individual targets a participant is accountable for:
// 1 for a member, 1+members for a subcaptain, 1+sum of subcaptain units for a captain
// and the whole organization for the leader. Unknown participants count 0.
func (t *Tree) Units(participantID int64) int {
	return t.units[participantID]
}

// AllOnlyMembers reports whether a non-empty season has nobody above the member tier.
func (t *Tree) AllOnlyMembers() bool {
	return len(t.all) > 0 && len(t.members) == len(t.all)
}

func sortByParticipant(items []Assignment) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].ParticipantID < items[j].ParticipantID
	})
}
