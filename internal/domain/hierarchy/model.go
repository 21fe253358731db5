package hierarchy

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownRole = errors.New("unknown role")

// Role is the tier a participant occupies in a season's pyramid.
type Role string

const (
	RoleLeader     Role = "leader"
	RoleCaptain    Role = "captain"
	RoleSubcaptain Role = "subcaptain"
	RoleMember     Role = "member"
)

var AllRoles = map[Role]struct{}{
	RoleLeader:     {},
	RoleCaptain:    {},
	RoleSubcaptain: {},
	RoleMember:     {},
}

func ParseRole(v string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(v)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, v)
	}
	return role, nil
}

func (r Role) Valid() bool {
	_, ok := AllRoles[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// Tier returns 0 for the leader down to 3 for members. Unknown roles sort below members.
func (r Role) Tier() int {
	switch r {
	case RoleLeader:
		return 0
	case RoleCaptain:
		return 1
	case RoleSubcaptain:
		return 2
	case RoleMember:
		return 3
	default:
		return 4
	}
}

// Assignment places one participant inside a season's pyramid.
type Assignment struct {
	ID                 int64
	SeasonID           int64
	ParticipantID      int64
	Role               Role
	ParentCaptainID    *int64
	ParentSubcaptainID *int64
	GroupIndex         *int
}

func (a Assignment) Validate() error {
	if a.SeasonID <= 0 {
		return fmt.Errorf("assignment season id is required")
	}
	if a.ParticipantID <= 0 {
		return fmt.Errorf("assignment participant id is required")
	}
	if !a.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, a.Role)
	}

	return nil
}

func (a Assignment) Clone() Assignment {
	out := a
	out.ParentCaptainID = cloneInt64(a.ParentCaptainID)
	out.ParentSubcaptainID = cloneInt64(a.ParentSubcaptainID)
	if a.GroupIndex != nil {
		v := *a.GroupIndex
		out.GroupIndex = &v
	}
	return out
}

// Optional distinguishes "leave untouched" (zero value) from "set", where a nil Value means NULL.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func SetTo[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

func Clear[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// Patch is a partial update of an assignment. Nil or unset fields are not written.
type Patch struct {
	Role               *Role
	ParentCaptainID    Optional[int64]
	ParentSubcaptainID Optional[int64]
	GroupIndex         Optional[int]
}

func (p Patch) IsEmpty() bool {
	return p.Role == nil && !p.ParentCaptainID.Set && !p.ParentSubcaptainID.Set && !p.GroupIndex.Set
}

func (p Patch) Apply(a Assignment) Assignment {
	out := a.Clone()
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.ParentCaptainID.Set {
		out.ParentCaptainID = cloneInt64(p.ParentCaptainID.Value)
	}
	if p.ParentSubcaptainID.Set {
		out.ParentSubcaptainID = cloneInt64(p.ParentSubcaptainID.Value)
	}
	if p.GroupIndex.Set {
		out.GroupIndex = nil
		if p.GroupIndex.Value != nil {
			v := *p.GroupIndex.Value
			out.GroupIndex = &v
		}
	}
	return out
}

// Change is a patch addressed to one stored assignment.
type Change struct {
	AssignmentID  int64
	ParticipantID int64
	Patch         Patch
}

func RolePtr(r Role) *Role {
	return &r
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func sameInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Diff returns the patch that turns from into to, touching only fields that differ.
func Diff(from, to Assignment) Patch {
	var p Patch
	if from.Role != to.Role {
		p.Role = RolePtr(to.Role)
	}
	if !sameInt64(from.ParentCaptainID, to.ParentCaptainID) {
		p.ParentCaptainID = Optional[int64]{Set: true, Value: cloneInt64(to.ParentCaptainID)}
	}
	if !sameInt64(from.ParentSubcaptainID, to.ParentSubcaptainID) {
		p.ParentSubcaptainID = Optional[int64]{Set: true, Value: cloneInt64(to.ParentSubcaptainID)}
	}
	if !sameInt(from.GroupIndex, to.GroupIndex) {
		p.GroupIndex = Optional[int]{Set: true}
		if to.GroupIndex != nil {
			v := *to.GroupIndex
			p.GroupIndex.Value = &v
		}
	}
	return p
}
