// Package hierarchytest builds assignment fixtures for tests.
package hierarchytest

import "github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"

// Shape describes a balanced pyramid.
type Shape struct {
	Captains              int
	SubcaptainsPerCaptain int
	MembersPerSubcaptain  int
	WithoutLeader         bool
}

// FullPyramid is the 1/10/100/1000 structure.
var FullPyramid = Shape{Captains: 10, SubcaptainsPerCaptain: 10, MembersPerSubcaptain: 10}

// Pyramid returns assignments with participant ids allocated leader first, then captains,
// then subcaptains captain by captain, then members subcaptain by subcaptain.
// Assignment ids equal participant ids.
func Pyramid(seasonID int64, shape Shape) []hierarchy.Assignment {
	var out []hierarchy.Assignment
	next := int64(1)
	add := func(role hierarchy.Role, captainID, subcaptainID *int64, groupIndex *int) int64 {
		id := next
		next++
		out = append(out, hierarchy.Assignment{
			ID:                 id,
			SeasonID:           seasonID,
			ParticipantID:      id,
			Role:               role,
			ParentCaptainID:    captainID,
			ParentSubcaptainID: subcaptainID,
			GroupIndex:         groupIndex,
		})
		return id
	}

	if !shape.WithoutLeader {
		add(hierarchy.RoleLeader, nil, nil, nil)
	}

	captainIDs := make([]int64, 0, shape.Captains)
	for i := 0; i < shape.Captains; i++ {
		captainIDs = append(captainIDs, add(hierarchy.RoleCaptain, nil, nil, nil))
	}

	subcaptainIDs := make([]int64, 0, shape.Captains*shape.SubcaptainsPerCaptain)
	for _, captainID := range captainIDs {
		for j := 0; j < shape.SubcaptainsPerCaptain; j++ {
			subcaptainIDs = append(subcaptainIDs, add(hierarchy.RoleSubcaptain, Int64(captainID), nil, Int(j)))
		}
	}

	for _, subcaptainID := range subcaptainIDs {
		for j := 0; j < shape.MembersPerSubcaptain; j++ {
			add(hierarchy.RoleMember, nil, Int64(subcaptainID), Int(j))
		}
	}

	return out
}

// Members returns n unattached members with ids starting at 1.
func Members(seasonID int64, n int) []hierarchy.Assignment {
	out := make([]hierarchy.Assignment, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, hierarchy.Assignment{
			ID:            int64(i),
			SeasonID:      seasonID,
			ParticipantID: int64(i),
			Role:          hierarchy.RoleMember,
		})
	}
	return out
}

func Int64(v int64) *int64 {
	return &v
}

func Int(v int) *int {
	return &v
}

// CountRoles tallies assignments per role.
func CountRoles(assignments []hierarchy.Assignment) map[hierarchy.Role]int {
	out := make(map[hierarchy.Role]int, len(hierarchy.AllRoles))
	for _, a := range assignments {
		out[a.Role]++
	}
	return out
}
