package hierarchy

// RandomSource yields uniform integers in [0, n). *math/rand/v2.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// Redistribute reshuffles subcaptains across captains and members across subcaptains.
// Roles are never changed. Parents are taken in participant id order and each receives
// floor(n/k) children, the first n mod k receiving one extra. A tier with no parents is skipped.
func Redistribute(assignments []Assignment, rng RandomSource) []Change {
	tree := BuildTree(assignments)

	changes := make([]Change, 0, len(tree.Subcaptains())+len(tree.Members()))
	changes = append(changes, distribute(tree.Captains(), tree.Subcaptains(), rng, func(a *Assignment, parentID int64) {
		a.ParentCaptainID = &parentID
	})...)
	changes = append(changes, distribute(tree.Subcaptains(), tree.Members(), rng, func(a *Assignment, parentID int64) {
		a.ParentSubcaptainID = &parentID
	})...)

	return changes
}

func distribute(parents, children []Assignment, rng RandomSource, attach func(a *Assignment, parentID int64)) []Change {
	if len(parents) == 0 || len(children) == 0 {
		return nil
	}

	pool := make([]Assignment, len(children))
	copy(pool, children)
	Shuffle(pool, rng)

	per := len(pool) / len(parents)
	extra := len(pool) % len(parents)

	out := make([]Change, 0, len(pool))
	next := 0
	for i, parent := range parents {
		size := per
		if i < extra {
			size++
		}
		for j := 0; j < size && next < len(pool); j++ {
			before := pool[next]
			after := before.Clone()
			attach(&after, parent.ParticipantID)
			groupIndex := j
			after.GroupIndex = &groupIndex

			next++

			patch := Diff(before, after)
			if patch.IsEmpty() {
				continue
			}
			out = append(out, Change{
				AssignmentID:  before.ID,
				ParticipantID: before.ParticipantID,
				Patch:         patch,
			})
		}
	}

	return out
}

// Shuffle is an in-place Fisher-Yates shuffle.
func Shuffle[T any](items []T, rng RandomSource) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// ApplyChanges returns a copy of assignments with every change applied by participant id.
func ApplyChanges(assignments []Assignment, changes []Change) []Assignment {
	byParticipant := make(map[int64]Patch, len(changes))
	for _, c := range changes {
		byParticipant[c.ParticipantID] = c.Patch
	}

	out := make([]Assignment, 0, len(assignments))
	for _, a := range assignments {
		if patch, ok := byParticipant[a.ParticipantID]; ok {
			out = append(out, patch.Apply(a))
			continue
		}
		out = append(out, a.Clone())
	}
	return out
}
