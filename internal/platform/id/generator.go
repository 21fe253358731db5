package id

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator hands out audit entry ids.
type Generator interface {
	NewID() (string, error)
}

// Func adapts a plain function to Generator.
type Func func() (string, error)

func (f Func) NewID() (string, error) { return f() }

// UUIDv7 ids embed their creation time, so audit rows sorted by id are sorted by time.
func UUIDv7() Generator {
	return Func(func() (string, error) {
		v, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("generate uuid v7: %w", err)
		}
		return v.String(), nil
	})
}

// Sequence yields prefix-1, prefix-2, ... and is safe for concurrent use.
func Sequence(prefix string) Generator {
	var n atomic.Int64
	return Func(func() (string, error) {
		return prefix + "-" + strconv.FormatInt(n.Add(1), 10), nil
	})
}
