package transition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

var ErrInvalidPolicy = errors.New("invalid transition policy")

// LoadPolicy reads a TOML override on top of DefaultPolicy. An empty path
// returns the defaults. Unknown keys are rejected so typos do not silently
// fall back to a default slot count.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	path = strings.TrimSpace(path)
	if path == "" {
		return policy, nil
	}

	meta, err := toml.DecodeFile(path, &policy)
	if err != nil {
		return Policy{}, fmt.Errorf("decode policy file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return Policy{}, fmt.Errorf("%w: unknown keys %s", ErrInvalidPolicy, strings.Join(keys, ", "))
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}

	return policy, nil
}

func (p Policy) Validate() error {
	switch {
	case p.PoolCap < 1:
		return fmt.Errorf("%w: pool_cap must be >= 1", ErrInvalidPolicy)
	case p.MaxCaptains < 0 || p.MaxSubcaptains < 0:
		return fmt.Errorf("%w: tier caps must be >= 0", ErrInvalidPolicy)
	case p.CaptainRatio < 0 || p.SubcaptainRatio < 0:
		return fmt.Errorf("%w: ratios must be >= 0", ErrInvalidPolicy)
	case p.RetainedCaptains < 0 || p.SubcaptainPromotions < 0 || p.MemberPromotions < 0:
		return fmt.Errorf("%w: cascade slots must be >= 0", ErrInvalidPolicy)
	}
	return nil
}
