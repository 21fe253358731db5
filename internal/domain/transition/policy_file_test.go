package transition

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writePolicyFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write policy file: %v", err)
	}
	return path
}

func TestLoadPolicy_EmptyPathReturnsDefaults(t *testing.T) {
	t.Parallel()

	got, err := LoadPolicy("  ")
	if err != nil {
		t.Fatalf("load policy: %v", err)
	}
	if got != DefaultPolicy() {
		t.Fatalf("policy got=%+v want=%+v", got, DefaultPolicy())
	}
}

func TestLoadPolicy_OverridesOnlyGivenKeys(t *testing.T) {
	t.Parallel()

	path := writePolicyFile(t, "retained_captains = 3\nmember_promotions = 45\n")
	got, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("load policy: %v", err)
	}
	if got.RetainedCaptains != 3 || got.MemberPromotions != 45 {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.PoolCap != 1111 || got.SubcaptainPromotions != 5 {
		t.Fatalf("defaults lost: %+v", got)
	}
}

func TestLoadPolicy_RejectsUnknownAndNegative(t *testing.T) {
	t.Parallel()

	if _, err := LoadPolicy(writePolicyFile(t, "retained_captain = 3\n")); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("unknown key err got=%v want=%v", err, ErrInvalidPolicy)
	}
	if _, err := LoadPolicy(writePolicyFile(t, "member_promotions = -1\n")); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("negative slot err got=%v want=%v", err, ErrInvalidPolicy)
	}
}
