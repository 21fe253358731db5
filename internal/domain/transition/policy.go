package transition

// Policy holds the slot counts of the season-end cascade. Every bound is clamped to the
// number of participants actually available at that tier.
type Policy struct {
	// PoolCap limits how many ranked members a bootstrap pass considers.
	PoolCap        int `toml:"pool_cap"`
	MaxCaptains    int `toml:"max_captains"`
	MaxSubcaptains int `toml:"max_subcaptains"`
	// Bootstrap sizing: one captain per CaptainRatio ranked members and one subcaptain
	// per SubcaptainRatio, before the Max caps apply.
	CaptainRatio    int `toml:"captain_ratio"`
	SubcaptainRatio int `toml:"subcaptain_ratio"`

	RetainedCaptains     int `toml:"retained_captains"`
	SubcaptainPromotions int `toml:"subcaptain_promotions"`
	MemberPromotions     int `toml:"member_promotions"`
}

// DefaultPolicy is the 1/10/100/1000 pyramid.
func DefaultPolicy() Policy {
	return Policy{
		PoolCap:              1111,
		MaxCaptains:          10,
		MaxSubcaptains:       100,
		CaptainRatio:         100,
		SubcaptainRatio:      10,
		RetainedCaptains:     4,
		SubcaptainPromotions: 5,
		MemberPromotions:     90,
	}
}

func (p Policy) bootstrapSlots(pool int) (captains, subcaptains int) {
	captains = p.MaxCaptains
	if p.CaptainRatio > 0 {
		captains = min(p.MaxCaptains, pool/p.CaptainRatio)
	}
	subcaptains = p.MaxSubcaptains
	if p.SubcaptainRatio > 0 {
		subcaptains = min(p.MaxSubcaptains, pool/p.SubcaptainRatio)
	}
	return max(captains, 0), max(subcaptains, 0)
}
