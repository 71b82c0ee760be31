package catalog

import (
	"encoding/json"
	"fmt"
)

// Tier classifies how important a specification is. The zero value means
// the document did not assign a tier.
type Tier string

const (
	TierPrimary   Tier = "Primary"
	TierSecondary Tier = "Secondary"
	TierTertiary  Tier = "Tertiary"
)

// AllTiers returns the tiers in display order.
func AllTiers() []Tier {
	return []Tier{TierPrimary, TierSecondary, TierTertiary}
}

// ParseTier maps a tier name to a Tier. Unknown names yield the zero Tier and false.
func ParseTier(s string) (Tier, bool) {
	t := Tier(s)
	if t.IsValid() {
		return t, true
	}
	return "", false
}

// IsValid returns true if the tier is one of the known tiers.
func (t Tier) IsValid() bool {
	switch t {
	case TierPrimary, TierSecondary, TierTertiary:
		return true
	default:
		return false
	}
}

// IsSet reports whether a tier was assigned.
func (t Tier) IsSet() bool {
	return t != ""
}

func (t Tier) String() string {
	return string(t)
}

// UnmarshalJSON accepts the three tier names, null and the empty string.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tier must be a string: %w", err)
	}
	if s == nil || *s == "" {
		*t = ""
		return nil
	}
	parsed, ok := ParseTier(*s)
	if !ok {
		return fmt.Errorf("invalid tier %q", *s)
	}
	*t = parsed
	return nil
}
