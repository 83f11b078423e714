package transaction

import "strings"

// Uncategorized labels transactions the provider did not classify.
const Uncategorized = "Uncategorized"

// DeriveCategory picks the label stored for a provider transaction: the
// normalized primary category when present, else the first legacy category,
// else Uncategorized.
func DeriveCategory(primary string, legacy []string) string {
	if p := strings.TrimSpace(primary); p != "" {
		return p
	}
	if len(legacy) > 0 {
		if l := strings.TrimSpace(legacy[0]); l != "" {
			return l
		}
	}
	return Uncategorized
}
