package engagement

// Share prompt thresholds.
const (
	// ShareMinUses is the usage count of the current version at which the
	// share prompt is first offered.
	ShareMinUses = 5

	// ShareCooldown is the number of further uses required before the
	// prompt is offered again.
	ShareCooldown = 7
)

// ShareState is the input of the share eligibility predicate.
type ShareState struct {
	CurrentCount int
	Online       bool
	Accepted     bool
	Declined     bool
	// ShownAtCount is the usage count at the last showing; nil if the
	// prompt was never shown.
	ShownAtCount *int
	// ShownAtInvalid is set when a shown-at marker is stored but cannot be
	// read. The cooldown cannot be checked, so the prompt is withheld.
	ShownAtInvalid bool
}

// ShareEligible reports whether the share prompt may be presented.
func ShareEligible(s ShareState) bool {
	if s.CurrentCount < ShareMinUses {
		return false
	}
	if !s.Online || s.Accepted || s.Declined {
		return false
	}
	if s.ShownAtInvalid {
		return false
	}
	if s.ShownAtCount != nil {
		shown := *s.ShownAtCount
		if shown < 0 || s.CurrentCount-shown < ShareCooldown {
			return false
		}
	}
	return true
}
