package model

// Constraint is the structured form of a free-text cooking request.
// Both fields are ordered sets of normalized terms.
type Constraint struct {
	Ingredients []string `json:"ingredients"`
	Tags        []string `json:"tags"`
}

// NewConstraint normalizes (trim + lower-case) both term lists, drops empty
// terms and collapses duplicates while keeping first-seen order.
func NewConstraint(ingredients, tags []string) Constraint {
	return Constraint{
		Ingredients: NormalizeSet(ingredients),
		Tags:        NormalizeSet(tags),
	}
}

// HasTags reports whether the constraint requires any tag.
func (c Constraint) HasTags() bool {
	return len(c.Tags) > 0
}

// IsEmpty reports whether the constraint carries no signal at all.
func (c Constraint) IsEmpty() bool {
	return len(c.Ingredients) == 0 && len(c.Tags) == 0
}

// NormalizeSet normalizes every term and removes empties and duplicates.
func NormalizeSet(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		n := NormalizeTerm(t)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
