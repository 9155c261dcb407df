package service

import (
	"regexp"
	"strconv"
)

// TagTaxonomy is the fixed set of candidate labels offered to the tag classifier.
var TagTaxonomy = []string{
	// time buckets
	"60-minutes-or-less",
	"30-minutes-or-less",
	"15-minutes-or-less",

	// dietary
	"vegetarian",
	"vegan",
	"gluten-free",
	"dairy-free",
	"nut-free",
	"low-sodium",
	"low-cholesterol",
	"low-carb",
	"low-fat",
	"low-calorie",
	"low-protein",
	"high-protein",

	// cuisine
	"american",
	"asian",
	"italian",
	"mexican",
	"french",
	"south-american",
	"middle-eastern",

	// occasion
	"christmas",
	"thanksgiving",
	"easter",
	"halloween",
	"birthday",
}

var timeTagPattern = regexp.MustCompile(`^(\d+)-minutes-or-less$`)

// ResolveTimeTags collapses overlapping time-bucket tags. When several
// "<N>-minutes-or-less" tags are present only the one with the largest N is kept,
// in the position of the first time tag. Other tags keep their order.
func ResolveTimeTags(tags []string) []string {
	best, bestMinutes, timeTags := "", -1, 0
	for _, t := range tags {
		m := timeTagPattern.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		timeTags++
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > bestMinutes {
			best, bestMinutes = t, n
		}
	}
	if timeTags <= 1 {
		return tags
	}

	out := make([]string, 0, len(tags)-timeTags+1)
	placed := false
	for _, t := range tags {
		if !timeTagPattern.MatchString(t) {
			out = append(out, t)
			continue
		}
		if !placed && best != "" {
			out = append(out, best)
			placed = true
		}
	}
	return out
}
