package poll

// ResolveRanked computes an instant-runoff winner over the given ballots.
//
// The majority threshold is always half of the initial ballot count, even
// as ballots exhaust. Each round eliminates every candidate tied at the
// lowest first-preference tally at once. If a single distinct first
// preference survives an elimination it wins without another majority check.
// ballots is not modified.
func ResolveRanked(ballots [][]string) (string, bool) {
	total := len(ballots)
	if total == 0 {
		return "", false
	}

	working := make([][]string, len(ballots))
	for i, b := range ballots {
		working[i] = append([]string(nil), b...)
	}
	threshold := float64(total) / 2

	for {
		tally := firstPreferences(working)
		if len(tally) == 0 {
			return "", false
		}

		for candidate, count := range tally {
			// At most one candidate can hold a strict majority.
			if float64(count) > threshold {
				return candidate, true
			}
		}

		lowest := -1
		for _, count := range tally {
			if lowest < 0 || count < lowest {
				lowest = count
			}
		}

		eliminated := make(map[string]struct{})
		for candidate, count := range tally {
			if count == lowest {
				eliminated[candidate] = struct{}{}
			}
		}
		for i, b := range working {
			working[i] = without(b, eliminated)
		}

		remaining := firstPreferences(working)
		if len(remaining) == 1 {
			for candidate := range remaining {
				return candidate, true
			}
		}
	}
}

func firstPreferences(ballots [][]string) map[string]int {
	tally := make(map[string]int)
	for _, b := range ballots {
		if len(b) > 0 {
			tally[b[0]]++
		}
	}
	return tally
}

func without(ballot []string, eliminated map[string]struct{}) []string {
	kept := ballot[:0]
	for _, c := range ballot {
		if _, gone := eliminated[c]; !gone {
			kept = append(kept, c)
		}
	}
	return kept
}
