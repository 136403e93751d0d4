package merging

// LatestYear returns the greatest year key of a year-keyed history and the
// value stored under it. Year keys are four-digit strings, so the
// lexicographic maximum is the numeric maximum. A history with no keys has no
// latest year.
func LatestYear(history map[string]any) (year string, value any, ok bool) {
	for k := range history {
		if !ok || k > year {
			year = k
			ok = true
		}
	}
	if !ok {
		return "", nil, false
	}
	return year, history[year], true
}

// LatestFloat resolves the current value of a headcount or FTE history.
func LatestFloat(history map[string]any) (float64, bool) {
	_, v, ok := LatestYear(history)
	if !ok || IsEmpty(v) {
		return 0, false
	}
	return AsFloat(v)
}

// FloatHistory keeps the numeric entries of a history.
func FloatHistory(history map[string]any) map[string]float64 {
	if len(history) == 0 {
		return nil
	}
	out := make(map[string]float64, len(history))
	for year, v := range history {
		if f, ok := AsFloat(v); ok {
			out[year] = f
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
