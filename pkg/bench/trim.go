package bench

import "slices"

// Trim drops the slowest percent of samples. It sorts a copy ascending and
// keeps the first len - len*percent/100 values; when that removes nothing
// the input is returned as is. samples is never modified.
func Trim(samples []uint64, percent int) []uint64 {
	remove := len(samples) * percent / 100
	if remove <= 0 {
		return samples
	}
	if remove >= len(samples) {
		return []uint64{}
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return sorted[:len(sorted)-remove]
}

// Mean returns the integer-truncated arithmetic mean, or 0 for no samples.
func Mean(samples []uint64) uint64 {
	if len(samples) == 0 {
		return 0
	}
	var sum uint64
	for _, v := range samples {
		sum += v
	}
	return sum / uint64(len(samples))
}
