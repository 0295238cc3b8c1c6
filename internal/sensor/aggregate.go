package sensor

import "math"

// Summarize computes per-channel statistics over records. Missing values are
// counted but excluded from min/max/mean; a channel is flagged synthesized
// when any of its values is a placeholder.
func Summarize(channels []Channel, records []Record) []ChannelSummary {
	out := make([]ChannelSummary, 0, len(channels))

	for _, ch := range channels {
		sum := ChannelSummary{Channel: ch}
		var total float64
		lo, hi := math.Inf(1), math.Inf(-1)

		for _, r := range records {
			v, ok := r.Channels[ch]
			if !ok || !v.Valid() {
				sum.Missing++
				continue
			}
			if v.Quality == QualitySynthesized {
				sum.Synthesized = true
			}
			sum.Count++
			total += v.Value
			if v.Value < lo {
				lo = v.Value
			}
			if v.Value > hi {
				hi = v.Value
			}
		}

		if sum.Count > 0 {
			sum.Min = lo
			sum.Max = hi
			sum.Mean = total / float64(sum.Count)
		}
		out = append(out, sum)
	}

	return out
}
