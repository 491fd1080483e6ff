package domain

// IgnoreSet holds exact background and legend colors that never count
// toward classification.
type IgnoreSet map[RGB]struct{}

// NewIgnoreSet builds an IgnoreSet from a list of colors.
func NewIgnoreSet(colors ...RGB) IgnoreSet {
	s := make(IgnoreSet, len(colors))
	for _, c := range colors {
		s[c] = struct{}{}
	}
	return s
}

// Contains reports exact membership.
func (s IgnoreSet) Contains(c RGB) bool {
	_, ok := s[c]
	return ok
}

// Colors returns the set's members in no particular order.
func (s IgnoreSet) Colors() []RGB {
	out := make([]RGB, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	return out
}

// ChannelCounts is the number of pixels whose red, green or blue channel
// fell below the classification threshold.
type ChannelCounts struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
}

// Classify scans every pixel not in ignore and counts, per channel, the
// values strictly below threshold. A single pixel can increment any
// combination of the three counters.
func Classify(r *Raster, ignore IgnoreSet, threshold int) ChannelCounts {
	var counts ChannelCounts
	for _, px := range r.Pix {
		if ignore.Contains(px) {
			continue
		}
		if int(px.R) < threshold {
			counts.Red++
		}
		if int(px.G) < threshold {
			counts.Green++
		}
		if int(px.B) < threshold {
			counts.Blue++
		}
	}
	return counts
}
