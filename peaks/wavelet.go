package peaks

// Wavelet is one transient: the decay from Max down to Min and, when the
// series has one, the rise from RiseFrom up to Max.
type Wavelet struct {
	Max      Peak
	Min      Peak
	RiseFrom *Peak
}

// HasRise reports whether the rise phase is known.
func (w Wavelet) HasRise() bool { return w.RiseFrom != nil }

// DecayDuration is the time from the maximum to the minimum.
func (w Wavelet) DecayDuration() float64 { return w.Min.Position - w.Max.Position }

// RiseDuration is the time from the preceding minimum to the maximum, or 0
// when the rise is unknown.
func (w Wavelet) RiseDuration() float64 {
	if w.RiseFrom == nil {
		return 0
	}
	return w.Max.Position - w.RiseFrom.Position
}

// Amplitude is the full max-to-min drop.
func (w Wavelet) Amplitude() float64 { return w.Max.Amplitude - w.Min.Amplitude }

// Wavelets pairs every maximum with the minimum that follows it. Peaks that
// do not complete a max->min pair are ignored.
func Wavelets(ps []Peak) []Wavelet {
	out := make([]Wavelet, 0, len(ps)/2)

	var prevMin *Peak
	for i := 0; i < len(ps); i++ {
		p := ps[i]
		if p.Kind == Min {
			m := p
			prevMin = &m
			continue
		}

		if i+1 >= len(ps) || ps[i+1].Kind != Min {
			continue
		}

		w := Wavelet{Max: p, Min: ps[i+1]}
		if prevMin != nil {
			rise := *prevMin
			w.RiseFrom = &rise
		}
		out = append(out, w)

		m := ps[i+1]
		prevMin = &m
		i++
	}

	return out
}

// Limit keeps the earliest n wavelets; n <= 0 keeps all of them.
func Limit(ws []Wavelet, n int) []Wavelet {
	if n <= 0 || n >= len(ws) {
		return ws
	}
	return ws[:n]
}
