package credits

// Keyframe is a value at time T (seconds). Ease applies to the segment that
// starts at this keyframe.
type Keyframe struct {
	T    float64 `json:"t" yaml:"t"`
	V    float64 `json:"v" yaml:"v"`
	Ease string  `json:"ease,omitempty" yaml:"ease,omitempty"` // "linear","smooth","cubic","step"
}

// Envelope is a list of keyframes sorted by T.
type Envelope struct {
	Keys []Keyframe `json:"keys" yaml:"keys"`
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// 6x^5 - 15x^4 + 10x^3
func smootherstep(x float64) float64 {
	return x * x * x * (x*(x*6-15) + 10)
}

func easeApply(kind string, x float64) float64 {
	switch kind {
	case "smooth":
		return x * x * (3 - 2*x)
	case "cubic":
		return smootherstep(x)
	case "step":
		if x < 1 {
			return 0
		}
		return 1
	default:
		return x
	}
}

// Eval returns the envelope value at t. No keys gives 0; before the first
// and after the last key the end values hold.
func (e Envelope) Eval(t float64) float64 {
	n := len(e.Keys)
	if n == 0 {
		return 0
	}
	if t <= e.Keys[0].T {
		return e.Keys[0].V
	}
	if t >= e.Keys[n-1].T {
		return e.Keys[n-1].V
	}
	for i := 0; i < n-1; i++ {
		a, b := e.Keys[i], e.Keys[i+1]
		if t < a.T || t > b.T {
			continue
		}
		den := b.T - a.T
		if den <= 0 {
			return b.V
		}
		u := easeApply(a.Ease, clamp01((t-a.T)/den))
		return a.V + (b.V-a.V)*u
	}
	return e.Keys[n-1].V
}

// Byte evaluates the envelope and converts it to a channel level.
func (e Envelope) Byte(t float64) uint8 {
	v := e.Eval(t)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

// End returns the time of the last key.
func (e Envelope) End() float64 {
	if len(e.Keys) == 0 {
		return 0
	}
	return e.Keys[len(e.Keys)-1].T
}
