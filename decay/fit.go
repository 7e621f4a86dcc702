package decay

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Fit holds the parameters of y = Y0 + A*exp(-K*(t-T0)).
type Fit struct {
	Y0, A, K float64
	Tau      float64
	T0       float64

	RSquared   float64
	SSE        float64
	Iterations int
	Converged  bool
	Bounded    bool
}

func (f Fit) Evaluate(t float64) float64 {
	return f.Y0 + f.A*math.Exp(-f.K*(t-f.T0))
}

// Marker is where the fitted curve has fallen to 1/e of its amplitude.
func (f Fit) Marker() (t, y float64) {
	return f.T0 + f.Tau, f.Y0 + f.A/math.E
}

// Limits is a closed interval.
type Limits struct {
	Lo, Hi float64
}

func (l Limits) clamp(v float64) float64 {
	return math.Max(l.Lo, math.Min(l.Hi, v))
}

// Bounds constrain the three parameters of a bounded fit.
type Bounds struct {
	Y0, A, K Limits
}

// DefaultBounds keep the baseline inside the observed values and the amplitude
// within their range. Within that, the baseline may not exceed 1.4 times the
// last observation, the amplitude 1.4 times the first, and the rate ten times
// the initial guess. Nothing may go negative.
func DefaultBounds(y []float64, k0 float64) Bounds {
	lo, hi := floats.Min(y), floats.Max(y)

	y0 := Limits{Lo: math.Max(0, lo)}
	y0.Hi = math.Max(y0.Lo, math.Min(hi, 1.4*y[len(y)-1]))

	return Bounds{
		Y0: y0,
		A:  Limits{Lo: 0, Hi: math.Max(0, math.Min(hi-lo, 1.4*y[0]))},
		K:  Limits{Lo: 0, Hi: 10 * k0},
	}
}

// FitOptions configure FitExponential.
type FitOptions struct {
	// Bounds, when set, are enforced by projecting every trial step.
	Bounds *Bounds

	MaxIterations int
}

const (
	defaultMaxIterations = 200
	ftol                 = 1e-10
	xtol                 = 1e-10
	maxLambda            = 1e12
)

// InitialGuess takes the baseline from the last sample, the amplitude from the
// first minus the last, and the rate from the time the data need to fall to
// 1/e of their amplitude. If they never do, the rate is one over the span.
func InitialGuess(t, y []float64) (y0, a, k float64) {
	n := len(y)
	y0, a = y[n-1], y[0]-y[n-1]

	span := t[n-1] - t[0]
	k = 1
	if span > 0 {
		k = 1 / span
	}

	target := y0 + a/math.E
	for i := 1; i < n; i++ {
		if y[i] <= target {
			if dt := t[i] - t[0]; dt > 0 {
				k = 1 / dt
			}
			break
		}
	}

	return y0, a, k
}

// FitExponential fits y = Y0 + A*exp(-K*(t-t[0])) by Levenberg-Marquardt. It
// fails with ErrFitFailed when the iteration does not converge or ends on a
// non-physical rate.
func FitExponential(t, y []float64, opts FitOptions) (Fit, error) {
	if len(t) != len(y) {
		return Fit{}, fmt.Errorf("%d times and %d values: %w", len(t), len(y), ErrFitFailed)
	}
	if len(t) < 3 {
		return Fit{}, fmt.Errorf("%d samples cannot determine 3 parameters: %w", len(t), ErrFitFailed)
	}
	if floats.HasNaN(t) || floats.HasNaN(y) {
		return Fit{}, fmt.Errorf("missing samples in decay: %w", ErrFitFailed)
	}

	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	t0 := t[0]
	y0, a, k := InitialGuess(t, y)
	p := [3]float64{y0, a, k}
	if opts.Bounds != nil {
		p = project(p, *opts.Bounds)
	}

	lm := newSolver(t, y, t0)
	sse := lm.cost(p)
	lambda := 1e-3

	out := Fit{T0: t0, Bounded: opts.Bounds != nil}
	for out.Iterations < maxIter && !out.Converged {
		out.Iterations++

		if sse == 0 {
			out.Converged = true
			break
		}

		step, ok := lm.step(p, lambda, [3]bool{})
		if ok && opts.Bounds != nil {
			// Parameters pinned at a bound and pushed outwards are held
			// fixed so the others get a proper step.
			if pinned := opts.Bounds.pinned(p, step); pinned != ([3]bool{}) {
				step, ok = lm.step(p, lambda, pinned)
			}
		}
		if !ok {
			lambda *= 10
			if lambda > maxLambda {
				out.Converged = true
			}
			continue
		}

		next := [3]float64{p[0] + step[0], p[1] + step[1], p[2] + step[2]}
		if opts.Bounds != nil {
			next = project(next, *opts.Bounds)
		}

		nextSSE := lm.cost(next)
		if math.IsNaN(nextSSE) || nextSSE >= sse {
			lambda *= 10
			if lambda > maxLambda {
				// No descent direction is left.
				out.Converged = true
			}
			continue
		}

		var moved, size float64
		for i := range p {
			moved += (next[i] - p[i]) * (next[i] - p[i])
			size += p[i] * p[i]
		}

		out.Converged = sse-nextSSE <= ftol*sse || math.Sqrt(moved) <= xtol*(math.Sqrt(size)+xtol)
		p, sse = next, nextSSE
		lambda = math.Max(lambda/10, 1e-15)
	}

	out.Y0, out.A, out.K = p[0], p[1], p[2]
	out.SSE = sse

	switch {
	case !out.Converged:
		return out, fmt.Errorf("no convergence after %d iterations: %w", out.Iterations, ErrFitFailed)
	case math.IsNaN(sse) || math.IsInf(sse, 0) || math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0):
		return out, fmt.Errorf("non-finite parameters: %w", ErrFitFailed)
	case !(p[2] > 0) || math.IsInf(p[2], 0):
		return out, fmt.Errorf("rate constant %v is not positive: %w", p[2], ErrFitFailed)
	}

	out.Tau = 1 / out.K

	estimates := make([]float64, len(t))
	for i, ti := range t {
		estimates[i] = out.Evaluate(ti)
	}
	out.RSquared = stat.RSquaredFrom(estimates, y, nil)

	return out, nil
}

func (b Bounds) pinned(p, step [3]float64) [3]bool {
	var out [3]bool
	for i, l := range [3]Limits{b.Y0, b.A, b.K} {
		out[i] = (p[i] <= l.Lo && step[i] < 0) || (p[i] >= l.Hi && step[i] > 0)
	}
	return out
}

func project(p [3]float64, b Bounds) [3]float64 {
	p[0] = b.Y0.clamp(p[0])
	p[1] = b.A.clamp(p[1])
	// Keep the rate strictly positive so the model stays a decay.
	p[2] = math.Max(b.K.clamp(p[2]), math.SmallestNonzeroFloat64)
	return p
}

type solver struct {
	t, y []float64
	t0   float64
}

func newSolver(t, y []float64, t0 float64) solver {
	return solver{t: t, y: y, t0: t0}
}

func (s solver) cost(p [3]float64) float64 {
	var sse float64
	for i, ti := range s.t {
		r := s.y[i] - (p[0] + p[1]*math.Exp(-p[2]*(ti-s.t0)))
		sse += r * r
	}
	return sse
}

// step solves (JᵀJ + λ·diag(JᵀJ))·δ = Jᵀr for the parameter update. Fixed
// parameters get a zero update.
func (s solver) step(p [3]float64, lambda float64, fixed [3]bool) ([3]float64, bool) {
	jtj := mat.NewSymDense(3, nil)
	jtr := mat.NewVecDense(3, nil)

	for i, ti := range s.t {
		dt := ti - s.t0
		e := math.Exp(-p[2] * dt)
		r := s.y[i] - (p[0] + p[1]*e)
		jac := [3]float64{1, e, -p[1] * dt * e}

		for a := 0; a < 3; a++ {
			jtr.SetVec(a, jtr.AtVec(a)+jac[a]*r)
			for b := a; b < 3; b++ {
				jtj.SetSym(a, b, jtj.At(a, b)+jac[a]*jac[b])
			}
		}
	}

	for a := 0; a < 3; a++ {
		d := jtj.At(a, a)
		if d == 0 {
			d = 1
		}
		jtj.SetSym(a, a, jtj.At(a, a)+lambda*d)
	}

	for a := 0; a < 3; a++ {
		if !fixed[a] {
			continue
		}
		for b := 0; b < 3; b++ {
			if b != a {
				jtj.SetSym(a, b, 0)
			}
		}
		jtj.SetSym(a, a, 1)
		jtr.SetVec(a, 0)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(jtj); !ok {
		return [3]float64{}, false
	}

	delta := mat.NewVecDense(3, nil)
	if err := chol.SolveVecTo(delta, jtr); err != nil {
		return [3]float64{}, false
	}

	return [3]float64{delta.AtVec(0), delta.AtVec(1), delta.AtVec(2)}, true
}
