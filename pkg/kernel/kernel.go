// Package kernel implements impedance kernels expressed as finite sums
// of decaying exponentials,
//
//	k(t) = sum_n c_n * exp(-a_n * t),
//
// with rates a_n in kHz (reciprocal milliseconds) and amplitudes c_n in
// the units of the represented quantity (MOhm for impedance kernels).
// Kernels support addition, subtraction, time- and frequency-domain
// evaluation, differentiation, and least-squares fitting of the
// amplitudes against a sampled target.
package kernel

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Rate comparison tolerances, matching the usual absolute/relative
// closeness test for floating point rates.
const (
	rateAbsTol = 1e-8
	rateRelTol = 1e-5
)

// ErrKBarReadOnly is returned when a caller tries to assign the derived
// steady-state value. KBar is computed from the modes; scale the
// amplitudes C to change it.
var ErrKBarReadOnly = errors.New("kernel: k_bar is read-only; scale the amplitudes C by a factor to change it")

// Kernel is a superposition of decaying exponentials. A and C are
// parallel slices: mode n decays at rate A[n] (kHz) with amplitude
// C[n].
type Kernel struct {
	A []float64 // rates, kHz
	C []float64 // amplitudes
}

// New creates a kernel from explicit rate and amplitude slices.
// The inputs are copied.
func New(a, c []float64) (*Kernel, error) {
	if len(a) == 0 {
		return nil, errors.New("kernel: at least one exponential mode is required")
	}
	if len(a) != len(c) {
		return nil, fmt.Errorf("kernel: rate and amplitude counts differ: %d != %d", len(a), len(c))
	}
	return &Kernel{
		A: append([]float64(nil), a...),
		C: append([]float64(nil), c...),
	}, nil
}

// NewScalar creates a single-mode kernel with rate 1 kHz and the given
// amplitude, so that KBar equals c.
func NewScalar(c float64) *Kernel {
	return &Kernel{A: []float64{1}, C: []float64{c}}
}

// Clone returns a deep copy of the kernel.
func (k *Kernel) Clone() *Kernel {
	return &Kernel{
		A: append([]float64(nil), k.A...),
		C: append([]float64(nil), k.C...),
	}
}

// NumModes returns the number of exponential modes.
func (k *Kernel) NumModes() int { return len(k.A) }

// sameRate reports whether two rates are numerically identical.
func sameRate(a, b float64) bool {
	return math.Abs(a-b) <= rateAbsTol+rateRelTol*math.Abs(b)
}

// appendMode folds one mode into the slices, merging it with an
// existing mode of numerically identical rate.
func appendMode(a, c []float64, ma, mc float64) ([]float64, []float64) {
	for i, ka := range a {
		if sameRate(ka, ma) {
			c[i] += mc
			return a, c
		}
	}
	return append(a, ma), append(c, mc)
}

// combine produces the canonical sum of k and scale*other: modes with
// numerically identical rates merge into one, all others concatenate.
func (k *Kernel) combine(other *Kernel, scale float64) *Kernel {
	a := make([]float64, 0, len(k.A)+len(other.A))
	c := make([]float64, 0, len(k.C)+len(other.C))
	for i := range k.A {
		a, c = appendMode(a, c, k.A[i], k.C[i])
	}
	for i := range other.A {
		a, c = appendMode(a, c, other.A[i], scale*other.C[i])
	}
	return &Kernel{A: a, C: c}
}

// Add returns the sum of the two kernels as a new kernel.
// Neither operand is modified.
func (k *Kernel) Add(other *Kernel) *Kernel {
	return k.combine(other, 1)
}

// Sub returns the difference of the two kernels as a new kernel.
// Neither operand is modified.
func (k *Kernel) Sub(other *Kernel) *Kernel {
	return k.combine(other, -1)
}

// Eval evaluates the kernel at the given time points (ms).
func (k *Kernel) Eval(t []float64) []float64 {
	out := make([]float64, len(t))
	for i, tv := range t {
		var sum float64
		for n := range k.A {
			sum += k.C[n] * math.Exp(-k.A[n]*tv)
		}
		out[i] = sum
	}
	return out
}

// Derivative returns the analytic time derivative as a new kernel:
// the rates are unchanged and the amplitudes become -a_n*c_n.
func (k *Kernel) Derivative() *Kernel {
	d := k.Clone()
	for n := range d.C {
		d.C[n] = -d.A[n] * d.C[n]
	}
	return d
}

// EvalDerivative evaluates the time derivative of the kernel at the
// given time points (ms).
func (k *Kernel) EvalDerivative(t []float64) []float64 {
	return k.Derivative().Eval(t)
}

// EvalFreq evaluates the Laplace transform of the kernel at the given
// complex frequencies (Hz). Rates are stored in kHz, so both rates and
// amplitudes are rescaled by 1e3 to keep units consistent.
func (k *Kernel) EvalFreq(s []complex128) []complex128 {
	out := make([]complex128, len(s))
	for i, sv := range s {
		var sum complex128
		for n := range k.A {
			sum += complex(k.C[n]*1e3, 0) / (complex(k.A[n]*1e3, 0) + sv)
		}
		out[i] = sum
	}
	return out
}

// KBar returns the steady-state (DC) value of the kernel,
// sum_n c_n/a_n. It is derived from the modes and cannot be assigned.
func (k *Kernel) KBar() float64 {
	var sum float64
	for n := range k.A {
		sum += k.C[n] / k.A[n]
	}
	return sum
}

// SetKBar always fails: the steady-state value is computed from the
// modes, not stored. Scale the amplitudes C instead.
func (k *Kernel) SetKBar(float64) error {
	return ErrKBarReadOnly
}

// Coeffs returns one of the two structural parameter slices by key.
// Recognized keys are "a", "alphas" and "0" for the rates, and "c",
// "gammas" and "1" for the amplitudes. Any other key is an index
// error.
func (k *Kernel) Coeffs(key string) ([]float64, error) {
	switch key {
	case "a", "alphas", "0":
		return k.A, nil
	case "c", "gammas", "1":
		return k.C, nil
	default:
		return nil, fmt.Errorf("kernel: unknown index %q: want \"a\", \"alphas\" or \"0\" for rates, \"c\", \"gammas\" or \"1\" for amplitudes", key)
	}
}

func (k *Kernel) String() string {
	var b strings.Builder
	b.WriteString("a =")
	for _, a := range k.A {
		fmt.Fprintf(&b, " %.4g", a)
	}
	b.WriteString(", c =")
	for _, c := range k.C {
		fmt.Fprintf(&b, " %.4g", c)
	}
	return b.String()
}

// MarshalJSON encodes the kernel as a list of [rate, amplitude] pairs.
func (k *Kernel) MarshalJSON() ([]byte, error) {
	pairs := make([][2]float64, len(k.A))
	for n := range k.A {
		pairs[n] = [2]float64{k.A[n], k.C[n]}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON decodes a list of [rate, amplitude] pairs.
func (k *Kernel) UnmarshalJSON(data []byte) error {
	var pairs [][2]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("kernel: decoding mode pairs: %w", err)
	}
	if len(pairs) == 0 {
		return errors.New("kernel: at least one exponential mode is required")
	}
	k.A = make([]float64, len(pairs))
	k.C = make([]float64, len(pairs))
	for n, p := range pairs {
		k.A[n] = p[0]
		k.C[n] = p[1]
	}
	return nil
}
