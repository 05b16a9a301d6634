package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// FitAmplitudes solves the linear least-squares problem for the
// amplitudes C so that the kernel best matches target at the time
// points t (ms), keeping the rates A fixed. weights holds optional
// per-sample weights; nil means every sample counts equally.
//
// The design matrix has one column per mode, exp(-a_n*t_i). A singular
// design matrix surfaces the underlying solve failure.
func (k *Kernel) FitAmplitudes(t, target, weights []float64) error {
	m, n := len(t), len(k.A)
	if len(target) != m {
		return fmt.Errorf("kernel: time and target lengths differ: %d != %d", m, len(target))
	}
	if weights != nil && len(weights) != m {
		return fmt.Errorf("kernel: time and weight lengths differ: %d != %d", m, len(weights))
	}
	if m < n {
		return fmt.Errorf("kernel: %d samples cannot determine %d amplitudes", m, n)
	}

	design := mat.NewDense(m, n, nil)
	rhs := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		for j := 0; j < n; j++ {
			design.Set(i, j, w*math.Exp(-k.A[j]*t[i]))
		}
		rhs.SetVec(i, w*target[i])
	}

	var qr mat.QR
	qr.Factorize(design)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, rhs); err != nil {
		return fmt.Errorf("kernel: amplitude fit: %w", err)
	}
	for j := 0; j < n; j++ {
		k.C[j] = sol.AtVec(j)
	}
	return nil
}
