package nettree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestImpedanceMatrixPair(t *testing.T) {
	tree := pairTree(t)
	z := tree.ImpedanceMatrix()
	want := [][]float64{
		{2, 2},
		{2, 7},
	}
	for i := range want {
		for j := range want[i] {
			if got := z.At(i, j); math.Abs(got-want[i][j]) > 1e-12 {
				t.Errorf("Z[%d,%d] = %g, want %g", i, j, got, want[i][j])
			}
		}
	}
}

func TestImpedanceMatrixSymmetric(t *testing.T) {
	tree := branchTree(t)
	z := tree.ImpedanceMatrix()
	n, _ := z.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			if z.At(i, j) != z.At(j, i) {
				t.Errorf("Z[%d,%d] = %g != Z[%d,%d] = %g", i, j, z.At(i, j), j, i, z.At(j, i))
			}
		}
	}
	// Path sums: diagonal of a leaf location is the full path to root.
	if got := z.At(0, 0); got != 251 {
		t.Errorf("Z[0,0] = %g, want 251", got)
	}
	if got := z.At(0, 1); got != 51 {
		t.Errorf("Z[0,1] = %g, want 51", got)
	}
	if got := z.At(0, 2); got != 1 {
		t.Errorf("Z[0,2] = %g, want 1", got)
	}
}

func TestIzPair(t *testing.T) {
	tree := pairTree(t)
	got, err := tree.IzPair(0, 1)
	if err != nil {
		t.Fatalf("IzPair() error = %v", err)
	}
	// (z_0 + z_1) / (2*z_common) - 1 = (0 + 5) / (2*2) - 1.
	if want := 0.25; math.Abs(got-want) > 1e-12 {
		t.Errorf("IzPair(0,1) = %g, want %g", got, want)
	}
}

func TestIzMatrixMatchesPairs(t *testing.T) {
	for name, tree := range map[string]*Tree{
		"pair":   pairTree(t),
		"branch": branchTree(t),
	} {
		t.Run(name, func(t *testing.T) {
			izMat := tree.IzMatrix()
			locs := tree.Root().LocIdxs
			for a := 1; a < len(locs); a++ {
				for b := 0; b < a; b++ {
					pair, err := tree.IzPair(locs[a], locs[b])
					if err != nil {
						t.Fatalf("IzPair(%d,%d) error = %v", locs[a], locs[b], err)
					}
					if got := izMat.At(a, b); math.Abs(got-pair) > 1e-12 {
						t.Errorf("IzMatrix[%d,%d] = %g, IzPair = %g", a, b, got, pair)
					}
				}
			}
		})
	}
}

func TestIzMap(t *testing.T) {
	tree := branchTree(t)
	iz, err := tree.Iz([]int{0, 1, 2})
	if err != nil {
		t.Fatalf("Iz() error = %v", err)
	}
	if len(iz) != 3 {
		t.Fatalf("Iz() returned %d pairs, want 3", len(iz))
	}
	for pair := range iz {
		if pair.I >= pair.J {
			t.Errorf("pair %v not normalized", pair)
		}
	}
	// Same branch: (200+200)/(2*51) - 1.
	want := 400.0/102 - 1
	if got := iz[NewLocPair(0, 1)]; math.Abs(got-want) > 1e-12 {
		t.Errorf("Iz(0,1) = %g, want %g", got, want)
	}
	// Across branches: (250+250)/(2*1) - 1.
	want = 500.0/2 - 1
	if got := iz[NewLocPair(0, 2)]; math.Abs(got-want) > 1e-12 {
		t.Errorf("Iz(0,2) = %g, want %g", got, want)
	}
}

func TestIzTooFewLocations(t *testing.T) {
	tree := pairTree(t)
	if _, err := tree.Iz([]int{0}); err == nil {
		t.Error("Iz() with one location: error = nil, want error")
	}
}

func TestImpedanceMatrixDense(t *testing.T) {
	// The returned matrix is a plain gonum dense matrix usable with
	// the mat API.
	tree := pairTree(t)
	z := tree.ImpedanceMatrix()
	if got := mat.Trace(z); math.Abs(got-9) > 1e-12 {
		t.Errorf("Trace(Z) = %g, want 9", got)
	}
}
