package utils

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Matrix functions shared by the network and the IO layer.

// r = rows of matrix
// c = columns of matrix
// o = output
// m = matrix input number 1
// n = matrix input number 2

func Dot(m, n mat.Matrix) mat.Matrix {
	r, _ := m.Dims()
	_, c := n.Dims()
	o := mat.NewDense(r, c, nil)
	o.Product(m, n)
	return o
}

func Scale(s float64, m mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Scale(s, m)
	return o
}

func Multiply(m, n mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.MulElem(m, n)
	return o
}

func Add(m, n mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Add(m, n)
	return o
}

func Subtract(m, n mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Sub(m, n)
	return o
}

func ToDense(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(m)
}

func ZerosLike(a *mat.Dense) *mat.Dense {
	r, c := a.Dims()
	return mat.NewDense(r, c, nil)
}

// rng drives weight initialization. A dedicated source, not the
// package-level math/rand functions: top-level rand.Seed is a no-op on
// current toolchains, so reproducible runs need an owned source.
var rng = rand.New(rand.NewSource(1))

// SeedRNG reseeds the weight-initialization source.
func SeedRNG(seed int64) {
	rng = rand.New(rand.NewSource(seed))
}

// RandomArray fills a slice with uniform values in ±1/sqrt(fanIn).
func RandomArray(size int, fanIn float64) []float64 {
	min := -1.0 / math.Sqrt(fanIn+1e-12)
	max := 1.0 / math.Sqrt(fanIn+1e-12)
	out := make([]float64, size)
	for i := 0; i < size; i++ {
		out[i] = min + (max-min)*rng.Float64()
	}
	return out
}

// ColAsVector copies m[:, j] into a fresh (r x 1) matrix.
func ColAsVector(m *mat.Dense, j int) *mat.Dense {
	r, c := m.Dims()
	if j < 0 || j >= c {
		panic("ColAsVector: column index out of range")
	}
	dst := make([]float64, r)
	for i := 0; i < r; i++ {
		dst[i] = m.At(i, j)
	}
	return mat.NewDense(r, 1, dst)
}

// SetCol writes a (r x 1) vector into column j of m.
func SetCol(m *mat.Dense, j int, v *mat.Dense) {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		m.Set(i, j, v.At(i, 0))
	}
}

func MatrixNorm(m *mat.Dense) float64 {
	r, c := m.Dims()
	s := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			s += v * v
		}
	}
	return math.Sqrt(s)
}

func ArgmaxVec(v *mat.Dense) int {
	r, c := v.Dims()
	if c != 1 {
		panic("ArgmaxVec expects a column vector")
	}
	bestI := 0
	best := v.At(0, 0)
	for i := 1; i < r; i++ {
		if v.At(i, 0) > best {
			best = v.At(i, 0)
			bestI = i
		}
	}
	return bestI
}

// ColVectorSoftmax applies softmax across the single column of a (r x 1) vector.
func ColVectorSoftmax(v *mat.Dense) *mat.Dense {
	r, c := v.Dims()
	if c != 1 {
		panic("ColVectorSoftmax expects a (r x 1) column vector")
	}
	out := mat.NewDense(r, 1, nil)
	// numerical stability: subtract max
	mx := v.At(0, 0)
	for i := 1; i < r; i++ {
		if v.At(i, 0) > mx {
			mx = v.At(i, 0)
		}
	}
	sum := 0.0
	for i := 0; i < r; i++ {
		e := math.Exp(v.At(i, 0) - mx)
		out.Set(i, 0, e)
		sum += e
	}
	for i := 0; i < r; i++ {
		out.Set(i, 0, out.At(i, 0)/sum)
	}
	return out
}

// ColSoftmaxBackward is the Jacobian-vector product for a column softmax:
// given A = softmax(S) and dL/dA it returns dL/dS.
func ColSoftmaxBackward(dA, A *mat.Dense) *mat.Dense {
	r, _ := A.Dims()
	dS := mat.NewDense(r, 1, nil)
	for j := 0; j < r; j++ {
		grad := 0.0
		for k := 0; k < r; k++ {
			if j == k {
				grad += A.At(j, 0) * (1.0 - A.At(k, 0)) * dA.At(k, 0)
			} else {
				grad += -A.At(j, 0) * A.At(k, 0) * dA.At(k, 0)
			}
		}
		dS.Set(j, 0, grad)
	}
	return dS
}
