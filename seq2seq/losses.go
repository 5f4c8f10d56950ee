package seq2seq

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/oiekit/seq2seq-oie/utils"
)

// lossFunc maps (prediction, target) to (loss, dLoss/dPrediction), both
// matrices shaped (OutputDim x OutputLength).
type lossFunc func(pred, target *mat.Dense) (float64, *mat.Dense)

func lossByName(name string) (lossFunc, error) {
	switch name {
	case "mse":
		return meanSquaredError, nil
	case "categorical_crossentropy":
		return categoricalCrossEntropy, nil
	}
	return nil, fmt.Errorf("seq2seq: unknown loss %q", name)
}

func meanSquaredError(pred, target *mat.Dense) (float64, *mat.Dense) {
	r, c := pred.Dims()
	if tr, tc := target.Dims(); tr != r || tc != c {
		panic(fmt.Sprintf("mse: shape mismatch (%dx%d vs %dx%d)", r, c, tr, tc))
	}
	grad := mat.NewDense(r, c, nil)
	loss := 0.0
	inv := 1.0 / float64(c)
	for i := 0; i < r; i++ {
		for t := 0; t < c; t++ {
			d := pred.At(i, t) - target.At(i, t)
			loss += 0.5 * d * d * inv
			grad.Set(i, t, d*inv)
		}
	}
	return loss, grad
}

// categoricalCrossEntropy applies a softmax to each output column and
// treats the matching target column as a distribution.
func categoricalCrossEntropy(pred, target *mat.Dense) (float64, *mat.Dense) {
	r, c := pred.Dims()
	if tr, tc := target.Dims(); tr != r || tc != c {
		panic(fmt.Sprintf("crossentropy: shape mismatch (%dx%d vs %dx%d)", r, c, tr, tc))
	}
	grad := mat.NewDense(r, c, nil)
	loss := 0.0
	inv := 1.0 / float64(c)
	for t := 0; t < c; t++ {
		p := utils.ColVectorSoftmax(utils.ColAsVector(pred, t))
		for i := 0; i < r; i++ {
			ti := target.At(i, t)
			if ti != 0 {
				loss -= ti * math.Log(p.At(i, 0)+1e-12) * inv
			}
			grad.Set(i, t, (p.At(i, 0)-ti)*inv)
		}
	}
	return loss, grad
}
