package seq2seq

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/oiekit/seq2seq-oie/utils"
)

// attention lets each decoding step weight the encoder outputs instead
// of relying on a single fixed context vector. The query is the top
// decoder state from the previous step.
type attention struct {
	hidden  int
	rescale float64

	// per-sequence caches
	enc     *mat.Dense   // (hidden x Tin)
	queries []*mat.Dense // per step (hidden x 1)
	weights []*mat.Dense // per step (Tin x 1)

	dEnc *mat.Dense // encoder-output gradient, accumulated during backward
}

func newAttention(hidden int) *attention {
	return &attention{hidden: hidden, rescale: 1.0 / math.Sqrt(float64(hidden))}
}

func (a *attention) reset(enc *mat.Dense, steps int) {
	a.enc = enc
	a.queries = make([]*mat.Dense, steps)
	a.weights = make([]*mat.Dense, steps)
	a.dEnc = nil
}

// step computes the context vector for decoding step t:
// c_t = enc * softmax(enc^T q / sqrt(hidden)).
func (a *attention) step(q *mat.Dense, t int) *mat.Dense {
	s := utils.ToDense(utils.Scale(a.rescale, utils.Dot(a.enc.T(), q))) // (Tin x 1)
	w := utils.ColVectorSoftmax(s)
	a.queries[t] = q
	a.weights[t] = w
	return utils.ToDense(utils.Dot(a.enc, w))
}

// stepBackward takes the gradient on the context of step t and returns
// the gradient on the query, accumulating the encoder-output gradient
// into dEnc.
func (a *attention) stepBackward(dCtx *mat.Dense, t int) *mat.Dense {
	if a.dEnc == nil {
		a.dEnc = utils.ZerosLike(a.enc)
	}
	w := a.weights[t]
	q := a.queries[t]

	// c = enc * w
	a.dEnc.Add(a.dEnc, utils.ToDense(utils.Dot(dCtx, w.T())))
	dW := utils.ToDense(utils.Dot(a.enc.T(), dCtx)) // (Tin x 1)

	// w = softmax(s)
	dS := utils.ColSoftmaxBackward(dW, w)

	// s = enc^T q / sqrt(hidden)
	dQ := utils.ToDense(utils.Scale(a.rescale, utils.Dot(a.enc, dS)))
	a.dEnc.Add(a.dEnc, utils.ToDense(utils.Scale(a.rescale, utils.Dot(q, dS.T()))))
	return dQ
}
