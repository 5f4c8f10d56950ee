package seq2seq

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/oiekit/seq2seq-oie/utils"
)

// cell is one tanh recurrent layer over (features x time) matrices.
type cell struct {
	inDim  int
	hidden int
	Wx     *mat.Dense // (hidden x inDim)
	Wh     *mat.Dense // (hidden x hidden)
	B      *mat.Dense // (hidden x 1)

	// cache for backprop
	inputs *mat.Dense // (inDim x T)
	h0     *mat.Dense // (hidden x 1)
	states *mat.Dense // (hidden x T)

	// gradients from the last backward pass
	gWx, gWh, gB *mat.Dense
}

func newCell(inDim, hidden int) *cell {
	return &cell{
		inDim:  inDim,
		hidden: hidden,
		Wx:     mat.NewDense(hidden, inDim, utils.RandomArray(hidden*inDim, float64(inDim))),
		Wh:     mat.NewDense(hidden, hidden, utils.RandomArray(hidden*hidden, float64(hidden))),
		B:      mat.NewDense(hidden, 1, nil),
	}
}

// beginSeq prepares the caches for T stepwise calls to step.
func (c *cell) beginSeq(h0 *mat.Dense, T int) {
	c.h0 = h0
	c.inputs = mat.NewDense(c.inDim, T, nil)
	c.states = mat.NewDense(c.hidden, T, nil)
}

// step consumes x (inDim x 1) at time t and returns h_t = tanh(Wx x + Wh h_{t-1} + b).
func (c *cell) step(x *mat.Dense, t int) *mat.Dense {
	utils.SetCol(c.inputs, t, x)
	prev := c.h0
	if t > 0 {
		prev = utils.ColAsVector(c.states, t-1)
	}
	pre := utils.ToDense(utils.Dot(c.Wx, x))
	pre.Add(pre, utils.ToDense(utils.Dot(c.Wh, prev)))
	pre.Add(pre, c.B)
	h := mat.NewDense(c.hidden, 1, nil)
	for i := 0; i < c.hidden; i++ {
		h.Set(i, 0, math.Tanh(pre.At(i, 0)))
	}
	utils.SetCol(c.states, t, h)
	return h
}

// forward runs the whole sequence X (inDim x T) from initial state h0
// and returns the hidden states (hidden x T).
func (c *cell) forward(X *mat.Dense, h0 *mat.Dense) *mat.Dense {
	_, T := X.Dims()
	c.beginSeq(h0, T)
	for t := 0; t < T; t++ {
		c.step(utils.ColAsVector(X, t), t)
	}
	return c.states
}

// zeroGrads allocates fresh gradient accumulators. Fresh, not reused:
// the fit loop keeps references to the returned gradients while
// averaging over a batch.
func (c *cell) zeroGrads() {
	c.gWx = utils.ZerosLike(c.Wx)
	c.gWh = utils.ZerosLike(c.Wh)
	c.gB = utils.ZerosLike(c.B)
}

// stepGrads consumes the total gradient dh on state h_t (recurrent term
// included by the caller), accumulates the parameter gradients for step
// t and returns dpre, the gradient on the pre-activation.
func (c *cell) stepGrads(dh *mat.Dense, t int) *mat.Dense {
	dpre := mat.NewDense(c.hidden, 1, nil)
	for i := 0; i < c.hidden; i++ {
		hi := c.states.At(i, t)
		dpre.Set(i, 0, dh.At(i, 0)*(1.0-hi*hi))
	}
	prev := c.h0
	if t > 0 {
		prev = utils.ColAsVector(c.states, t-1)
	}
	x := utils.ColAsVector(c.inputs, t)
	c.gWx.Add(c.gWx, utils.ToDense(utils.Dot(dpre, x.T())))
	c.gWh.Add(c.gWh, utils.ToDense(utils.Dot(dpre, prev.T())))
	c.gB.Add(c.gB, dpre)
	return dpre
}

// inputGrad maps a pre-activation gradient back onto the step input.
func (c *cell) inputGrad(dpre *mat.Dense) *mat.Dense {
	return utils.ToDense(utils.Dot(c.Wx.T(), dpre))
}

// backward runs BPTT over the cached sequence. dH is the gradient on
// the states (hidden x T); returns the gradient on the inputs and on
// the initial state, filling gWx/gWh/gB.
func (c *cell) backward(dH *mat.Dense) (dX, dH0 *mat.Dense) {
	_, T := c.states.Dims()
	c.zeroGrads()
	dX = mat.NewDense(c.inDim, T, nil)
	var dpreNext *mat.Dense
	for t := T - 1; t >= 0; t-- {
		dh := utils.ColAsVector(dH, t)
		if dpreNext != nil {
			dh.Add(dh, utils.ToDense(utils.Dot(c.Wh.T(), dpreNext)))
		}
		dpre := c.stepGrads(dh, t)
		utils.SetCol(dX, t, c.inputGrad(dpre))
		dpreNext = dpre
	}
	dH0 = utils.ToDense(utils.Dot(c.Wh.T(), dpreNext))
	return dX, dH0
}
