// Package seq2seq implements a small encoder-decoder recurrent network
// trained on gonum matrices. The decoder comes in three variants: plain
// (the encoder's final state seeds the decoder state), peek (the
// context vector is additionally fed as input at every decoding step)
// and attention (a per-step weighted context over all encoder outputs).
package seq2seq

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/oiekit/seq2seq-oie/params"
	"github.com/oiekit/seq2seq-oie/utils"
)

type Config struct {
	InputLength  int // padded input sequence length
	InputDepth   int // encoder layers
	InputDim     int // features per input token
	HiddenDim    int
	OutputLength int // decoding steps
	OutputDepth  int // decoder layers
	OutputDim    int // features per output token
	Peek         bool
	Attention    bool
	Loss         string
	Optimizer    string
}

type Model struct {
	cfg  Config
	enc  []*cell
	dec  []*cell
	attn *attention
	Wout *mat.Dense // (OutputDim x HiddenDim)
	Bout *mat.Dense // (OutputDim x 1)

	loss lossFunc
	opt  optimizer

	// caches from the last forward pass
	encTop    *mat.Dense // (HiddenDim x Tin)
	context   *mat.Dense // (HiddenDim x 1)
	decInputs *mat.Dense // (HiddenDim x OutputLength)
}

// Compile builds a network from cfg and wires in the named loss and
// optimizer. Peek and attention are mutually exclusive: the attention
// decoder already sees the full encoded input at every step, so
// combining the two is a configuration error rather than a silent
// override.
func Compile(cfg Config) (*Model, error) {
	if cfg.InputDim <= 0 || cfg.HiddenDim <= 0 || cfg.OutputDim <= 0 {
		return nil, fmt.Errorf("seq2seq: dimensions must be positive, got input=%d hidden=%d output=%d",
			cfg.InputDim, cfg.HiddenDim, cfg.OutputDim)
	}
	if cfg.InputLength <= 0 || cfg.OutputLength <= 0 {
		return nil, fmt.Errorf("seq2seq: sequence lengths must be positive, got input=%d output=%d",
			cfg.InputLength, cfg.OutputLength)
	}
	if cfg.InputDepth <= 0 || cfg.OutputDepth <= 0 {
		return nil, fmt.Errorf("seq2seq: depths must be positive, got encoder=%d decoder=%d",
			cfg.InputDepth, cfg.OutputDepth)
	}
	if cfg.Peek && cfg.Attention {
		return nil, errors.New("seq2seq: peek and attention are mutually exclusive")
	}
	loss, err := lossByName(cfg.Loss)
	if err != nil {
		return nil, err
	}
	opt, err := optimizerByName(cfg.Optimizer)
	if err != nil {
		return nil, err
	}

	m := &Model{cfg: cfg, loss: loss, opt: opt}
	for l := 0; l < cfg.InputDepth; l++ {
		in := cfg.HiddenDim
		if l == 0 {
			in = cfg.InputDim
		}
		m.enc = append(m.enc, newCell(in, cfg.HiddenDim))
	}
	for l := 0; l < cfg.OutputDepth; l++ {
		m.dec = append(m.dec, newCell(cfg.HiddenDim, cfg.HiddenDim))
	}
	if cfg.Attention {
		m.attn = newAttention(cfg.HiddenDim)
	}
	m.Wout = mat.NewDense(cfg.OutputDim, cfg.HiddenDim,
		utils.RandomArray(cfg.OutputDim*cfg.HiddenDim, float64(cfg.HiddenDim)))
	m.Bout = mat.NewDense(cfg.OutputDim, 1, nil)

	if params.Debug {
		m.Summary()
	}
	return m, nil
}

func (m *Model) Config() Config { return m.cfg }

// Summary prints the model structure in a compact form.
func (m *Model) Summary() {
	variant := "plain"
	if m.cfg.Peek {
		variant = "peek"
	}
	if m.cfg.Attention {
		variant = "attention"
	}
	total := 0
	for _, p := range m.paramsList() {
		r, c := p.Dims()
		total += r * c
	}
	fmt.Printf("seq2seq (%s): encoder %dx(%d->%d), decoder %dx(%d), output (%d x %d), loss=%s optimizer=%s, %d weights\n",
		variant, m.cfg.InputDepth, m.cfg.InputDim, m.cfg.HiddenDim,
		m.cfg.OutputDepth, m.cfg.HiddenDim,
		m.cfg.OutputDim, m.cfg.OutputLength, m.cfg.Loss, m.cfg.Optimizer, total)
}

// paramsList returns every trainable matrix in a fixed order. Gradients
// from backwardGradsOnly line up with this order.
func (m *Model) paramsList() []*mat.Dense {
	ps := []*mat.Dense{}
	for _, c := range m.enc {
		ps = append(ps, c.Wx, c.Wh, c.B)
	}
	for _, c := range m.dec {
		ps = append(ps, c.Wx, c.Wh, c.B)
	}
	return append(ps, m.Wout, m.Bout)
}

// forward encodes X (InputDim x Tin) and decodes OutputLength steps,
// returning (OutputDim x OutputLength).
func (m *Model) forward(X *mat.Dense) *mat.Dense {
	d, Tin := X.Dims()
	if d != m.cfg.InputDim {
		panic(fmt.Sprintf("seq2seq: input has %d features, model wants %d", d, m.cfg.InputDim))
	}

	H := X
	zero := mat.NewDense(m.cfg.HiddenDim, 1, nil)
	for _, c := range m.enc {
		H = c.forward(H, zero)
	}
	m.encTop = H
	m.context = utils.ColAsVector(H, Tin-1)

	Tout := m.cfg.OutputLength
	for _, c := range m.dec {
		c.beginSeq(m.context, Tout)
	}
	if m.attn != nil {
		m.attn.reset(m.encTop, Tout)
	}
	m.decInputs = mat.NewDense(m.cfg.HiddenDim, Tout, nil)

	Y := mat.NewDense(m.cfg.OutputDim, Tout, nil)
	top := m.dec[len(m.dec)-1]
	for t := 0; t < Tout; t++ {
		var u *mat.Dense
		switch {
		case m.attn != nil:
			q := m.context
			if t > 0 {
				q = utils.ColAsVector(top.states, t-1)
			}
			u = m.attn.step(q, t)
		case m.cfg.Peek:
			u = m.context
		default:
			u = mat.NewDense(m.cfg.HiddenDim, 1, nil)
		}
		utils.SetCol(m.decInputs, t, u)
		h := u
		for _, c := range m.dec {
			h = c.step(h, t)
		}
		y := utils.ToDense(utils.Dot(m.Wout, h))
		y.Add(y, m.Bout)
		utils.SetCol(Y, t, y)
	}
	return Y
}

// Predict runs inference on one encoded input sequence.
func (m *Model) Predict(X *mat.Dense) *mat.Dense {
	return m.forward(X)
}

// backwardGradsOnly computes gradients for the forward pass that
// produced dY without touching any weights. The returned slice lines up
// with paramsList.
func (m *Model) backwardGradsOnly(dY *mat.Dense) []*mat.Dense {
	hdim := m.cfg.HiddenDim
	Tout := m.cfg.OutputLength
	depth := len(m.dec)
	top := m.dec[depth-1]

	// readout: Y = Wout*H + Bout per column
	gWout := utils.ToDense(utils.Dot(dY, top.states.T()))
	gBout := mat.NewDense(m.cfg.OutputDim, 1, nil)
	for i := 0; i < m.cfg.OutputDim; i++ {
		s := 0.0
		for t := 0; t < Tout; t++ {
			s += dY.At(i, t)
		}
		gBout.Set(i, 0, s)
	}
	dHtop := utils.ToDense(utils.Dot(m.Wout.T(), dY)) // (hidden x Tout)

	for _, c := range m.dec {
		c.zeroGrads()
	}

	// Decoder BPTT, stepwise because the attention query at step t is
	// the top state at t-1: its gradient lands on a state processed
	// later in this loop.
	dContext := mat.NewDense(hdim, 1, nil)
	dQ := make([]*mat.Dense, Tout)     // query grads deferred onto top states
	dpre := make([]*mat.Dense, depth)  // recurrent carry per layer
	for t := Tout - 1; t >= 0; t-- {
		var dBelow *mat.Dense
		for l := depth - 1; l >= 0; l-- {
			c := m.dec[l]
			var dh *mat.Dense
			if l == depth-1 {
				dh = utils.ColAsVector(dHtop, t)
				if dQ[t] != nil {
					dh.Add(dh, dQ[t])
				}
			} else {
				dh = dBelow
			}
			if dpre[l] != nil {
				dh.Add(dh, utils.ToDense(utils.Dot(c.Wh.T(), dpre[l])))
			}
			dp := c.stepGrads(dh, t)
			dBelow = c.inputGrad(dp)
			dpre[l] = dp
		}
		// dBelow is the gradient on the decoder step input u_t.
		switch {
		case m.attn != nil:
			dq := m.attn.stepBackward(dBelow, t)
			if t > 0 {
				dQ[t-1] = dq
			} else {
				dContext.Add(dContext, dq)
			}
		case m.cfg.Peek:
			dContext.Add(dContext, dBelow)
		}
	}
	// Every decoder layer started from the context vector.
	for l, c := range m.dec {
		if dpre[l] != nil {
			dContext.Add(dContext, utils.ToDense(utils.Dot(c.Wh.T(), dpre[l])))
		}
	}

	// Encoder gradient: attention spreads over all encoder outputs, the
	// context contributions land on the final column.
	_, Tin := m.encTop.Dims()
	dEncTop := mat.NewDense(hdim, Tin, nil)
	if m.attn != nil && m.attn.dEnc != nil {
		dEncTop.Add(dEncTop, m.attn.dEnc)
	}
	for i := 0; i < hdim; i++ {
		dEncTop.Set(i, Tin-1, dEncTop.At(i, Tin-1)+dContext.At(i, 0))
	}
	dH := dEncTop
	for l := len(m.enc) - 1; l >= 0; l-- {
		dX, _ := m.enc[l].backward(dH)
		dH = dX
	}

	grads := []*mat.Dense{}
	for _, c := range m.enc {
		grads = append(grads, c.gWx, c.gWh, c.gB)
	}
	for _, c := range m.dec {
		grads = append(grads, c.gWx, c.gWh, c.gB)
	}
	return append(grads, gWout, gBout)
}
