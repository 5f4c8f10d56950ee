package seq2seq

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/oiekit/seq2seq-oie/utils"
)

// optimizer applies one update step. params and grads line up with
// Model.paramsList; per-parameter state is allocated lazily on the
// first call.
type optimizer interface {
	update(params, grads []*mat.Dense)
}

func optimizerByName(name string) (optimizer, error) {
	switch name {
	case "sgd":
		return &sgd{lr: 0.01}, nil
	case "rmsprop":
		return &rmsprop{lr: 0.001, rho: 0.9, eps: 1e-8}, nil
	case "adam":
		return &adam{lr: 0.001, beta1: 0.9, beta2: 0.999, eps: 1e-8}, nil
	}
	return nil, fmt.Errorf("seq2seq: unknown optimizer %q", name)
}

type sgd struct {
	lr float64
}

func (o *sgd) update(params, grads []*mat.Dense) {
	for i, p := range params {
		p.Add(p, utils.ToDense(utils.Scale(-o.lr, grads[i])))
	}
}

type rmsprop struct {
	lr, rho, eps float64
	cache        []*mat.Dense
}

func (o *rmsprop) update(params, grads []*mat.Dense) {
	if o.cache == nil {
		for _, p := range params {
			o.cache = append(o.cache, utils.ZerosLike(p))
		}
	}
	for i, p := range params {
		g, c := grads[i], o.cache[i]
		pr, pc := p.Dims()
		for x := 0; x < pr; x++ {
			for y := 0; y < pc; y++ {
				gij := g.At(x, y)
				cij := o.rho*c.At(x, y) + (1.0-o.rho)*gij*gij
				c.Set(x, y, cij)
				p.Set(x, y, p.At(x, y)-o.lr*gij/(math.Sqrt(cij)+o.eps))
			}
		}
	}
}

type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	m, v                  []*mat.Dense
}

func (o *adam) update(params, grads []*mat.Dense) {
	if o.m == nil {
		for _, p := range params {
			o.m = append(o.m, utils.ZerosLike(p))
			o.v = append(o.v, utils.ZerosLike(p))
		}
	}
	o.t++
	for i, p := range params {
		adamUpdateInPlace(p, grads[i], o.m[i], o.v[i], o.t, o.lr, o.beta1, o.beta2, o.eps)
	}
}

// p -= lr * mhat / (sqrt(vhat)+eps) with bias correction.
func adamUpdateInPlace(
	p, g, m, v *mat.Dense,
	t int,
	lr, beta1, beta2, eps float64,
) {
	pr, pc := p.Dims()
	if gr, gc := g.Dims(); gr != pr || gc != pc {
		panic("adamUpdateInPlace: grad shape mismatch")
	}
	b1t := math.Pow(beta1, float64(t))
	b2t := math.Pow(beta2, float64(t))
	c1 := 1.0 / (1.0 - b1t)
	c2 := 1.0 / (1.0 - b2t)
	for i := 0; i < pr; i++ {
		for j := 0; j < pc; j++ {
			gij := g.At(i, j)
			mij := beta1*m.At(i, j) + (1.0-beta1)*gij
			vij := beta2*v.At(i, j) + (1.0-beta2)*gij*gij
			mhat := mij * c1
			vhat := vij * c2
			pij := p.At(i, j) - lr*mhat/(math.Sqrt(vhat)+eps)
			m.Set(i, j, mij)
			v.Set(i, j, vij)
			p.Set(i, j, pij)
		}
	}
}
