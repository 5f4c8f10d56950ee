package seq2seq

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Logs is what callbacks see at the end of every epoch.
type Logs struct {
	Epoch     int
	TrainLoss float64
	ValLoss   float64
}

// Callback runs after each epoch; a non-nil error aborts training.
type Callback func(m *Model, logs Logs) error

type FitConfig struct {
	Epochs    int
	BatchSize int
	ValX      []*mat.Dense // validation inputs, may be empty
	ValY      []*mat.Dense
	Callbacks []Callback
}

// Fit trains the model in place. X holds one encoded input sequence per
// example, Y the matching targets. Gradients are averaged over each
// mini-batch before the optimizer step.
func (m *Model) Fit(X, Y []*mat.Dense, cfg FitConfig) error {
	if len(X) != len(Y) {
		return fmt.Errorf("seq2seq: %d inputs vs %d targets", len(X), len(Y))
	}
	if len(X) == 0 {
		return errors.New("seq2seq: empty training set")
	}
	bs := cfg.BatchSize
	if bs <= 0 || bs > len(X) {
		bs = len(X)
	}
	epochs := cfg.Epochs
	if epochs <= 0 {
		epochs = 1
	}

	ps := m.paramsList()
	for e := 0; e < epochs; e++ {
		start := time.Now()
		var totalLoss float64
		var steps float64

		for b := 0; b < len(X); b += bs {
			end := min(b+bs, len(X))
			var acc []*mat.Dense
			for i := b; i < end; i++ {
				pred := m.forward(X[i])
				loss, dY := m.loss(pred, Y[i])
				totalLoss += loss
				steps++
				grads := m.backwardGradsOnly(dY)
				if acc == nil {
					acc = grads
				} else {
					for j := range acc {
						acc[j].Add(acc[j], grads[j])
					}
				}
			}
			n := 1.0 / float64(end-b)
			for j := range acc {
				acc[j].Scale(n, acc[j])
			}
			m.opt.update(ps, acc)
		}

		avgLoss := totalLoss / steps
		valLoss := m.Evaluate(cfg.ValX, cfg.ValY)
		fmt.Printf("Epoch %d - TrainLoss: %.4f, ValLoss: %.4f, Time: %v\n",
			e+1, avgLoss, valLoss, time.Since(start))

		logs := Logs{Epoch: e, TrainLoss: avgLoss, ValLoss: valLoss}
		for _, cb := range cfg.Callbacks {
			if err := cb(m, logs); err != nil {
				return err
			}
		}
	}
	return nil
}

// Evaluate returns the mean loss over a dataset, forward passes only.
func (m *Model) Evaluate(X, Y []*mat.Dense) float64 {
	if len(X) == 0 || len(X) != len(Y) {
		return 0
	}
	total := 0.0
	for i := range X {
		loss, _ := m.loss(m.forward(X[i]), Y[i])
		total += loss
	}
	return total / float64(len(X))
}
