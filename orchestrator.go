package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/oiekit/seq2seq-oie/IO"
	"github.com/oiekit/seq2seq-oie/params"
	"github.com/oiekit/seq2seq-oie/seq2seq"
	"github.com/oiekit/seq2seq-oie/utils"
)

const checkpointName = "weights.gob"
const sampleSize = 3

// Orchestrator wires the hyperparameters, the pretrained embedding
// table and the compiled network into one training run.
type Orchestrator struct {
	hp      params.Hyperparams
	emb     *IO.Embeddings
	model   *seq2seq.Model
	saveDir string
}

// Construct seeds the weight-initialization RNG, loads the embedding
// table and compiles the network. The embedding width fixes the
// network's input and output dimensionality; any mismatch with the
// other hyperparams surfaces as a compile error.
func Construct(hp params.Hyperparams, saveDir string) (*Orchestrator, error) {
	utils.SeedRNG(int64(hp.Seed))
	emb, err := IO.LoadGlove(hp.EmbFn)
	if err != nil {
		return nil, err
	}
	model, err := seq2seq.Compile(seq2seq.Config{
		InputLength:  hp.BatchSize, // batch_size doubles as the input length, a quirk kept from the hyperparams format
		InputDepth:   hp.InputDepth,
		InputDim:     emb.Dim,
		HiddenDim:    hp.HiddenDim,
		OutputLength: hp.MaximumOutputLength,
		OutputDepth:  hp.OutputDepth,
		OutputDim:    emb.Dim,
		Peek:         hp.Peek,
		Attention:    hp.Attention,
		Loss:         hp.Loss,
		Optimizer:    hp.Optimizer,
	})
	if err != nil {
		return nil, err
	}
	return &Orchestrator{hp: hp, emb: emb, model: model, saveDir: saveDir}, nil
}

// LoadDataset reads one delimited OIE file with the configured separator.
func (o *Orchestrator) LoadDataset(path string) ([]IO.Record, error) {
	return IO.LoadDataset(path, o.hp.SepRune())
}

// encodeInputs embeds each record's sentence, padded or truncated to
// the configured input length.
func (o *Orchestrator) encodeInputs(recs []IO.Record) []*mat.Dense {
	out := make([]*mat.Dense, len(recs))
	for i, rec := range recs {
		out[i] = o.embedPadded(IO.TokenizeSentence(rec.Sent), o.hp.BatchSize)
	}
	return out
}

// encodeOutputs embeds each record's extraction tuple, padded or
// truncated to the maximum output length.
func (o *Orchestrator) encodeOutputs(recs []IO.Record) []*mat.Dense {
	out := make([]*mat.Dense, len(recs))
	for i, rec := range recs {
		out[i] = o.embedPadded(rec.TupleTokens(), o.hp.MaximumOutputLength)
	}
	return out
}

func (o *Orchestrator) embedPadded(toks []string, length int) *mat.Dense {
	if len(toks) > length {
		toks = toks[:length]
	}
	out := mat.NewDense(o.emb.Dim, length, nil)
	for t, tok := range toks {
		utils.SetCol(out, t, o.emb.Lookup(tok))
	}
	return out
}

// GetCallbacks builds the two training callbacks: a qualitative sample
// decode printed after every epoch, and a checkpoint written after
// every epoch regardless of validation performance.
func (o *Orchestrator) GetCallbacks(sample []*mat.Dense) []seq2seq.Callback {
	sampleOutput := func(m *seq2seq.Model, logs seq2seq.Logs) error {
		for i, x := range sample {
			pred := m.Predict(x)
			_, T := pred.Dims()
			toks := make([]string, T)
			for t := 0; t < T; t++ {
				toks[t] = o.emb.Nearest(utils.ColAsVector(pred, t))
			}
			fmt.Printf("sample %d: %s\n", i, strings.Join(toks, " "))
		}
		return nil
	}
	// TODO: save only when the validation loss improves.
	checkpoint := func(m *seq2seq.Model, logs seq2seq.Logs) error {
		path := filepath.Join(o.saveDir, checkpointName)
		if err := m.Save(path); err != nil {
			return err
		}
		if params.Debug {
			fmt.Printf("Saved checkpoint to %s after epoch %d\n", path, logs.Epoch+1)
		}
		return nil
	}
	return []seq2seq.Callback{sampleOutput, checkpoint}
}

// Train fits the network on trainPath, using devPath for validation.
func (o *Orchestrator) Train(trainPath, devPath string) error {
	if o.hp.TokenizerVocab > 0 {
		tokPath := filepath.Join(o.saveDir, "tokenizer.json")
		if err := IO.TrainOrLoadBPE(trainPath, tokPath, o.hp.TokenizerVocab); err != nil {
			return err
		}
	}
	trainRecs, err := o.LoadDataset(trainPath)
	if err != nil {
		return err
	}
	devRecs, err := o.LoadDataset(devPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.saveDir, 0o755); err != nil {
		return err
	}

	trainX := o.encodeInputs(trainRecs)
	trainY := o.encodeOutputs(trainRecs)
	devX := o.encodeInputs(devRecs)
	devY := o.encodeOutputs(devRecs)

	sample := trainX
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	if params.Debug {
		fmt.Printf("Training on %s (%d rows), validating on %s (%d rows)\n",
			trainPath, len(trainRecs), devPath, len(devRecs))
	}
	return o.model.Fit(trainX, trainY, seq2seq.FitConfig{
		Epochs:    o.hp.Epochs,
		BatchSize: o.hp.BatchSize,
		ValX:      devX,
		ValY:      devY,
		Callbacks: o.GetCallbacks(sample),
	})
}
