package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oiekit/seq2seq-oie/IO"
	"github.com/oiekit/seq2seq-oie/params"
	"github.com/oiekit/seq2seq-oie/utils"
)

const toyGlove = `john 0.1 0.2
gave 0.4 -0.1
mary 0.3 0.3
a -0.2 0.5
book 0.6 0.1
the 0.0 0.2
cat 0.9 0.1
sat 0.2 0.7
on 0.1 -0.4
mat 0.5 0.5
`

func oieRow(cols ...string) string {
	for len(cols) < IO.DatasetColumns {
		cols = append(cols, "")
	}
	return strings.Join(cols, "\t")
}

func writeFixtures(t *testing.T) (dir string, hp params.Hyperparams) {
	t.Helper()
	dir = t.TempDir()

	glovePath := filepath.Join(dir, "glove.txt")
	if err := os.WriteFile(glovePath, []byte(toyGlove), 0644); err != nil {
		t.Fatal(err)
	}
	data := oieRow("john gave mary a book", "give", "gave", "john", "mary", "a book") + "\n" +
		oieRow("the cat sat on the mat", "sit", "sat on", "the cat", "the mat") + "\n" +
		oieRow("mary gave john the cat", "give", "gave", "mary", "john", "the cat") + "\n"
	for _, name := range []string{"train.tsv", "dev.tsv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}

	hp = params.Hyperparams{
		Seed:                271828,
		Sep:                 "\t",
		BatchSize:           6,
		MaximumOutputLength: 5,
		EmbFn:               glovePath,
		HiddenDim:           4,
		InputDepth:          1,
		OutputDepth:         1,
		Epochs:              1,
		Loss:                "mse",
		Optimizer:           "sgd",
	}
	return dir, hp
}

func TestConstructSeedsRNG(t *testing.T) {
	IO.ResetTokenizer()
	dir, hp := writeFixtures(t)

	o1, err := Construct(hp, filepath.Join(dir, "model1"))
	if err != nil {
		t.Fatal(err)
	}
	draw1 := utils.RandomArray(1, 1.0)[0]

	o2, err := Construct(hp, filepath.Join(dir, "model2"))
	if err != nil {
		t.Fatal(err)
	}
	draw2 := utils.RandomArray(1, 1.0)[0]

	if draw1 != draw2 {
		t.Fatalf("same seed produced different RNG streams: %g vs %g", draw1, draw2)
	}
	// Identical seeds mean identical initial weights.
	x := o1.encodeInputs([]IO.Record{{Sent: "the cat sat"}})[0]
	p1 := o1.model.Predict(x)
	p2 := o2.model.Predict(x)
	r, c := p1.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if p1.At(i, j) != p2.At(i, j) {
				t.Fatalf("predictions diverge at (%d,%d)", i, j)
			}
		}
	}
}

func TestEncodeShapes(t *testing.T) {
	IO.ResetTokenizer()
	dir, hp := writeFixtures(t)
	o, err := Construct(hp, filepath.Join(dir, "model"))
	if err != nil {
		t.Fatal(err)
	}

	recs, err := o.LoadDataset(filepath.Join(dir, "train.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	X := o.encodeInputs(recs)
	Y := o.encodeOutputs(recs)
	if len(X) != 3 || len(Y) != 3 {
		t.Fatalf("encoded %d/%d rows, want 3/3", len(X), len(Y))
	}
	if r, c := X[0].Dims(); r != 2 || c != hp.BatchSize {
		t.Fatalf("input shape (%d x %d), want (2 x %d)", r, c, hp.BatchSize)
	}
	if r, c := Y[0].Dims(); r != 2 || c != hp.MaximumOutputLength {
		t.Fatalf("output shape (%d x %d), want (2 x %d)", r, c, hp.MaximumOutputLength)
	}
	// "gave john" is the start of the first tuple; column 0 must be the
	// embedding of "gave".
	if Y[0].At(0, 0) != 0.4 {
		t.Fatalf("Y[0] column 0 = %g, want embedding of 'gave'", Y[0].At(0, 0))
	}
}

func TestTrainWritesCheckpoint(t *testing.T) {
	IO.ResetTokenizer()
	dir, hp := writeFixtures(t)
	saveDir := filepath.Join(dir, "model")

	o, err := Construct(hp, saveDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Train(filepath.Join(dir, "train.tsv"), filepath.Join(dir, "dev.tsv")); err != nil {
		t.Fatal(err)
	}

	ckpt := filepath.Join(saveDir, checkpointName)
	if _, err := os.Stat(ckpt); err != nil {
		t.Fatalf("checkpoint not written: %v", err)
	}
	// A freshly constructed model must accept the saved weights.
	o2, err := Construct(hp, saveDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := o2.model.LoadWeights(ckpt); err != nil {
		t.Fatal(err)
	}
}

func TestConstructRejectsPeekWithAttention(t *testing.T) {
	IO.ResetTokenizer()
	dir, hp := writeFixtures(t)
	hp.Peek = true
	hp.Attention = true
	if _, err := Construct(hp, filepath.Join(dir, "model")); err == nil {
		t.Fatal("expected error constructing with both peek and attention")
	}
}
