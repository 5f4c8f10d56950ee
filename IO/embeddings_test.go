package IO

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const toyGlove = `the 0.1 0.2
cat 0.9 0.1
sat -0.3 0.8
`

func TestLoadGlove(t *testing.T) {
	path := writeFile(t, "glove.txt", toyGlove)
	emb, err := LoadGlove(path)
	if err != nil {
		t.Fatal(err)
	}
	if emb.Dim != 2 {
		t.Fatalf("dim = %d, want 2", emb.Dim)
	}
	if len(emb.Vocab.IDToToken) != 3 {
		t.Fatalf("vocab size = %d, want 3", len(emb.Vocab.IDToToken))
	}

	v := emb.Lookup("cat")
	if v.At(0, 0) != 0.9 || v.At(1, 0) != 0.1 {
		t.Errorf("cat vector = (%g, %g)", v.At(0, 0), v.At(1, 0))
	}

	// Unknown tokens map to the mean vector.
	unk := emb.Lookup("dog")
	wantX := (0.1 + 0.9 - 0.3) / 3.0
	if math.Abs(unk.At(0, 0)-wantX) > 1e-12 {
		t.Errorf("unk[0] = %g, want %g", unk.At(0, 0), wantX)
	}
}

func TestLoadGloveDimMismatch(t *testing.T) {
	path := writeFile(t, "glove.txt", "the 0.1 0.2\ncat 0.9\n")
	if _, err := LoadGlove(path); err == nil {
		t.Fatal("expected error for inconsistent vector widths")
	}
}

func TestEmbedTokens(t *testing.T) {
	path := writeFile(t, "glove.txt", toyGlove)
	emb, err := LoadGlove(path)
	if err != nil {
		t.Fatal(err)
	}
	X := emb.EmbedTokens([]string{"the", "cat", "sat"})
	r, c := X.Dims()
	if r != 2 || c != 3 {
		t.Fatalf("shape (%d x %d), want (2 x 3)", r, c)
	}
	if X.At(1, 2) != 0.8 {
		t.Errorf("X[1,2] = %g, want 0.8", X.At(1, 2))
	}
}

func TestNearest(t *testing.T) {
	path := writeFile(t, "glove.txt", toyGlove)
	emb, err := LoadGlove(path)
	if err != nil {
		t.Fatal(err)
	}

	// A scaled copy of a stored vector still decodes to its token:
	// cosine similarity ignores magnitude.
	q := mat.NewDense(2, 1, []float64{1.8, 0.2})
	if got := emb.Nearest(q); got != "cat" {
		t.Errorf("nearest = %q, want %q", got, "cat")
	}

	zero := mat.NewDense(2, 1, nil)
	if got := emb.Nearest(zero); got != "the" {
		t.Errorf("nearest to zero = %q, want first token", got)
	}
}
