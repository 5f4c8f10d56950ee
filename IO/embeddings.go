package IO

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/oiekit/seq2seq-oie/utils"
)

type Vocabulary struct {
	TokenToID map[string]int
	IDToToken []string
}

// Embeddings is a pretrained word embedding table loaded once and
// read-only afterwards. Vectors are stored (Dim x |V|), one column per
// vocabulary token, matching the (features x time) layout used by the
// network.
type Embeddings struct {
	Dim     int
	Vocab   Vocabulary
	Vectors *mat.Dense

	unk *mat.Dense // mean vector, used for unseen tokens
}

// LoadGlove reads a text-format GloVe file: one token per line followed
// by its vector components, space separated. The dimensionality is
// taken from the first line; later lines with a different width are an
// error.
func LoadGlove(path string) (*Embeddings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		dim     int
		tokens  []string
		rows    [][]float64
		scanner = bufio.NewScanner(f)
	)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		vec := make([]float64, len(fields)-1)
		for i, s := range fields[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("embeddings %s: token %q: %w", path, fields[0], err)
			}
			vec[i] = v
		}
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return nil, fmt.Errorf("embeddings %s: token %q has dim %d, want %d",
				path, fields[0], len(vec), dim)
		}
		tokens = append(tokens, fields[0])
		rows = append(rows, vec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("embeddings %s: no vectors", path)
	}

	vectors := mat.NewDense(dim, len(tokens), nil)
	unk := mat.NewDense(dim, 1, nil)
	tok2id := make(map[string]int, len(tokens))
	for j, tok := range tokens {
		tok2id[tok] = j
		for i := 0; i < dim; i++ {
			vectors.Set(i, j, rows[j][i])
			unk.Set(i, 0, unk.At(i, 0)+rows[j][i])
		}
	}
	unk.Scale(1.0/float64(len(tokens)), unk)

	return &Embeddings{
		Dim:     dim,
		Vocab:   Vocabulary{TokenToID: tok2id, IDToToken: tokens},
		Vectors: vectors,
		unk:     unk,
	}, nil
}

// Lookup returns a copy of the vector for tok, or the mean vector for
// tokens outside the table.
func (e *Embeddings) Lookup(tok string) *mat.Dense {
	if id, ok := e.Vocab.TokenToID[tok]; ok {
		return utils.ColAsVector(e.Vectors, id)
	}
	return utils.ToDense(utils.Scale(1, e.unk))
}

// EmbedTokens stacks token vectors into a (Dim x len(toks)) matrix.
func (e *Embeddings) EmbedTokens(toks []string) *mat.Dense {
	out := mat.NewDense(e.Dim, len(toks), nil)
	for t, tok := range toks {
		utils.SetCol(out, t, e.Lookup(tok))
	}
	return out
}

// Nearest returns the vocabulary token whose vector has the highest
// cosine similarity to v. Used to decode sampled predictions.
func (e *Embeddings) Nearest(v *mat.Dense) string {
	vNorm := utils.MatrixNorm(v)
	if vNorm == 0 {
		return e.Vocab.IDToToken[0]
	}
	bestJ := 0
	best := math.Inf(-1)
	_, cols := e.Vectors.Dims()
	for j := 0; j < cols; j++ {
		dot := 0.0
		norm := 0.0
		for i := 0; i < e.Dim; i++ {
			w := e.Vectors.At(i, j)
			dot += w * v.At(i, 0)
			norm += w * w
		}
		if norm == 0 {
			continue
		}
		sim := dot / (math.Sqrt(norm) * vNorm)
		if sim > best {
			best = sim
			bestJ = j
		}
	}
	return e.Vocab.IDToToken[bestJ]
}
