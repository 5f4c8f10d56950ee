package IO

import (
	"os"
	"path/filepath"
	"strings"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model"
	"github.com/sugarme/tokenizer/model/bpe"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Optional subword tokenizer. When trained, sentences are segmented
// with it before embedding lookup so that words missing from the
// pretrained table still map onto known pieces; otherwise tokenization
// falls back to lowercase whitespace splitting.
var bpeTokenizer *tk.Tokenizer

// TrainOrLoadBPE trains a BPE tokenizer on corpusPath (if tokPath does
// not exist yet) and loads it into memory.
func TrainOrLoadBPE(corpusPath, tokPath string, vocabSize int) error {
	if fileExists(tokPath) {
		t, err := pretrained.FromFile(tokPath)
		if err != nil {
			return err
		}
		bpeTokenizer = t
		return nil
	}

	t := tk.NewTokenizer(bpe.NewBPE(model.Vocab{}, bpe.Merges{}))

	// Normalize to NFKC lower, matching the lowercase embedding vocab.
	t.WithNormalizer(normalizer.NewSequence([]normalizer.Normalizer{
		normalizer.NewNFKC(),
		normalizer.Lowercase(),
	}))
	t.WithPreTokenizer(pretokenizer.NewWhitespaceSplit())

	tr := bpe.NewBpeTrainer(0, vocabSize)
	tr.SpecialTokens = []tk.AddedToken{
		tk.NewAddedToken("<pad>", true),
		tk.NewAddedToken("<unk>", true),
	}

	if err := t.Train(tr, []string{corpusPath}); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(tokPath), 0o755); err != nil {
		return err
	}
	if err := t.Save(tokPath, false); err != nil {
		return err
	}
	bpeTokenizer = t
	return nil
}

// ResetTokenizer drops a loaded tokenizer, restoring the fallback.
func ResetTokenizer() {
	bpeTokenizer = nil
}

// TokenizeSentence splits a sentence into lookup tokens.
func TokenizeSentence(s string) []string {
	if bpeTokenizer != nil {
		if enc, err := bpeTokenizer.EncodeSingle(s); err == nil {
			return enc.Tokens
		}
	}
	return strings.Fields(strings.ToLower(s))
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
