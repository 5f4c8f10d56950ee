package params

import (
	"encoding/json"
	"fmt"
	"os"
)

// Hyperparams is the flat configuration mapping read once at process
// start. It is the source of truth for everything derived from it; the
// orchestrator never mutates it after loading.
type Hyperparams struct {
	Seed                int    `json:"seed"`
	Sep                 string `json:"sep"`
	BatchSize           int    `json:"batch_size"` // also the padded input length
	MaximumOutputLength int    `json:"maximum_output_length"`
	EmbFn               string `json:"emb_fn"`
	HiddenDim           int    `json:"hidden_dim"`
	InputDepth          int    `json:"input_depth"`
	OutputDepth         int    `json:"output_depth"`
	Peek                bool   `json:"peek"`
	Attention           bool   `json:"attention"`
	Epochs              int    `json:"epochs"`
	Loss                string `json:"loss"`
	Optimizer           string `json:"optimizer"`

	// TokenizerVocab > 0 trains (or loads) a BPE tokenizer on the train
	// corpus and uses it to segment words missing from the embeddings.
	TokenizerVocab int `json:"tokenizer_vocab"`
}

// Debug gates verbose output across the whole run, set from the -v flag.
var Debug bool

// LoadHyperparams reads a JSON file of the form {"hyperparams": {...}}.
func LoadHyperparams(path string) (Hyperparams, error) {
	var wrapper struct {
		Hyperparams Hyperparams `json:"hyperparams"`
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Hyperparams{}, err
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return Hyperparams{}, fmt.Errorf("parse hyperparams %s: %w", path, err)
	}
	return wrapper.Hyperparams, nil
}

// SepRune returns the field delimiter as a rune, defaulting to tab.
func (hp Hyperparams) SepRune() rune {
	for _, r := range hp.Sep {
		return r
	}
	return '\t'
}
