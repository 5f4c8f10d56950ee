package params

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadHyperparams(t *testing.T) {
	content := `{"hyperparams": {
		"seed": 271828,
		"sep": "\t",
		"batch_size": 50,
		"maximum_output_length": 10,
		"emb_fn": "glove.6B.50d.txt",
		"hidden_dim": 128,
		"input_depth": 2,
		"output_depth": 2,
		"peek": true,
		"attention": false,
		"epochs": 3,
		"loss": "mse",
		"optimizer": "adam"
	}}`
	path := filepath.Join(t.TempDir(), "hp.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	hp, err := LoadHyperparams(path)
	if err != nil {
		t.Fatal(err)
	}
	if hp.Seed != 271828 || hp.BatchSize != 50 || hp.HiddenDim != 128 {
		t.Fatalf("unexpected hyperparams: %+v", hp)
	}
	if !hp.Peek || hp.Attention {
		t.Fatalf("peek/attention = %v/%v", hp.Peek, hp.Attention)
	}
	if hp.SepRune() != '\t' {
		t.Fatalf("sep rune = %q", hp.SepRune())
	}
}

func TestSepRuneDefault(t *testing.T) {
	var hp Hyperparams
	if hp.SepRune() != '\t' {
		t.Fatalf("empty sep should default to tab, got %q", hp.SepRune())
	}
}

func TestLoadHyperparamsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hp.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadHyperparams(path); err == nil {
		t.Fatal("expected parse error")
	}
}
