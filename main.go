package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/oiekit/seq2seq-oie/params"
)

var (
	flagTrain       = flag.String("train", "", "The train file")
	flagDev         = flag.String("dev", "", "The development file")
	flagTest        = flag.String("test", "", "The test file")
	flagHyperparams = flag.String("hyperparams", "", "JSON file with model hyperparameters")
	flagSaveTo      = flag.String("saveto", "", "Directory to store the trained model")
	flagVerbose     = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()
	params.Debug = *flagVerbose
	if *flagTrain == "" || *flagDev == "" || *flagTest == "" || *flagHyperparams == "" || *flagSaveTo == "" {
		flag.Usage()
		os.Exit(1)
	}

	hp, err := params.LoadHyperparams(*flagHyperparams)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if params.Debug {
		fmt.Printf("Model hyperparams: %+v\n", hp)
	}

	o, err := Construct(hp, *flagSaveTo)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := o.Train(*flagTrain, *flagDev); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// The test split is loaded for parity with train/dev; no evaluation
	// step is wired to it yet.
	testRecs, err := o.LoadDataset(*flagTest)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if params.Debug {
		fmt.Printf("Loaded %d test rows from %s\n", len(testRecs), *flagTest)
	}
}
