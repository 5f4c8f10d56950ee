package IO

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// DatasetColumns is the fixed column count of the supervised OIE files:
// sentence, base predicate, surface predicate, then ten argument slots.
const DatasetColumns = 13

// Record is one annotated sentence row, loaded verbatim.
type Record struct {
	Sent        string
	BasePred    string
	SurfacePred string
	Args        [10]string
}

// LoadDataset reads a delimited text file with no header row and exactly
// DatasetColumns columns per row. Rows are returned in file order,
// unmodified; encoding happens later, at training time.
func LoadDataset(path string, sep rune) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = sep
	r.FieldsPerRecord = DatasetColumns
	r.LazyQuotes = true

	records := []Record{}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		rec := Record{
			Sent:        row[0],
			BasePred:    row[1],
			SurfacePred: row[2],
		}
		copy(rec.Args[:], row[3:])
		records = append(records, rec)
	}
	return records, nil
}

// TupleTokens flattens a record's extraction into the output token
// sequence: the surface predicate followed by the non-empty arguments.
func (rec Record) TupleTokens() []string {
	out := TokenizeSentence(rec.SurfacePred)
	for _, arg := range rec.Args {
		if arg == "" {
			continue
		}
		out = append(out, TokenizeSentence(arg)...)
	}
	return out
}
