package seq2seq

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// weightsData is the gob container: only raw numeric weight data, in
// paramsList order.
type weightsData struct {
	Rows, Cols []int
	Data       [][]float64
}

// Save persists all trainable weights to path, overwriting it.
func (m *Model) Save(path string) error {
	ps := m.paramsList()
	data := weightsData{}
	for _, p := range ps {
		r, c := p.Dims()
		raw := mat.DenseCopyOf(p).RawMatrix()
		buf := make([]float64, len(raw.Data))
		copy(buf, raw.Data)
		data.Rows = append(data.Rows, r)
		data.Cols = append(data.Cols, c)
		data.Data = append(data.Data, buf)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadWeights restores weights saved by Save into a model compiled with
// the same configuration.
func (m *Model) LoadWeights(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var data weightsData
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&data); err != nil {
		return fmt.Errorf("checkpoint %s: %w", path, err)
	}
	ps := m.paramsList()
	if len(data.Data) != len(ps) {
		return fmt.Errorf("checkpoint %s holds %d tensors, model has %d", path, len(data.Data), len(ps))
	}
	for i, p := range ps {
		r, c := p.Dims()
		if data.Rows[i] != r || data.Cols[i] != c {
			return fmt.Errorf("checkpoint %s: tensor %d is %dx%d, model wants %dx%d",
				path, i, data.Rows[i], data.Cols[i], r, c)
		}
		p.Copy(mat.NewDense(r, c, data.Data[i]))
	}
	return nil
}
