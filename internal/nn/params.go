//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package nn

import (
	"fmt"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// Tensor is the portable form of one learned parameter.
type Tensor struct {
	Rows int       `json:"r"`
	Cols int       `json:"c"`
	Data []float64 `json:"d"`
}

// ParamSet maps a dotted parameter name onto the live backing slice of a matrix or vector.
// Writing into Data writes into the layer.
type ParamSet map[string]*Tensor

func (ps ParamSet) addDense(name string, m *mat.Dense) {
	r, c := m.Dims()
	ps[name] = &Tensor{Rows: r, Cols: c, Data: m.RawMatrix().Data}
}

func (ps ParamSet) addVec(name string, v *mat.VecDense) {
	ps[name] = &Tensor{Rows: v.Len(), Cols: 1, Data: v.RawVector().Data}
}

// Merge - fold another set in under a prefix: "gru" + "l0.d1.wi" -> "gru.l0.d1.wi"
func (ps ParamSet) Merge(prefix string, other ParamSet) {
	for k, v := range other {
		ps[prefix+"."+k] = v
	}
}

// Names - sorted parameter names
func (ps ParamSet) Names() []string {
	nn := maps.Keys(ps)
	slices.Sort(nn)
	return nn
}

// Count - total number of scalars
func (ps ParamSet) Count() int {
	n := 0
	for _, t := range ps {
		n += len(t.Data)
	}
	return n
}

// Export - detached copies suitable for serialisation
func (ps ParamSet) Export() map[string]Tensor {
	out := make(map[string]Tensor, len(ps))
	for k, t := range ps {
		out[k] = Tensor{Rows: t.Rows, Cols: t.Cols, Data: slices.Clone(t.Data)}
	}
	return out
}

// Restore - copy saved values into the live parameters; every live name must be present with the same shape
func (ps ParamSet) Restore(saved map[string]Tensor) error {
	const (
		FAIL1 = "%w: '%s'"
		FAIL2 = "%w: '%s' is %dx%d in the checkpoint but %dx%d here"
	)
	for _, k := range ps.Names() {
		live := ps[k]
		s, ok := saved[k]
		if !ok {
			return fmt.Errorf(FAIL1, ErrMissing, k)
		}
		if s.Rows != live.Rows || s.Cols != live.Cols || len(s.Data) != len(live.Data) {
			return fmt.Errorf(FAIL2, ErrShape, k, s.Rows, s.Cols, live.Rows, live.Cols)
		}
		copy(live.Data, s.Data)
	}
	return nil
}
