//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package nn

import (
	"fmt"
	"gonum.org/v1/gonum/mat"
)

//
// LINEAR
//

// Linear - y = Wx + b
type Linear struct {
	In  int
	Out int
	W   *mat.Dense // Out x In
	B   *mat.VecDense
}

func NewLinear(rt *Runtime, in int, out int) *Linear {
	return &Linear{
		In:  in,
		Out: out,
		W:   mat.NewDense(out, in, rt.uniform(out*in, in)),
		B:   mat.NewVecDense(out, rt.uniform(out, in)),
	}
}

func (l *Linear) Forward(x mat.Vector) *mat.VecDense {
	y := mat.NewVecDense(l.Out, nil)
	y.MulVec(l.W, x)
	y.AddVec(y, l.B)
	return y
}

func (l *Linear) Params() ParamSet {
	ps := make(ParamSet)
	ps.addDense("weight", l.W)
	ps.addVec("bias", l.B)
	return ps
}

//
// EMBEDDING
//

// Embedding - one row per symbol id
type Embedding struct {
	N   int
	Dim int
	W   *mat.Dense // N x Dim
}

func NewEmbedding(rt *Runtime, n int, dim int) *Embedding {
	// rows drawn from U(-1, 1)
	return &Embedding{
		N:   n,
		Dim: dim,
		W:   mat.NewDense(n, dim, rt.uniform(n*dim, 1)),
	}
}

// Lookup - a copy of row id; an id outside the table is a programming error upstream and is reported, not clamped
func (e *Embedding) Lookup(id int) (*mat.VecDense, error) {
	if id < 0 || id >= e.N {
		return nil, fmt.Errorf("%w: embedding id %d not in [0,%d)", ErrIDRange, id, e.N)
	}
	return mat.VecDenseCopyOf(e.W.RowView(id)), nil
}

// LookupAll - embed a whole id sequence
func (e *Embedding) LookupAll(ids []int) ([]*mat.VecDense, error) {
	out := make([]*mat.VecDense, len(ids))
	for i, id := range ids {
		v, err := e.Lookup(id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Embedding) Params() ParamSet {
	ps := make(ParamSet)
	ps.addDense("weight", e.W)
	return ps
}

//
// DROPOUT
//

// Dropout - inverted dropout; the identity whenever the runtime is not training
type Dropout struct {
	P  float64
	rt *Runtime
}

func NewDropout(rt *Runtime, p float64) *Dropout {
	return &Dropout{P: p, rt: rt}
}

func (d *Dropout) Apply(v *mat.VecDense) *mat.VecDense {
	if !d.rt.Training || d.P <= 0 {
		return v
	}
	keep := 1 - d.P
	out := mat.NewVecDense(v.Len(), nil)
	for i := 0; i < v.Len(); i++ {
		if d.rt.Rng.Float64() < keep {
			out.SetVec(i, v.AtVec(i)/keep)
		}
	}
	return out
}

func (d *Dropout) ApplyAll(vv []*mat.VecDense) []*mat.VecDense {
	out := make([]*mat.VecDense, len(vv))
	for i := range vv {
		out[i] = d.Apply(vv[i])
	}
	return out
}
