//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package nn

import (
	"fmt"
	"gonum.org/v1/gonum/mat"
	"math"
)

// GRUCell - one direction of one layer; gate order in the stacked weights is reset, update, new
//
//	r  = σ(Wir x + bir + Whr h + bhr)
//	z  = σ(Wiz x + biz + Whz h + bhz)
//	n  = tanh(Win x + bin + r ⊙ (Whn h + bhn))
//	h' = (1 - z) ⊙ n + z ⊙ h
type GRUCell struct {
	In     int
	Hidden int
	Wi     *mat.Dense // 3H x In
	Wh     *mat.Dense // 3H x H
	Bi     *mat.VecDense
	Bh     *mat.VecDense
}

func NewGRUCell(rt *Runtime, in int, hidden int) *GRUCell {
	g := 3 * hidden
	return &GRUCell{
		In:     in,
		Hidden: hidden,
		Wi:     mat.NewDense(g, in, rt.uniform(g*in, hidden)),
		Wh:     mat.NewDense(g, hidden, rt.uniform(g*hidden, hidden)),
		Bi:     mat.NewVecDense(g, rt.uniform(g, hidden)),
		Bh:     mat.NewVecDense(g, rt.uniform(g, hidden)),
	}
}

// Step - advance one time step
func (c *GRUCell) Step(x mat.Vector, h mat.Vector) *mat.VecDense {
	H := c.Hidden
	gi := mat.NewVecDense(3*H, nil)
	gi.MulVec(c.Wi, x)
	gi.AddVec(gi, c.Bi)
	gh := mat.NewVecDense(3*H, nil)
	gh.MulVec(c.Wh, h)
	gh.AddVec(gh, c.Bh)

	out := mat.NewVecDense(H, nil)
	for j := 0; j < H; j++ {
		r := Sigmoid(gi.AtVec(j) + gh.AtVec(j))
		z := Sigmoid(gi.AtVec(H+j) + gh.AtVec(H+j))
		n := math.Tanh(gi.AtVec(2*H+j) + r*gh.AtVec(2*H+j))
		out.SetVec(j, (1-z)*n+z*h.AtVec(j))
	}
	return out
}

func (c *GRUCell) Params() ParamSet {
	ps := make(ParamSet)
	ps.addDense("wi", c.Wi)
	ps.addDense("wh", c.Wh)
	ps.addVec("bi", c.Bi)
	ps.addVec("bh", c.Bh)
	return ps
}

// GRU - a stack of (optionally bidirectional) GRU layers
type GRU struct {
	In            int
	Hidden        int
	Layers        int
	Bidirectional bool
	cells         [][]*GRUCell // [layer][direction]
}

func NewGRU(rt *Runtime, in int, hidden int, layers int, bidirectional bool) *GRU {
	g := &GRU{In: in, Hidden: hidden, Layers: layers, Bidirectional: bidirectional}
	dirs := g.Directions()
	g.cells = make([][]*GRUCell, layers)
	for l := 0; l < layers; l++ {
		lin := in
		if l > 0 {
			lin = hidden * dirs
		}
		g.cells[l] = make([]*GRUCell, dirs)
		for d := 0; d < dirs; d++ {
			g.cells[l][d] = NewGRUCell(rt, lin, hidden)
		}
	}
	return g
}

func (g *GRU) Directions() int {
	if g.Bidirectional {
		return 2
	}
	return 1
}

// StateDepth - how many initial hidden vectors Forward expects: layers x directions
func (g *GRU) StateDepth() int {
	return g.Layers * g.Directions()
}

// OutputSize - width of each per-step output
func (g *GRU) OutputSize() int {
	return g.Hidden * g.Directions()
}

// Forward - run the whole sequence
//
// h0 is indexed layer*directions + direction (nil means zeros). The returned outputs are the last layer's
// per-step states (directions concatenated, forward first); hn has the same layout as h0.
func (g *GRU) Forward(xs []*mat.VecDense, h0 []*mat.VecDense) ([]*mat.VecDense, []*mat.VecDense, error) {
	const (
		FAIL1 = "%w: gru wants %d initial states, got %d"
		FAIL2 = "%w: gru initial state %d has width %d, want %d"
		FAIL3 = "%w: gru input %d has width %d, want %d"
	)

	dirs := g.Directions()
	if h0 == nil {
		h0 = make([]*mat.VecDense, g.StateDepth())
		for i := range h0 {
			h0[i] = mat.NewVecDense(g.Hidden, nil)
		}
	}
	if len(h0) != g.StateDepth() {
		return nil, nil, fmt.Errorf(FAIL1, ErrDimension, g.StateDepth(), len(h0))
	}
	for i, h := range h0 {
		if h.Len() != g.Hidden {
			return nil, nil, fmt.Errorf(FAIL2, ErrDimension, i, h.Len(), g.Hidden)
		}
	}
	for i, x := range xs {
		if x.Len() != g.In {
			return nil, nil, fmt.Errorf(FAIL3, ErrDimension, i, x.Len(), g.In)
		}
	}

	T := len(xs)
	hn := make([]*mat.VecDense, g.StateDepth())
	layerin := xs

	for l := 0; l < g.Layers; l++ {
		perdir := make([][]*mat.VecDense, dirs)
		for d := 0; d < dirs; d++ {
			cell := g.cells[l][d]
			h := h0[l*dirs+d]
			steps := make([]*mat.VecDense, T)
			for i := 0; i < T; i++ {
				t := i
				if d == 1 {
					t = T - 1 - i
				}
				h = cell.Step(layerin[t], h)
				steps[t] = h
			}
			perdir[d] = steps
			hn[l*dirs+d] = h
		}

		layerout := make([]*mat.VecDense, T)
		for t := 0; t < T; t++ {
			if dirs == 1 {
				layerout[t] = perdir[0][t]
			} else {
				layerout[t] = Concat(perdir[0][t], perdir[1][t])
			}
		}
		layerin = layerout
	}

	return layerin, hn, nil
}

func (g *GRU) Params() ParamSet {
	ps := make(ParamSet)
	for l := range g.cells {
		for d := range g.cells[l] {
			ps.Merge(fmt.Sprintf("l%d.d%d", l, d), g.cells[l][d].Params())
		}
	}
	return ps
}
