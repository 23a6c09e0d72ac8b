//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vv"
)

// ID - a dense symbol id
type ID = int

// the reserved ids are fixed by construction: New() always lays them down first and in this order
const (
	PAD   ID = 0
	END   ID = 1
	START ID = 2
)

var (
	ErrFrozen    = errors.New("vocab: frozen")
	ErrUnknownID = errors.New("vocab: unknown id")
	ErrReserved  = errors.New("vocab: reserved symbols out of place")
)

// Vocabulary - bijection between symbols (chars, tags, edit labels) and contiguous ids from 0
type Vocabulary struct {
	sym2id map[string]ID
	id2sym []string
	frozen bool
}

func New() *Vocabulary {
	v := &Vocabulary{sym2id: make(map[string]ID)}
	for _, s := range []string{vv.PADSYMBOL, vv.ENDSYMBOL, vv.STARTSYMBOL} {
		v.sym2id[s] = len(v.id2sym)
		v.id2sym = append(v.id2sym, s)
	}
	return v
}

// Add - insert a symbol if it is new and return its id
func (v *Vocabulary) Add(sym string) (ID, error) {
	if id, ok := v.sym2id[sym]; ok {
		return id, nil
	}
	if v.frozen {
		return 0, fmt.Errorf("%w: cannot add '%s'", ErrFrozen, sym)
	}
	id := len(v.id2sym)
	v.sym2id[sym] = id
	v.id2sym = append(v.id2sym, sym)
	return id, nil
}

// Freeze - no more additions; a frozen vocabulary is safe to share between goroutines
func (v *Vocabulary) Freeze() {
	v.frozen = true
}

func (v *Vocabulary) Frozen() bool {
	return v.frozen
}

func (v *Vocabulary) Len() int {
	return len(v.id2sym)
}

func (v *Vocabulary) ID(sym string) (ID, bool) {
	id, ok := v.sym2id[sym]
	return id, ok
}

func (v *Vocabulary) Symbol(id ID) (string, error) {
	if id < 0 || id >= len(v.id2sym) {
		return "", fmt.Errorf("%w: %d not in [0,%d)", ErrUnknownID, id, len(v.id2sym))
	}
	return v.id2sym[id], nil
}

// IsReserved - PAD, END and START are never decodable content
func IsReserved(id ID) bool {
	return id <= START
}

// Encode - map symbols to ids; unknown symbols are dropped rather than reported
func (v *Vocabulary) Encode(symbols []string, withstart bool, withend bool) []ID {
	out := make([]ID, 0, len(symbols)+2)
	if withstart {
		out = append(out, START)
	}
	for _, s := range symbols {
		if id, ok := v.sym2id[s]; ok {
			out = append(out, id)
		}
	}
	if withend {
		out = append(out, END)
	}
	return out
}

// Decode - ids back to symbols, skipping the reserved ones
func (v *Vocabulary) Decode(ids []ID) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if IsReserved(id) {
			continue
		}
		s, err := v.Symbol(id)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Symbols - every symbol in id order, reserved ones included
func (v *Vocabulary) Symbols() []string {
	out := make([]string, len(v.id2sym))
	copy(out, v.id2sym)
	return out
}

type vocabJSON struct {
	Symbols []string `json:"symbols"`
	Frozen  bool     `json:"frozen"`
}

func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(vocabJSON{Symbols: v.id2sym, Frozen: v.frozen})
}

func (v *Vocabulary) UnmarshalJSON(b []byte) error {
	var vj vocabJSON
	if err := json.Unmarshal(b, &vj); err != nil {
		return err
	}
	res := []string{vv.PADSYMBOL, vv.ENDSYMBOL, vv.STARTSYMBOL}
	if len(vj.Symbols) < len(res) {
		return ErrReserved
	}
	for i := range res {
		if vj.Symbols[i] != res[i] {
			return fmt.Errorf("%w: id %d is '%s'", ErrReserved, i, vj.Symbols[i])
		}
	}
	nv := &Vocabulary{sym2id: make(map[string]ID, len(vj.Symbols))}
	for _, s := range vj.Symbols {
		if _, dup := nv.sym2id[s]; dup {
			return fmt.Errorf("vocab: duplicate symbol '%s'", s)
		}
		nv.sym2id[s] = len(nv.id2sym)
		nv.id2sym = append(nv.id2sym, s)
	}
	nv.frozen = vj.Frozen
	*v = *nv
	return nil
}
