package generator

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ardanlabs/gloo/parser"
)

// ErrUnknownType marks type tokens that are not in the primitive table.
var ErrUnknownType = errors.New("unknown registry type")

// Resolver maps declarations to Types. Its table is fixed at construction.
type Resolver struct {
	hostOS string
	prims  []primitive
	byName map[string]primitive
}

// NewResolver builds the primitive table for hostOS.
func NewResolver(hostOS string) *Resolver {
	prims := primitiveTable(hostOS)
	byName := make(map[string]primitive, len(prims))
	for _, p := range prims {
		byName[p.name] = p
	}

	return &Resolver{
		hostOS: hostOS,
		prims:  prims,
		byName: byName,
	}
}

// Resolve returns the type of d. The boolean is true when a struct type was
// replaced by GLvoid; structs are never described, only pointed to.
func (r *Resolver) Resolve(d parser.Decl) (*Type, bool, error) {
	t := voidType
	fallback := false

	switch {
	case d.Struct || strings.Contains(d.Type, "struct"):
		fallback = true
	case d.Type == "", d.Type == voidType.Name:
	default:
		if _, ok := r.byName[d.Type]; !ok {
			err := errors.Mark(errors.Newf("type %q in %q", d.Type, d.Text), ErrUnknownType)
			return nil, false, errors.WithHint(err, "add the alias to the primitive table in generator/types.go")
		}
		t = named(d.Type)
	}

	for i := 0; i < d.Pointers; i++ {
		t = PointerTo(t)
	}

	return t, fallback, nil
}

// IsPrimitive reports whether name is declared by the preamble.
func (r *Resolver) IsPrimitive(name string) bool {
	_, ok := r.byName[name]
	return ok
}
