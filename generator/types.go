package generator

import (
	"strconv"
	"strings"
)

type Kind int

const (
	KindVoid Kind = iota
	KindPrimitive
	KindPointer
)

// Type is a resolved return or argument type: void, a named primitive alias,
// or a pointer to another Type.
type Type struct {
	Kind Kind
	Name string
	Elem *Type
}

var voidType = &Type{Kind: KindVoid, Name: "GLvoid"}

func named(name string) *Type {
	return &Type{Kind: KindPrimitive, Name: name}
}

// PointerTo wraps t in one level of indirection.
func PointerTo(t *Type) *Type {
	return &Type{Kind: KindPointer, Elem: t}
}

// Depth returns the number of pointer levels around the base type.
func (t *Type) Depth() int {
	n := 0
	for ; t.Kind == KindPointer; t = t.Elem {
		n++
	}
	return n
}

// Base returns the innermost non-pointer type.
func (t *Type) Base() *Type {
	for t.Kind == KindPointer {
		t = t.Elem
	}
	return t
}

// Expr renders t as an expression over the identifiers declared in the
// generated preamble.
func (t *Type) Expr() string {
	depth := t.Depth()
	return strings.Repeat("Pointer(", depth) + t.Base().Name + strings.Repeat(")", depth)
}

func (t *Type) String() string {
	return strings.Repeat("*", t.Depth()) + t.Base().Name
}

type primKind int

const (
	primVoid primKind = iota
	primSigned
	primUnsigned
	primPtrSized
	primFloat
	primDouble
	primOpaque
	primAlias
	primCallback
)

type primitive struct {
	name  string
	kind  primKind
	size  int
	alias string
	ret   *Type
	args  []*Type
}

// expr is the initializer of the primitive in the generated preamble.
func (p primitive) expr() string {
	switch p.kind {
	case primVoid:
		return `newType("` + p.name + `", &ffi.TypeVoid)`
	case primSigned:
		return `newType("` + p.name + `", intsBySize[` + strconv.Itoa(p.size) + `])`
	case primUnsigned:
		return `newType("` + p.name + `", uintsBySize[` + strconv.Itoa(p.size) + `])`
	case primPtrSized:
		return `newType("` + p.name + `", intsBySize[ptrSize])`
	case primFloat:
		return `newType("` + p.name + `", &ffi.TypeFloat)`
	case primDouble:
		return `newType("` + p.name + `", &ffi.TypeDouble)`
	case primOpaque:
		return `newType("` + p.name + `", &ffi.TypePointer)`
	case primAlias:
		return `aliasType("` + p.name + `", ` + p.alias + `)`
	case primCallback:
		parts := []string{`"` + p.name + `"`, p.ret.Expr()}
		for _, a := range p.args {
			parts = append(parts, a.Expr())
		}
		return `callbackType(` + strings.Join(parts, ", ") + `)`
	}
	panic("unknown primitive kind")
}

// basePrimitives lists every type alias declared by the GL registry, in
// dependency order. GLhandleARB is platform dependent and added by
// primitiveTable.
var basePrimitives = []primitive{
	{name: "GLvoid", kind: primVoid},
	{name: "GLenum", kind: primUnsigned, size: 4},
	{name: "GLboolean", kind: primUnsigned, size: 1},
	{name: "GLbitfield", kind: primUnsigned, size: 4},
	{name: "GLbyte", kind: primSigned, size: 1},
	{name: "GLshort", kind: primSigned, size: 2},
	{name: "GLint", kind: primSigned, size: 4},
	{name: "GLclampx", kind: primAlias, alias: "GLint"},
	{name: "GLubyte", kind: primUnsigned, size: 1},
	{name: "GLushort", kind: primUnsigned, size: 2},
	{name: "GLuint", kind: primUnsigned, size: 4},
	{name: "GLsizei", kind: primAlias, alias: "GLint"},
	{name: "GLfloat", kind: primFloat},
	{name: "GLclampf", kind: primAlias, alias: "GLfloat"},
	{name: "GLdouble", kind: primDouble},
	{name: "GLclampd", kind: primAlias, alias: "GLdouble"},
	{name: "GLeglClientBufferEXT", kind: primOpaque},
	{name: "GLeglImageOES", kind: primOpaque},
	{name: "GLchar", kind: primSigned, size: 1},
	{name: "GLcharARB", kind: primAlias, alias: "GLchar"},
	{name: "GLhalf", kind: primAlias, alias: "GLushort"},
	{name: "GLhalfARB", kind: primAlias, alias: "GLhalf"},
	{name: "GLfixed", kind: primAlias, alias: "GLint"},
	{name: "GLintptr", kind: primPtrSized},
	{name: "GLsizeiptr", kind: primAlias, alias: "GLintptr"},
	{name: "GLint64", kind: primSigned, size: 8},
	{name: "GLuint64", kind: primUnsigned, size: 8},
	{name: "GLintptrARB", kind: primAlias, alias: "GLintptr"},
	{name: "GLsizeiptrARB", kind: primAlias, alias: "GLsizeiptr"},
	{name: "GLint64EXT", kind: primAlias, alias: "GLint64"},
	{name: "GLuint64EXT", kind: primAlias, alias: "GLuint64"},
	{name: "GLsync", kind: primOpaque},
	{
		name: "GLDEBUGPROC", kind: primCallback, ret: voidType,
		args: []*Type{
			named("GLenum"), named("GLenum"), named("GLuint"), named("GLenum"),
			named("GLsizei"), PointerTo(named("GLchar")), PointerTo(voidType),
		},
	},
	{name: "GLDEBUGPROCARB", kind: primAlias, alias: "GLDEBUGPROC"},
	{name: "GLDEBUGPROCKHR", kind: primAlias, alias: "GLDEBUGPROC"},
	{
		name: "GLDEBUGPROCAMD", kind: primCallback, ret: voidType,
		args: []*Type{
			named("GLuint"), named("GLenum"), named("GLenum"), named("GLsizei"),
			PointerTo(named("GLchar")), PointerTo(voidType),
		},
	},
	{name: "GLhalfNV", kind: primAlias, alias: "GLushort"},
	{name: "GLvdpauSurfaceNV", kind: primAlias, alias: "GLintptr"},
	{name: "GLVULKANPROCNV", kind: primCallback, ret: voidType},
}

// handleARB is GLhandleARB for hostOS. The registry declares it as a
// pointer on macOS and an unsigned int elsewhere.
//
// The choice follows the machine running the generator, not the machine the
// generated code runs on.
func handleARB(hostOS string) primitive {
	if hostOS == "darwin" {
		return primitive{name: "GLhandleARB", kind: primOpaque}
	}
	return primitive{name: "GLhandleARB", kind: primAlias, alias: "GLuint"}
}

func primitiveTable(hostOS string) []primitive {
	prims := make([]primitive, 0, len(basePrimitives)+1)
	for _, p := range basePrimitives {
		prims = append(prims, p)
		if p.name == "GLcharARB" {
			prims = append(prims, handleARB(hostOS))
		}
	}
	return prims
}
