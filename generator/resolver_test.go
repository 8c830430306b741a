package generator

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardanlabs/gloo/parser"
)

func TestResolve(t *testing.T) {
	r := NewResolver("linux")

	tests := []struct {
		name     string
		decl     parser.Decl
		want     *Type
		fallback bool
	}{
		{
			name: "void",
			decl: parser.Decl{Name: "glEnd", Text: "void glEnd"},
			want: voidType,
		},
		{
			name: "explicit GLvoid",
			decl: parser.Decl{Name: "glFoo", Type: "GLvoid", Text: "GLvoid glFoo"},
			want: voidType,
		},
		{
			name: "primitive",
			decl: parser.Decl{Name: "mask", Type: "GLbitfield", Text: "GLbitfield mask"},
			want: named("GLbitfield"),
		},
		{
			name: "void pointer",
			decl: parser.Decl{Name: "glMapBuffer", Pointers: 1, Text: "void *glMapBuffer"},
			want: PointerTo(voidType),
		},
		{
			name: "double pointer",
			decl: parser.Decl{Name: "string", Type: "GLchar", Pointers: 2, Text: "const GLchar *const*string"},
			want: PointerTo(PointerTo(named("GLchar"))),
		},
		{
			name:     "struct pointer",
			decl:     parser.Decl{Name: "context", Type: "_cl_context", Struct: true, Pointers: 1, Text: "struct _cl_context *context"},
			want:     PointerTo(voidType),
			fallback: true,
		},
		{
			name:     "struct in type token",
			decl:     parser.Decl{Name: "s", Type: "struct foo", Text: "struct foo s"},
			want:     voidType,
			fallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fallback, err := r.Resolve(tt.decl)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.fallback, fallback)
			assert.Equal(t, tt.decl.Pointers, got.Depth())
		})
	}
}

func TestResolveUnknownType(t *testing.T) {
	_, _, err := NewResolver("linux").Resolve(parser.Decl{Name: "x", Type: "GLquux", Text: "GLquux x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))
	assert.Contains(t, err.Error(), "GLquux")
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestTypeRendering(t *testing.T) {
	tests := []struct {
		typ  *Type
		expr string
		str  string
	}{
		{typ: voidType, expr: "GLvoid", str: "GLvoid"},
		{typ: named("GLint"), expr: "GLint", str: "GLint"},
		{typ: PointerTo(named("GLubyte")), expr: "Pointer(GLubyte)", str: "*GLubyte"},
		{typ: PointerTo(PointerTo(named("GLchar"))), expr: "Pointer(Pointer(GLchar))", str: "**GLchar"},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.expr, tt.typ.Expr())
			assert.Equal(t, tt.str, tt.typ.String())
			assert.NotEqual(t, KindPointer, tt.typ.Base().Kind)
		})
	}
}

func TestPrimitiveTable(t *testing.T) {
	for _, hostOS := range []string{"linux", "darwin", "windows"} {
		t.Run(hostOS, func(t *testing.T) {
			declared := make(map[string]bool)

			uses := func(typ *Type) {
				if base := typ.Base(); base.Kind == KindPrimitive || base.Kind == KindVoid {
					assert.True(t, declared[base.Name], "%s used before declaration", base.Name)
				}
			}

			for _, p := range primitiveTable(hostOS) {
				assert.False(t, declared[p.name], "%s declared twice", p.name)
				assert.False(t, isPreambleIdent(p.name), "%s collides with the preamble", p.name)
				assert.False(t, shadowsUniverse(p.name), p.name)

				switch p.kind {
				case primAlias:
					assert.True(t, declared[p.alias], "%s aliases undeclared %s", p.name, p.alias)
				case primCallback:
					uses(p.ret)
					for _, a := range p.args {
						uses(a)
					}
				}

				declared[p.name] = true
			}

			assert.True(t, declared["GLhandleARB"])
		})
	}
}

func TestHandleARB(t *testing.T) {
	want := map[string]primitive{
		"darwin":  {name: "GLhandleARB", kind: primOpaque},
		"linux":   {name: "GLhandleARB", kind: primAlias, alias: "GLuint"},
		"freebsd": {name: "GLhandleARB", kind: primAlias, alias: "GLuint"},
	}

	for hostOS, w := range want {
		got := NewResolver(hostOS).byName["GLhandleARB"]
		if diff := cmp.Diff(w, got, cmp.AllowUnexported(primitive{})); diff != "" {
			t.Errorf("%s: GLhandleARB mismatch (-want +got):\n%s", hostOS, diff)
		}
	}
}
