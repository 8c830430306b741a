package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryPath = "../testdata/gl.xml"

func TestParseFile(t *testing.T) {
	reg, err := ParseFile(registryPath, Options{})
	require.NoError(t, err)

	require.Len(t, reg.Groups, 2)
	assert.Equal(t, "AttribMask", reg.Groups[0].Group)
	assert.Equal(t, "bitmask", reg.Groups[0].Type)
	assert.Equal(t, 10, reg.EnumCount())

	assert.Equal(t, Enum{Name: "GL_COLOR_BUFFER_BIT", Value: "0x00004000"}, reg.Groups[0].Enums[2])

	var names []string
	for _, c := range reg.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		"glBegin",
		"glClear",
		"glCreateSyncFromCLeventARB",
		"glEnd",
		"glGetError",
		"glGetString",
		"glShaderSource",
		"glMapBuffer",
		"glDebugMessageCallback",
		"glShadingRateQCOM",
	}, names)
}

func TestParseDecls(t *testing.T) {
	reg, err := ParseFile(registryPath, Options{})
	require.NoError(t, err)

	cmds := make(map[string]Command)
	for _, c := range reg.Commands {
		cmds[c.Name] = c
	}

	tests := []struct {
		name string
		got  Decl
		want Decl
	}{
		{
			name: "void return",
			got:  cmds["glEnd"].Proto,
			want: Decl{Name: "glEnd", Text: "void glEnd"},
		},
		{
			name: "typed return",
			got:  cmds["glGetError"].Proto,
			want: Decl{Name: "glGetError", Type: "GLenum", Text: "GLenum glGetError"},
		},
		{
			name: "const pointer return",
			got:  cmds["glGetString"].Proto,
			want: Decl{Name: "glGetString", Type: "GLubyte", Pointers: 1, Text: "const GLubyte *glGetString"},
		},
		{
			name: "untyped pointer return",
			got:  cmds["glMapBuffer"].Proto,
			want: Decl{Name: "glMapBuffer", Pointers: 1, Text: "void *glMapBuffer"},
		},
		{
			name: "double pointer param",
			got:  cmds["glShaderSource"].Params[2],
			want: Decl{Name: "string", Type: "GLchar", Pointers: 2, Text: "const GLchar *const*string"},
		},
		{
			name: "struct param",
			got:  cmds["glCreateSyncFromCLeventARB"].Params[0],
			want: Decl{Name: "context", Type: "_cl_context", Struct: true, Pointers: 1, Text: "struct _cl_context *context"},
		},
		{
			name: "untyped void pointer param",
			got:  cmds["glDebugMessageCallback"].Params[1],
			want: Decl{Name: "userParam", Pointers: 1, Text: "const void *userParam"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	assert.Empty(t, cmds["glEnd"].Params)
	assert.Len(t, cmds["glShaderSource"].Params, 4)
}

func TestParseAPIFilter(t *testing.T) {
	reg, err := ParseFile(registryPath, Options{API: "gl"})
	require.NoError(t, err)

	var values []string
	for _, g := range reg.Groups {
		for _, e := range g.Enums {
			if e.Name == "GL_ACTIVE_PROGRAM_EXT" {
				values = append(values, e.Value)
			}
		}
	}
	assert.Equal(t, []string{"0x8259"}, values)

	for _, c := range reg.Commands {
		assert.NotEqual(t, "glShadingRateQCOM", c.Name)
	}
	assert.Len(t, reg.Commands, 9)
}

func TestParseEmptyRegistry(t *testing.T) {
	reg, err := Parse(strings.NewReader(`<registry></registry>`), Options{})
	require.NoError(t, err)
	assert.Empty(t, reg.Groups)
	assert.Empty(t, reg.Commands)
}

func TestParseInputErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "truncated", doc: `<registry><enums><enum name="A" value="1"/>`},
		{name: "mismatched tags", doc: `<registry><commands></enums></registry>`},
		{name: "trailing garbage", doc: `<registry></registry></registry>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc), Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInput), "got %v", err)
			assert.False(t, errors.Is(err, ErrSchema))
		})
	}
}

func TestParseSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "wrong root",
			doc:  `<library></library>`,
		},
		{
			name: "enum without name",
			doc:  `<registry><enums><enum value="0x1"/></enums></registry>`,
		},
		{
			name: "enum without value",
			doc:  `<registry><enums><enum name="GL_FOO"/></enums></registry>`,
		},
		{
			name: "command without proto",
			doc:  `<registry><commands><command><param><ptype>GLint</ptype> <name>x</name></param></command></commands></registry>`,
		},
		{
			name: "command without name",
			doc:  `<registry><commands><command><proto>void</proto></command></commands></registry>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := Parse(strings.NewReader(tt.doc), Options{})
			require.Error(t, err)
			assert.Nil(t, reg)
			assert.True(t, errors.Is(err, ErrSchema), "got %v", err)
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.xml"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInput))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
