package generator

import (
	"bytes"
	"fmt"
	goparser "go/parser"
	"go/token"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/imports"

	"github.com/ardanlabs/gloo/internal/logger"
	"github.com/ardanlabs/gloo/parser"
)

type Options struct {
	Package   string
	Version   string
	Source    string
	Filename  string
	ErrorFunc string
	BeginFunc string
	EndFunc   string
	HostOS    string
	Format    bool
}

// Fallback records a struct type that was emitted as GLvoid.
type Fallback struct {
	Command string
	Decl    string
}

type Result struct {
	Source    []byte
	Constants int
	Commands  int
	Fallbacks []Fallback

	// Redefined lists constants declared more than once; the last value wins.
	Redefined []string
}

type Generator struct {
	opts     Options
	registry *parser.Registry
	resolver *Resolver
}

func New(registry *parser.Registry, opts Options) *Generator {
	return &Generator{
		opts:     opts,
		registry: registry,
		resolver: NewResolver(opts.HostOS),
	}
}

// Generate renders the complete source file. It returns an error, and no
// source, if any enum or command cannot be emitted.
func (g *Generator) Generate() (*Result, error) {
	if g.opts.BeginFunc != "" && g.opts.BeginFunc == g.opts.EndFunc {
		return nil, errors.Newf("begin and end functions are both %q", g.opts.BeginFunc)
	}

	bindings, err := g.bindings()
	if err != nil {
		return nil, errors.Wrap(err, "generating bindings")
	}

	consts, redefined, err := g.constants()
	if err != nil {
		return nil, errors.Wrap(err, "generating constants")
	}

	errorField := ""
	for _, b := range bindings {
		if b.command == g.opts.ErrorFunc {
			errorField = b.field
		}
	}
	if errorField == "" {
		logger.Logger.Warnw("error query function not in registry, calls will not be checked",
			"function", g.opts.ErrorFunc)
	}

	var buf bytes.Buffer

	if err := renderPreamble(&buf, g.preambleData(errorField)); err != nil {
		return nil, errors.Wrap(err, "generating preamble")
	}
	writeConstants(&buf, consts)
	g.writeBindings(&buf, bindings, errorField != "")

	src := buf.Bytes()
	if g.opts.Format {
		if src, err = Format(g.filename(), src); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Source:    src,
		Constants: len(consts),
		Commands:  len(bindings),
		Redefined: redefined,
	}
	for _, b := range bindings {
		res.Fallbacks = append(res.Fallbacks, b.fallbacks...)
	}

	return res, nil
}

// Format gofmt-formats src without touching its imports.
func Format(filename string, src []byte) ([]byte, error) {
	out, err := imports.Process(filename, src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "formatting generated source")
	}
	return out, nil
}

func (g *Generator) filename() string {
	if g.opts.Filename != "" {
		return g.opts.Filename
	}
	return g.opts.Package + ".go"
}

func (g *Generator) preambleData(errorField string) preambleData {
	data := preambleData{
		Package:    g.opts.Package,
		Source:     filepath.Base(g.opts.Source),
		Version:    g.opts.Version,
		HostOS:     g.opts.HostOS,
		ErrorFunc:  g.opts.ErrorFunc,
		ErrorField: errorField,
		BeginFunc:  g.opts.BeginFunc,
		EndFunc:    g.opts.EndFunc,
	}
	if g.opts.Source == "" {
		data.Source = "the GL registry"
	}

	for _, p := range g.resolver.prims {
		data.Primitives = append(data.Primitives, primitiveLine{Name: p.name, Expr: p.expr()})
	}

	return data
}

// =============================================================================
// Constants
// =============================================================================

type constant struct {
	name  string
	value string
}

// constants flattens every enum group in document order. A name seen again
// keeps its first position and takes the later value.
func (g *Generator) constants() ([]constant, []string, error) {
	var consts []constant
	var redefined []string
	index := make(map[string]int)

	for _, group := range g.registry.Groups {
		for _, e := range group.Enums {
			if err := g.checkConstName(e.Name); err != nil {
				return nil, nil, err
			}
			if _, err := goparser.ParseExpr(e.Value); err != nil {
				return nil, nil, errors.Mark(
					errors.Newf("enum %s: value %q is not a valid Go constant expression", e.Name, e.Value),
					parser.ErrSchema)
			}

			if i, ok := index[e.Name]; ok {
				if consts[i].value != e.Value {
					logger.Logger.Infow("enum redefined, later value wins",
						"name", e.Name, "previous", consts[i].value, "value", e.Value)
				}
				consts[i].value = e.Value
				redefined = append(redefined, e.Name)
				continue
			}

			index[e.Name] = len(consts)
			consts = append(consts, constant{name: e.Name, value: e.Value})
		}
	}

	return consts, redefined, nil
}

func (g *Generator) checkConstName(name string) error {
	switch {
	case !token.IsIdentifier(name):
		return errors.Mark(errors.Newf("enum %q is not a Go identifier", name), parser.ErrSchema)
	case g.resolver.IsPrimitive(name), isPreambleIdent(name):
		return errors.Mark(errors.Newf("enum %q collides with a generated declaration", name), parser.ErrSchema)
	case shadowsUniverse(name):
		return errors.Mark(errors.Newf("enum %q shadows a predeclared identifier", name), parser.ErrSchema)
	}
	return nil
}

func isPreambleIdent(name string) bool {
	for _, id := range preambleIdents {
		if id == name {
			return true
		}
	}
	return false
}

func writeConstants(buf *bytes.Buffer, consts []constant) {
	if len(consts) == 0 {
		return
	}

	fmt.Fprintf(buf, "\nconst (\n")
	for _, c := range consts {
		fmt.Fprintf(buf, "\t%s = %s\n", c.name, c.value)
	}
	fmt.Fprintf(buf, ")\n")
}

// =============================================================================
// Bindings
// =============================================================================

type binding struct {
	command   string
	field     string
	signature string
	ret       *Type
	args      []*Type
	fallbacks []Fallback
}

func (g *Generator) bindings() ([]binding, error) {
	bindings := make([]binding, 0, len(g.registry.Commands))
	fields := make(map[string]string)

	for _, cmd := range g.registry.Commands {
		if cmd.Name == "" {
			return nil, errors.Mark(errors.New("command without a name"), parser.ErrSchema)
		}

		field := fieldName(cmd.Name)
		if !isExportedIdent(field) {
			return nil, errors.Mark(errors.Newf("command %q does not map to a Go field name", cmd.Name), parser.ErrSchema)
		}
		if prev, ok := fields[field]; ok {
			return nil, errors.Mark(errors.Newf("commands %q and %q both map to field %s", prev, cmd.Name, field), parser.ErrSchema)
		}
		fields[field] = cmd.Name

		b, err := g.binding(cmd)
		if err != nil {
			return nil, errors.Wrapf(err, "command %s", cmd.Name)
		}
		b.field = field
		bindings = append(bindings, b)

		logger.Logger.Debugw("binding", "command", cmd.Name, "ret", b.ret.String(), "args", len(b.args))
	}

	return bindings, nil
}

func (g *Generator) binding(cmd parser.Command) (binding, error) {
	b := binding{
		command: cmd.Name,
		args:    make([]*Type, 0, len(cmd.Params)),
	}

	ret, fallback, err := g.resolver.Resolve(cmd.Proto)
	if err != nil {
		return binding{}, errors.Wrap(err, "return type")
	}
	if fallback {
		b.fallbacks = append(b.fallbacks, g.fallback(cmd.Name, cmd.Proto))
	}
	b.ret = ret

	params := make([]string, 0, len(cmd.Params))
	for i, p := range cmd.Params {
		at, fallback, err := g.resolver.Resolve(p)
		if err != nil {
			return binding{}, errors.Wrapf(err, "parameter %d", i)
		}
		if fallback {
			b.fallbacks = append(b.fallbacks, g.fallback(cmd.Name, p))
		}
		b.args = append(b.args, at)
		params = append(params, p.Text)
	}

	b.signature = cmd.Proto.Text + "(" + strings.Join(params, ", ") + ")"

	return b, nil
}

func (g *Generator) fallback(command string, d parser.Decl) Fallback {
	logger.Logger.Infow("struct type emitted as GLvoid", "command", command, "decl", d.Text)
	return Fallback{Command: command, Decl: d.Text}
}

func (g *Generator) writeBindings(buf *bytes.Buffer, bindings []binding, checked bool) {
	fmt.Fprintf(buf, "\n// Context holds every entry point of the registry.\n")
	fmt.Fprintf(buf, "type Context struct {\n")
	fmt.Fprintf(buf, "\tinBegin bool\n")
	if len(bindings) > 0 {
		fmt.Fprintf(buf, "\n")
	}
	for _, b := range bindings {
		fmt.Fprintf(buf, "\t%s *Proc // %s\n", b.field, b.signature)
	}
	fmt.Fprintf(buf, "}\n\n")

	fmt.Fprintf(buf, "// Init loads the GL library on first use and resolves every entry point.\n")
	fmt.Fprintf(buf, "// Entry points the driver does not export are left unavailable rather than\n")
	fmt.Fprintf(buf, "// failing Init; see Proc.Available.\n")
	fmt.Fprintf(buf, "func Init() (*Context, error) {\n")
	fmt.Fprintf(buf, "\tif err := loadLibrary(); err != nil {\n")
	fmt.Fprintf(buf, "\t\treturn nil, err\n")
	fmt.Fprintf(buf, "\t}\n\n")
	fmt.Fprintf(buf, "\tgl := &Context{}\n")

	for _, b := range bindings {
		check := "errcheck"
		if !checked || b.command == g.opts.ErrorFunc {
			check = "nil"
		}

		args := make([]string, len(b.args))
		for i, a := range b.args {
			args[i] = a.Expr()
		}

		fmt.Fprintf(buf, "\tgl.%s = gl.bind(%q, %s, %s, []*Type{%s})\n",
			b.field, b.command, check, b.ret.Expr(), strings.Join(args, ", "))
	}

	fmt.Fprintf(buf, "\n\treturn gl, nil\n")
	fmt.Fprintf(buf, "}\n")
}
