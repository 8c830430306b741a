package generator

import (
	"bytes"
	"text/template"
)

type primitiveLine struct {
	Name string
	Expr string
}

type preambleData struct {
	Package    string
	Source     string
	Version    string
	HostOS     string
	Primitives []primitiveLine
	ErrorFunc  string
	ErrorField string
	BeginFunc  string
	EndFunc    string
}

var preambleTmpl = template.Must(template.New("preamble").Parse(`// Code generated by gloo from {{.Source}}; DO NOT EDIT.

// Package {{.Package}} binds the GL entry points and constants of {{.Source}}.
// Entry points are resolved at runtime by Init, which must run while a GL
// context is current.
package {{.Package}}

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/jupiterrider/ffi"
)

// Version of the generated bindings.
const Version = {{printf "%q" .Version}}

// CallingConvention names the convention of entry points and callbacks.
var CallingConvention = callingConvention()

func callingConvention() string {
	if runtime.GOOS == "windows" {
		return "stdcall"
	}
	return "cdecl"
}

// abi is libffi's default for the target, which is the convention named by
// CallingConvention.
var abi = ffi.DefaultAbi

// Type describes a native argument, return or callback type.
type Type struct {
	Name string
	FFI  *ffi.Type

	// Elem is the pointee of a pointer type.
	Elem *Type

	// Ret and Args describe the signature of a callback type.
	Ret  *Type
	Args []*Type
}

func (t *Type) String() string {
	if t.Elem != nil {
		return "*" + t.Elem.String()
	}
	return t.Name
}

// Pointer returns the type of a pointer to t.
func Pointer(t *Type) *Type {
	return &Type{Name: "*" + t.Name, FFI: &ffi.TypePointer, Elem: t}
}

func newType(name string, t *ffi.Type) *Type {
	return &Type{Name: name, FFI: t}
}

func aliasType(name string, t *Type) *Type {
	a := *t
	a.Name = name
	return &a
}

func callbackType(name string, ret *Type, args ...*Type) *Type {
	return &Type{Name: name, FFI: &ffi.TypePointer, Ret: ret, Args: args}
}

var (
	ptrSize = int(unsafe.Sizeof(uintptr(0)))

	intsBySize = map[int]*ffi.Type{
		1: &ffi.TypeSint8,
		2: &ffi.TypeSint16,
		4: &ffi.TypeSint32,
		8: &ffi.TypeSint64,
	}
	uintsBySize = map[int]*ffi.Type{
		1: &ffi.TypeUint8,
		2: &ffi.TypeUint16,
		4: &ffi.TypeUint32,
		8: &ffi.TypeUint64,
	}
)

// Registry type aliases. GLhandleARB was chosen for {{.HostOS}}.
var (
{{- range .Primitives}}
	{{.Name}} = {{.Expr}}
{{- end}}
)

var (
	loadOnce sync.Once
	loadErr  error
	libgl    ffi.Lib
	procAddr uintptr
	procCif  ffi.Cif
)

// libraryNames returns the GL library candidates and the name of the
// platform's proc-address function. An empty name means symbols are looked
// up in the library directly.
func libraryNames() ([]string, string) {
	switch runtime.GOOS {
	case "windows":
		return []string{"opengl32.dll"}, "wglGetProcAddress"
	case "darwin":
		return []string{"/System/Library/Frameworks/OpenGL.framework/OpenGL"}, ""
	default:
		return []string{"libGL.so.1", "libGL.so"}, "glXGetProcAddress"
	}
}

func loadLibrary() error {
	loadOnce.Do(func() {
		names, getProc := libraryNames()
		for _, name := range names {
			if libgl, loadErr = ffi.Load(name); loadErr == nil {
				break
			}
		}
		if loadErr != nil {
			loadErr = fmt.Errorf("{{.Package}}: loading GL library: %w", loadErr)
			return
		}
		if getProc == "" {
			return
		}

		addr, err := libgl.Get(getProc)
		if err != nil {
			loadErr = fmt.Errorf("{{.Package}}: resolving %s: %w", getProc, err)
			return
		}
		if status := ffi.PrepCif(&procCif, abi, 1, &ffi.TypePointer, &ffi.TypePointer); status != ffi.OK {
			loadErr = fmt.Errorf("{{.Package}}: preparing %s: %v", getProc, status)
			return
		}
		procAddr = addr
	})
	return loadErr
}

// getProcAddress asks the proc-address function first and falls back to the
// library's symbol table, where GL 1.x entry points live on Windows. It
// returns 0 when neither knows name.
func getProcAddress(name string) uintptr {
	if procAddr != 0 {
		cname := append([]byte(name), 0)
		p := unsafe.Pointer(&cname[0])
		var addr uintptr
		ffi.Call(&procCif, procAddr, unsafe.Pointer(&addr), unsafe.Pointer(&p))
		runtime.KeepAlive(cname)
		if validAddr(addr) {
			return addr
		}
	}

	addr, err := libgl.Get(name)
	if err != nil {
		return 0
	}
	return addr
}

// validAddr rejects the sentinels some wglGetProcAddress implementations
// return instead of NULL.
func validAddr(addr uintptr) bool {
	switch addr {
	case 0, 1, 2, 3, ^uintptr(0):
		return false
	}
	return true
}

// Proc is one entry point. A Proc whose symbol was not found has a zero Addr
// and fails on Call.
type Proc struct {
	Name string
	Addr uintptr
	Ret  *Type
	Args []*Type

	gl       *Context
	errcheck func(p *Proc, args []unsafe.Pointer) error
	cif      ffi.Cif
	prepErr  error
}

// Available reports whether the driver exports the entry point.
func (p *Proc) Available() bool {
	return p.Addr != 0
}

// Call invokes the entry point. ret points to storage for the return value,
// an ffi.Arg for integer types narrower than a register, or is nil for void
// functions. args holds one pointer per argument value.
func (p *Proc) Call(ret unsafe.Pointer, args ...unsafe.Pointer) error {
	if p.Addr == 0 {
		return fmt.Errorf("%s: entry point not available", p.Name)
	}
	if p.prepErr != nil {
		return p.prepErr
	}
	if len(args) != len(p.Args) {
		return fmt.Errorf("%s: got %d arguments, want %d", p.Name, len(args), len(p.Args))
	}

	ffi.Call(&p.cif, p.Addr, ret, args...)

	if p.errcheck != nil {
		return p.errcheck(p, args)
	}
	return nil
}

func (gl *Context) bind(name string, check func(*Proc, []unsafe.Pointer) error, ret *Type, args []*Type) *Proc {
	p := &Proc{
		Name:     name,
		Addr:     getProcAddress(name),
		Ret:      ret,
		Args:     args,
		gl:       gl,
		errcheck: check,
	}
	if p.Addr == 0 {
		return p
	}

	types := make([]*ffi.Type, len(args))
	for i, a := range args {
		types[i] = a.FFI
	}
	if status := ffi.PrepCif(&p.cif, abi, uint32(len(args)), ret.FFI, types...); status != ffi.OK {
		p.prepErr = fmt.Errorf("%s: preparing call interface: %v", name, status)
	}
	return p
}

// Error is a non-zero {{.ErrorFunc}} result observed after a call.
type Error struct {
	Code uint32
	Func string
	Args []unsafe.Pointer
}

func (e *Error) Error() string {
	return fmt.Sprintf("GL error 0x%04x after call to %s; args: %v", e.Code, e.Func, e.Args)
}

const (
	errorFunc = {{printf "%q" .ErrorFunc}}
	beginFunc = {{printf "%q" .BeginFunc}}
	endFunc   = {{printf "%q" .EndFunc}}
)
{{if .ErrorField}}
// errcheck queries {{.ErrorFunc}} after every call except {{.ErrorFunc}}
// itself. Between {{.BeginFunc}} and {{.EndFunc}} the query is illegal, so
// the Context tracks whether it is inside that pair.
func errcheck(p *Proc, args []unsafe.Pointer) error {
	gl := p.gl
	switch p.Name {
{{- if .EndFunc}}
	case endFunc:
		gl.inBegin = false
{{- end}}
{{- if .BeginFunc}}
	case beginFunc:
		gl.inBegin = true
{{- end}}
	}
	if gl.inBegin || !gl.{{.ErrorField}}.Available() {
		return nil
	}

	var code ffi.Arg
	if err := gl.{{.ErrorField}}.Call(unsafe.Pointer(&code)); err != nil {
		return err
	}
	if uint32(code) != 0 {
		return &Error{Code: uint32(code), Func: p.Name, Args: args}
	}
	return nil
}
{{end}}
`))

func renderPreamble(buf *bytes.Buffer, data preambleData) error {
	return preambleTmpl.Execute(buf, data)
}
