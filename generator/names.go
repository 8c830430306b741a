package generator

import (
	"go/ast"
	"go/token"
	"go/types"
	"unicode"
	"unicode/utf8"
)

// preambleIdents are the package-level identifiers the preamble declares or
// imports. Constants and primitives must not shadow them.
var preambleIdents = []string{
	"fmt", "runtime", "sync", "unsafe", "ffi",
	"Version", "CallingConvention", "callingConvention", "abi",
	"Type", "Pointer", "newType", "aliasType", "callbackType",
	"ptrSize", "intsBySize", "uintsBySize",
	"loadOnce", "loadErr", "libgl", "procAddr", "procCif",
	"libraryNames", "loadLibrary", "getProcAddress", "validAddr",
	"Proc", "Error", "errorFunc", "beginFunc", "endFunc", "errcheck",
	"Context", "Init",
}

// fieldName is the Context field for a command: the gl prefix is dropped
// from glFoo, anything else gets its first letter upper-cased.
func fieldName(command string) string {
	name := command
	if len(name) > 2 && name[:2] == "gl" {
		if r, _ := utf8.DecodeRuneInString(name[2:]); unicode.IsUpper(r) {
			name = name[2:]
		}
	}

	r, n := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[n:]
}

func isExportedIdent(name string) bool {
	return token.IsIdentifier(name) && ast.IsExported(name)
}

// shadowsUniverse reports whether name is a predeclared Go identifier such as
// nil, len or uint32.
func shadowsUniverse(name string) bool {
	return types.Universe.Lookup(name) != nil
}
