package parser

// Decl is a <proto> or <param> declaration.
type Decl struct {
	Name     string
	Type     string
	Struct   bool
	Pointers int
	Text     string
}

type Enum struct {
	Name  string
	Value string
	API   string
}

type EnumGroup struct {
	Namespace string
	Group     string
	Type      string
	Enums     []Enum
}

type Command struct {
	Name   string
	API    string
	Proto  Decl
	Params []Decl
}

type Registry struct {
	Groups   []EnumGroup
	Commands []Command
}

// EnumCount returns the number of enum members across all groups.
func (r *Registry) EnumCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Enums)
	}
	return n
}
