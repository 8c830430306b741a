package parser

import (
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInput marks documents that are missing, unreadable or not well-formed XML.
	ErrInput = errors.New("invalid registry document")

	// ErrSchema marks documents that parse but lack required names or values.
	ErrSchema = errors.New("registry schema violation")
)

// Options filters what Parse keeps. The zero value keeps everything.
type Options struct {
	// API restricts enums and commands that carry an api attribute to this API.
	API string
}

func (o Options) keep(api string) bool {
	return o.API == "" || api == "" || api == o.API
}

// ParseFile opens and parses the registry at path. The file is closed before
// ParseFile returns.
func ParseFile(path string, opts Options) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.Mark(err, ErrInput), "opening %s", path)
	}
	defer f.Close()

	reg, err := Parse(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	return reg, nil
}

// Parse decodes a registry document. It never returns a partial registry.
func Parse(r io.Reader, opts Options) (*Registry, error) {
	d := xml.NewDecoder(r)

	start, err := rootElement(d)
	if err != nil {
		return nil, err
	}
	if start.Name.Local != "registry" {
		return nil, errors.Mark(errors.Newf("root element is <%s>, want <registry>", start.Name.Local), ErrSchema)
	}

	reg := &Registry{}

L:
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, inputError(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "enums":
				group, err := decodeEnums(d, t, opts)
				if err != nil {
					return nil, err
				}
				reg.Groups = append(reg.Groups, group)
			case "commands":
				cmds, err := decodeCommands(d, opts)
				if err != nil {
					return nil, err
				}
				reg.Commands = append(reg.Commands, cmds...)
			default:
				if err := d.Skip(); err != nil {
					return nil, inputError(err)
				}
			}
		case xml.EndElement:
			break L
		}
	}

	for {
		if _, err := d.Token(); err != nil {
			if err == io.EOF {
				break
			}
			return nil, inputError(err)
		}
	}

	return reg, nil
}

func rootElement(d *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				return xml.StartElement{}, errors.Mark(errors.New("document has no root element"), ErrInput)
			}
			return xml.StartElement{}, inputError(err)
		}
		if t, ok := tok.(xml.StartElement); ok {
			return t, nil
		}
	}
}

func inputError(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return errors.Mark(errors.Wrap(err, "reading registry"), ErrInput)
}

func decodeEnums(d *xml.Decoder, start xml.StartElement, opts Options) (EnumGroup, error) {
	var es struct {
		Namespace string `xml:"namespace,attr"`
		Group     string `xml:"group,attr"`
		Type      string `xml:"type,attr"`
		Enums     []struct {
			Name  string `xml:"name,attr"`
			Value string `xml:"value,attr"`
			API   string `xml:"api,attr"`
		} `xml:"enum"`
	}

	line, _ := d.InputPos()
	if err := d.DecodeElement(&es, &start); err != nil {
		return EnumGroup{}, inputError(err)
	}

	group := EnumGroup{
		Namespace: es.Namespace,
		Group:     es.Group,
		Type:      es.Type,
	}

	for i, e := range es.Enums {
		name := strings.TrimSpace(e.Name)
		value := strings.TrimSpace(e.Value)
		if name == "" {
			return EnumGroup{}, errors.Mark(errors.Newf("enums at line %d: member %d has no name", line, i), ErrSchema)
		}
		if value == "" {
			return EnumGroup{}, errors.Mark(errors.Newf("enums at line %d: %s has no value", line, name), ErrSchema)
		}
		if !opts.keep(e.API) {
			continue
		}
		group.Enums = append(group.Enums, Enum{Name: name, Value: value, API: e.API})
	}

	return group, nil
}

func decodeCommands(d *xml.Decoder, opts Options) ([]Command, error) {
	var cmds []Command

	for {
		tok, err := d.Token()
		if err != nil {
			return nil, inputError(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "command" {
				if err := d.Skip(); err != nil {
					return nil, inputError(err)
				}
				continue
			}
			line, _ := d.InputPos()
			cmd, err := decodeCommand(d, t)
			if err != nil {
				return nil, errors.Wrapf(err, "command at line %d", line)
			}
			if opts.keep(cmd.API) {
				cmds = append(cmds, cmd)
			}
		case xml.EndElement:
			return cmds, nil
		}
	}
}

func decodeCommand(d *xml.Decoder, start xml.StartElement) (Command, error) {
	var cmd Command
	for _, a := range start.Attr {
		if a.Name.Local == "api" {
			cmd.API = a.Value
		}
	}

	hasProto := false
	for {
		tok, err := d.Token()
		if err != nil {
			return Command{}, inputError(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "proto":
				proto, err := decodeDecl(d)
				if err != nil {
					return Command{}, err
				}
				cmd.Proto = proto
				cmd.Name = proto.Name
				hasProto = true
			case "param":
				param, err := decodeDecl(d)
				if err != nil {
					return Command{}, err
				}
				cmd.Params = append(cmd.Params, param)
			default:
				if err := d.Skip(); err != nil {
					return Command{}, inputError(err)
				}
			}
		case xml.EndElement:
			if !hasProto {
				return Command{}, errors.Mark(errors.New("missing <proto>"), ErrSchema)
			}
			if cmd.Name == "" {
				return Command{}, errors.Mark(errors.New("<proto> has no <name>"), ErrSchema)
			}
			return cmd, nil
		}
	}
}

// decodeDecl reads a <proto> or <param> body. Pointer markers and the struct
// keyword are only looked for in the declarator text between the <ptype> and
// <name> children, never inside them.
func decodeDecl(d *xml.Decoder) (Decl, error) {
	var decl Decl
	var text strings.Builder

	for {
		tok, err := d.Token()
		if err != nil {
			return Decl{}, inputError(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "ptype", "name":
				s, err := readText(d)
				if err != nil {
					return Decl{}, err
				}
				text.WriteString(s)
				if t.Name.Local == "ptype" {
					decl.Type = strings.TrimSpace(s)
				} else {
					decl.Name = strings.TrimSpace(s)
				}
			default:
				if err := d.Skip(); err != nil {
					return Decl{}, inputError(err)
				}
			}
		case xml.CharData:
			s := string(t)
			text.WriteString(s)
			decl.Pointers += strings.Count(s, "*")
			for _, f := range strings.Fields(strings.ReplaceAll(s, "*", " ")) {
				if f == "struct" {
					decl.Struct = true
				}
			}
		case xml.EndElement:
			decl.Text = strings.Join(strings.Fields(text.String()), " ")
			return decl, nil
		}
	}
}

func readText(d *xml.Decoder) (string, error) {
	var sb strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return "", inputError(err)
		}

		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			if err := d.Skip(); err != nil {
				return "", inputError(err)
			}
		case xml.EndElement:
			return sb.String(), nil
		}
	}
}
