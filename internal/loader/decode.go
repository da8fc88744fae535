package loader

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/snapquery/internal/ir"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatOf picks the format of path from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &Error{Path: path, Message: fmt.Sprintf("unsupported file extension %q (want .json, .yaml, .yml or .cue)", filepath.Ext(path))}
	}
}

// Decode parses data in the given format. path is only used in errors.
func Decode(path string, data []byte, format Format) (ir.IRValue, error) {
	switch format {
	case FormatJSON:
		v, err := ir.UnmarshalIRValue(data)
		if err != nil {
			return nil, &Error{Path: path, Message: "invalid JSON", Err: err}
		}
		return v, nil
	case FormatYAML:
		return decodeYAML(path, data)
	case FormatCUE:
		return decodeCUE(path, data)
	default:
		return nil, &Error{Path: path, Message: fmt.Sprintf("unknown format %q", format)}
	}
}

func decodeYAML(path string, data []byte) (ir.IRValue, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Path: path, Message: "invalid YAML", Err: err}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, &Error{Path: path, Message: "empty YAML document"}
	}
	return fromYAML(path, doc.Content[0])
}

// FromYAMLNode converts an already decoded YAML node, such as a yaml.Node
// field of a larger document. Errors are reported against path.
func FromYAMLNode(path string, n *yaml.Node) (ir.IRValue, error) {
	if n.Kind == 0 {
		return nil, &Error{Path: path, Message: "empty YAML value"}
	}
	return fromYAML(path, n)
}

// fromYAML converts a yaml.Node tree. Mapping nodes keep their key order,
// which decoding into map[string]any would lose.
func fromYAML(path string, n *yaml.Node) (ir.IRValue, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return ir.IRNull{}, nil
		}
		return fromYAML(path, n.Content[0])

	case yaml.AliasNode:
		return fromYAML(path, n.Alias)

	case yaml.ScalarNode:
		return yamlScalar(path, n)

	case yaml.SequenceNode:
		arr := make(ir.IRArray, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := fromYAML(path, child)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil

	case yaml.MappingNode:
		obj := make(ir.IRObject, 0, len(n.Content)/2)
		seen := make(map[string]bool, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if key.Kind != yaml.ScalarNode {
				return nil, yamlError(path, key, "mapping keys must be scalars")
			}
			if seen[key.Value] {
				return nil, yamlError(path, key, fmt.Sprintf("duplicate key %q", key.Value))
			}
			seen[key.Value] = true

			v, err := fromYAML(path, val)
			if err != nil {
				return nil, err
			}
			obj = append(obj, ir.F(key.Value, v))
		}
		return obj, nil

	default:
		return nil, yamlError(path, n, fmt.Sprintf("unsupported YAML node kind %d", n.Kind))
	}
}

func yamlScalar(path string, n *yaml.Node) (ir.IRValue, error) {
	switch n.ShortTag() {
	case "!!null":
		return ir.IRNull{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, yamlError(path, n, err.Error())
		}
		return ir.IRBool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, yamlError(path, n, err.Error())
		}
		return ir.IRInt(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, yamlError(path, n, err.Error())
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, yamlError(path, n, fmt.Sprintf("non-finite number %s", n.Value))
		}
		return ir.IRFloat(f), nil
	case "!!str":
		return ir.IRString(n.Value), nil
	default:
		return nil, yamlError(path, n, fmt.Sprintf("unsupported YAML tag %s", n.ShortTag()))
	}
}

func yamlError(path string, n *yaml.Node, msg string) *Error {
	return &Error{Path: path, Line: n.Line, Column: n.Column, Message: msg}
}

func decodeCUE(path string, data []byte) (ir.IRValue, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, cueError(path, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(path, err)
	}
	return fromCUE(path, v)
}

// fromCUE converts a concrete CUE value. Struct fields are read in
// declaration order; definitions and hidden fields are skipped.
func fromCUE(path string, v cue.Value) (ir.IRValue, error) {
	if d, ok := v.Default(); ok {
		v = d
	}

	switch v.Kind() {
	case cue.NullKind:
		return ir.IRNull{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, cueError(path, err)
		}
		return ir.IRBool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, cueError(path, err)
		}
		return ir.IRInt(i), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, cueError(path, err)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			le := &Error{Path: path, Message: "non-finite number"}
			if pos := v.Pos(); pos.IsValid() {
				le.Line, le.Column = pos.Line(), pos.Column()
			}
			return nil, le
		}
		return ir.IRFloat(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, cueError(path, err)
		}
		return ir.IRString(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, cueError(path, err)
		}
		arr := ir.IRArray{}
		for iter.Next() {
			elem, err := fromCUE(path, iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, cueError(path, err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			field, err := fromCUE(path, iter.Value())
			if err != nil {
				return nil, err
			}
			obj = append(obj, ir.F(iter.Selector().Unquoted(), field))
		}
		return obj, nil
	default:
		e := &Error{Path: path, Message: fmt.Sprintf("unsupported CUE value of kind %v", v.Kind())}
		if pos := v.Pos(); pos.IsValid() {
			e.Line, e.Column = pos.Line(), pos.Column()
		}
		return nil, e
	}
}
