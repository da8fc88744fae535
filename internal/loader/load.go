package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/roach88/snapquery/internal/ir"
	"github.com/roach88/snapquery/internal/nodeset"
	"github.com/roach88/snapquery/internal/queryir"
)

// InlinePath names documents that did not come from a file.
const InlinePath = "<inline>"

// ReadDocument reads and decodes the file at path.
func ReadDocument(path string) (ir.IRValue, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "cannot read file", Err: err}
	}
	return Decode(path, data, format)
}

// LoadQuery reads a query file.
func LoadQuery(path string) (queryir.Query, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return queryFrom(path, doc)
}

// ParseQuery reads a query given on the command line: inline JSON when
// arg starts with '{', a file path otherwise.
func ParseQuery(arg string) (queryir.Query, error) {
	trimmed := strings.TrimSpace(arg)
	if !strings.HasPrefix(trimmed, "{") {
		return LoadQuery(arg)
	}
	doc, err := Decode(InlinePath, []byte(trimmed), FormatJSON)
	if err != nil {
		return nil, err
	}
	return queryFrom(InlinePath, doc)
}

func queryFrom(path string, doc ir.IRValue) (queryir.Query, error) {
	q, err := queryir.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return q, nil
}

// LoadNodeSets reads a node-set file into a registry.
func LoadNodeSets(path string) (*nodeset.Registry, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	reg, err := nodeset.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}
