// Package loader reads queries, node-set files and population files from
// disk.
//
// Three document formats are accepted, chosen by file extension:
//
//	.json         JSON
//	.yaml, .yml   YAML
//	.cue          CUE (the file must evaluate to concrete data)
//
// Every format decodes into an ir.IRValue with mapping keys in document
// order. Key order matters: a query reports the error of its first bad key,
// and node sets keep their file order.
package loader
