package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/snapquery/internal/ir"
	"github.com/roach88/snapquery/internal/queryir"
)

// ExpandOptions holds flags for the expand command.
type ExpandOptions struct {
	*RootOptions
	SourceOptions
	Query string
}

// ExpandResult is the JSON payload of the expand command.
type ExpandResult struct {
	Population string      `json:"population"`
	Query      ir.IRObject `json:"query"`
	QueryHash  string      `json:"query_hash"`
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Print a query with its node sets expanded",
		Long: `Replace every $node_set reference of a query with the node_id list it
selects in the population, and print the resulting query as JSON.

Key order is preserved. The query hash is computed over the canonical
encoding of the expanded query.

Example:
  snapquery expand --db circuit.db --query '{"$node_set": "Layer2", "etype": "cNAC"}'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(opts, cmd)
		},
	}

	opts.SourceOptions.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "query as inline JSON or a file path (required)")

	return cmd
}

func runExpand(opts *ExpandOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	q, err := loadQuery(opts.Query, f)
	if err != nil {
		return err
	}
	p, err := opts.SourceOptions.open(cmd.Context(), f)
	if err != nil {
		return err
	}

	expanded, err := p.Expand(q)
	if err != nil {
		return f.Fail(ExitFailure, errorCode(err), "failed to expand node sets", err)
	}
	if queryir.HasNodeSets(expanded) {
		return f.Fail(ExitFailure, ErrCodeNodeSet, "population has no node sets to expand", nil)
	}

	doc := queryir.Encode(expanded)
	hash, err := ir.QueryHash(doc)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to hash query", err)
	}
	result := ExpandResult{Population: p.Name(), Query: doc, QueryHash: hash}

	data, err := ir.MarshalIRValue(doc)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to encode query", err)
	}
	return f.Result(result, func(w io.Writer) {
		fmt.Fprintln(w, string(data))
	})
}
