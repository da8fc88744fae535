package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/snapquery/internal/ir"
	"github.com/roach88/snapquery/internal/queryir"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	SourceOptions
	Query string
	Mask  bool
}

// ResolveResult is the JSON payload of the resolve command.
type ResolveResult struct {
	Population string  `json:"population"`
	QueryHash  string  `json:"query_hash"`
	Size       int     `json:"size"`
	Selected   int     `json:"selected"`
	IDs        []int64 `json:"ids"`
	Mask       []bool  `json:"mask,omitempty"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a query against a population",
		Long: `Resolve a query against a population and print the selected IDs.

The query is inline JSON or a .json/.yaml/.cue file. $node_set references
are expanded from the stored node sets, or from --node-sets.

Example:
  snapquery resolve --db circuit.db -p default --query '{"layer": [2, 3]}'
  snapquery resolve --table nodes.yaml --node-sets node_sets.json --query query.yaml --mask`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, cmd)
		},
	}

	opts.SourceOptions.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "query as inline JSON or a file path (required)")
	cmd.Flags().BoolVar(&opts.Mask, "mask", false, "also print the per-row selection mask")

	return cmd
}

func runResolve(opts *ResolveOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	q, err := loadQuery(opts.Query, f)
	if err != nil {
		return err
	}
	p, err := opts.SourceOptions.open(cmd.Context(), f)
	if err != nil {
		return err
	}

	sel, err := p.Mask(q)
	if err != nil {
		return f.Fail(ExitFailure, errorCode(err), "failed to resolve query", err)
	}

	hash, err := ir.QueryHash(queryir.Encode(q))
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeInvalidQuery, "failed to hash query", err)
	}
	result := ResolveResult{
		Population: p.Name(),
		QueryHash:  hash,
		Size:       len(sel),
		IDs:        []int64{},
	}
	ids := p.Table().IDs()
	for i, ok := range sel {
		if ok {
			result.IDs = append(result.IDs, ids[i])
		}
	}
	result.Selected = len(result.IDs)
	if opts.Mask {
		result.Mask = sel
	}
	f.VerboseLog("Selected %d of %d rows of %q", result.Selected, result.Size, result.Population)

	return f.Result(result, func(w io.Writer) {
		if opts.Mask {
			for i, ok := range sel {
				fmt.Fprintf(w, "%d\t%t\n", ids[i], ok)
			}
			return
		}
		for _, id := range result.IDs {
			fmt.Fprintln(w, id)
		}
	})
}
