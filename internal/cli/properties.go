package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/snapquery/internal/queryir"
)

// PropertiesResult is the JSON payload of the properties command.
type PropertiesResult struct {
	Properties []string `json:"properties"`
	NodeSets   []string `json:"node_sets"`
}

// NewPropertiesCommand creates the properties command.
func NewPropertiesCommand(rootOpts *RootOptions) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "properties",
		Short: "List the properties a query references",
		Long: `List the property names a query references, at any depth, sorted.

Reserved keys (population, node_id, edge_id, $and, $or, $node_set) are not
properties. Referenced node sets are listed separately; they are not
expanded.

Example:
  snapquery properties --query '{"$or": [{"layer": 2}, {"mtype": {"$regex": "L2.*"}}]}'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			q, err := loadQuery(query, f)
			if err != nil {
				return err
			}

			result := PropertiesResult{
				Properties: queryir.Properties(q),
				NodeSets:   queryir.NodeSets(q),
			}
			return f.Result(result, func(w io.Writer) {
				for _, name := range result.Properties {
					fmt.Fprintln(w, name)
				}
				for _, name := range result.NodeSets {
					fmt.Fprintf(w, "$node_set %s\n", name)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "query as inline JSON or a file path (required)")

	return cmd
}
