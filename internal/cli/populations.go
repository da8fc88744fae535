package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/snapquery/internal/store"
)

// NewPopulationsCommand creates the populations command.
func NewPopulationsCommand(rootOpts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "populations",
		Short: "List the populations stored in a database",
		Example: `  snapquery populations --db circuit.db
  snapquery populations --db circuit.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			if _, err := os.Stat(database); err != nil {
				return f.Fail(ExitCommandError, ErrCodeNotFound, "database not found", err)
			}
			st, err := store.Open(database)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
			}
			defer st.Close()

			infos, err := st.ListPopulations(cmd.Context())
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to list populations", err)
			}

			return f.Result(infos, func(w io.Writer) {
				for _, info := range infos {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
						info.Name, info.Kind, info.Size, strings.Join(info.Properties, ","))
				}
			})
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}
