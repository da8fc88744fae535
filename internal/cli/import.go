package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/snapquery/internal/loader"
	"github.com/roach88/snapquery/internal/nodeset"
	"github.com/roach88/snapquery/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
	NodeSets string
}

// ImportResult is the JSON payload of the import command.
type ImportResult struct {
	Populations []store.PopulationInfo `json:"populations"`
	NodeSets    int                    `json:"node_sets"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import [population-file...]",
		Short: "Load populations and node sets into a database",
		Long: `Load population description files and a node-set file into a SQLite
database, creating it if it doesn't exist.

A population replaces any stored population of the same name. A node-set
file replaces all stored node sets.

Population files (.json, .yaml, .cue) have the form:

  name: default
  kind: node
  properties:
    layer: {type: int, values: [2, 3, 3]}
    mtype: {type: category, values: [L2_TPC, L3_TPC, L3_TPC]}

Example:
  snapquery import --db circuit.db nodes.yaml edges.yaml --node-sets node_sets.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.NodeSets, "node-sets", "", "node-set file (.json, .yaml, .cue)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(opts *ImportOptions, files []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()

	if len(files) == 0 && opts.NodeSets == "" {
		return f.Fail(ExitCommandError, ErrCodeUsage, "nothing to import: give population files and/or --node-sets", nil)
	}

	// Parse everything before touching the database.
	var populations []*loader.PopulationFile
	for _, path := range files {
		pf, err := loader.LoadPopulation(path)
		if err != nil {
			return f.Fail(ExitCommandError, errorCode(err), "failed to load population", err)
		}
		populations = append(populations, pf)
	}
	var reg *nodeset.Registry
	if opts.NodeSets != "" {
		var err error
		reg, err = loader.LoadNodeSets(opts.NodeSets)
		if err != nil {
			return f.Fail(ExitCommandError, errorCode(err), "failed to load node sets", err)
		}
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
	}
	defer st.Close()

	result := ImportResult{Populations: []store.PopulationInfo{}}
	for _, pf := range populations {
		if err := st.WritePopulation(ctx, pf.Name, pf.Kind, pf.Table); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to store population", err)
		}
		info, err := st.PopulationInfo(ctx, pf.Name)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to read back population", err)
		}
		f.VerboseLog("Stored population %q (%d rows)", info.Name, info.Size)
		result.Populations = append(result.Populations, info)
	}
	if reg != nil {
		if err := st.WriteNodeSets(ctx, reg); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to store node sets", err)
		}
		result.NodeSets = reg.Len()
		f.VerboseLog("Stored %d node set(s)", reg.Len())
	}

	return f.Result(result, func(w io.Writer) {
		for _, info := range result.Populations {
			fmt.Fprintf(w, "imported %s population %q: %d rows, %d properties\n",
				info.Kind, info.Name, info.Size, len(info.Properties))
		}
		if opts.NodeSets != "" {
			fmt.Fprintf(w, "imported %d node set(s)\n", result.NodeSets)
		}
	})
}
