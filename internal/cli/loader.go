package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/snapquery/internal/circuit"
	"github.com/roach88/snapquery/internal/loader"
	"github.com/roach88/snapquery/internal/nodeset"
	"github.com/roach88/snapquery/internal/queryir"
	"github.com/roach88/snapquery/internal/store"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeUsage        = "E002" // Missing or conflicting flags
	ErrCodeLoadFailed   = "E003" // File could not be read or decoded
	ErrCodeNotFound     = "E005" // Population or path not found
	ErrCodeStoreFailed  = "E006" // Database error
	ErrCodeWriteFailed  = "E007" // Store write error
	ErrCodeInvalidQuery = "E101" // Query failed to parse or resolve
	ErrCodeNodeSet      = "E102" // Node-set file or expansion error
	ErrCodeWarnings     = "E103" // Validation produced warnings
)

// errorCode classifies err into a CLI error code.
func errorCode(err error) string {
	var nsErr *nodeset.Error
	switch {
	case errors.As(err, &nsErr):
		return ErrCodeNodeSet
	case queryir.IsQueryError(err):
		return ErrCodeInvalidQuery
	case loader.IsLoadError(err):
		return ErrCodeLoadFailed
	case errors.Is(err, store.ErrPopulationNotFound):
		return ErrCodeNotFound
	default:
		return ErrCodeGeneric
	}
}

// SourceOptions selects the population a command queries.
type SourceOptions struct {
	Database     string // SQLite store written by "import"
	Population   string // population name within the store
	Table        string // population description file, instead of a store
	NodeSets     string // node-set file; overrides node sets in the store
	RaiseMissing bool
}

func (o *SourceOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVarP(&o.Population, "population", "p", "", "population name (default: the only stored population)")
	cmd.Flags().StringVar(&o.Table, "table", "", "population description file (.json, .yaml, .cue) instead of --db")
	cmd.Flags().StringVar(&o.NodeSets, "node-sets", "", "node-set file (.json, .yaml, .cue)")
	cmd.Flags().BoolVar(&o.RaiseMissing, "raise-missing", true, "fail when a node set references a property the population lacks")
}

// open loads the selected population. Failures are returned as ExitErrors
// after being reported through f.
func (o *SourceOptions) open(ctx context.Context, f *OutputFormatter) (*circuit.Population, error) {
	switch {
	case o.Database == "" && o.Table == "":
		return nil, f.Fail(ExitCommandError, ErrCodeUsage, "one of --db or --table is required", nil)
	case o.Database != "" && o.Table != "":
		return nil, f.Fail(ExitCommandError, ErrCodeUsage, "--db and --table are mutually exclusive", nil)
	}

	opts := []circuit.Option{circuit.WithRaiseMissing(o.RaiseMissing)}
	if o.NodeSets != "" {
		reg, err := loader.LoadNodeSets(o.NodeSets)
		if err != nil {
			return nil, f.Fail(ExitCommandError, errorCode(err), "failed to load node sets", err)
		}
		f.VerboseLog("Loaded %d node set(s) from %s", reg.Len(), o.NodeSets)
		opts = append(opts, circuit.WithNodeSets(reg))
	}

	if o.Table != "" {
		pf, err := loader.LoadPopulation(o.Table)
		if err != nil {
			return nil, f.Fail(ExitCommandError, errorCode(err), "failed to load population", err)
		}
		f.VerboseLog("Loaded population %q (%d rows) from %s", pf.Name, pf.Table.Len(), o.Table)
		return circuit.NewPopulation(pf.Name, pf.Kind, pf.Table, opts...), nil
	}

	if _, err := os.Stat(o.Database); err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, "database not found", err)
	}
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
	}
	defer st.Close()

	name := o.Population
	if name == "" {
		name, err = onlyPopulation(ctx, st)
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeUsage, err.Error(), nil)
		}
	}

	// Node sets from --node-sets come after the stored ones and win.
	p, err := st.LoadPopulation(ctx, name, opts...)
	if err != nil {
		return nil, f.Fail(ExitCommandError, storeErrorCode(err), "failed to load population", err)
	}
	f.VerboseLog("Loaded population %q (%d rows) from %s", p.Name(), p.Size(), o.Database)
	return p, nil
}

func storeErrorCode(err error) string {
	if code := errorCode(err); code != ErrCodeGeneric {
		return code
	}
	return ErrCodeStoreFailed
}

// onlyPopulation returns the name of the single stored population.
func onlyPopulation(ctx context.Context, st *store.Store) (string, error) {
	infos, err := st.ListPopulations(ctx)
	if err != nil {
		return "", err
	}
	switch len(infos) {
	case 0:
		return "", fmt.Errorf("database holds no populations")
	case 1:
		return infos[0].Name, nil
	default:
		names := make([]string, len(infos))
		for i, info := range infos {
			names[i] = info.Name
		}
		return "", fmt.Errorf("--population is required: database holds %v", names)
	}
}

// loadQuery parses the --query argument (inline JSON or a file path).
func loadQuery(arg string, f *OutputFormatter) (queryir.Query, error) {
	if arg == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeUsage, "--query is required", nil)
	}
	q, err := loader.ParseQuery(arg)
	if err != nil {
		if queryir.IsQueryError(err) {
			return nil, f.Fail(ExitFailure, ErrCodeInvalidQuery, "invalid query", err)
		}
		return nil, f.Fail(ExitCommandError, errorCode(err), "failed to load query", err)
	}
	return q, nil
}
