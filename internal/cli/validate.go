package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/snapquery/internal/circuit"
	"github.com/roach88/snapquery/internal/loader"
	"github.com/roach88/snapquery/internal/nodeset"
	"github.com/roach88/snapquery/internal/queryir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	SourceOptions
	Query string
}

// ValidationIssue is one problem found by validate.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a query and node sets without resolving",
		Long: `Check a query, a node-set file, or both.

The query is parsed. Node sets are checked for cycles and references to
undefined node sets. When a population is given (--db or --table), the
query's node sets are expanded and every property it references is checked
against the population's columns, since an unknown property silently
selects nothing at resolution time.

Example:
  snapquery validate --query query.yaml
  snapquery validate --node-sets node_sets.json
  snapquery validate --table nodes.yaml --node-sets node_sets.json --query query.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	opts.SourceOptions.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "query as inline JSON or a file path")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Query == "" && opts.NodeSets == "" {
		return f.Fail(ExitCommandError, ErrCodeUsage, "nothing to validate: give --query and/or --node-sets", nil)
	}

	var issues []ValidationIssue

	var q queryir.Query
	if opts.Query != "" {
		parsed, err := loader.ParseQuery(opts.Query)
		switch {
		case queryir.IsQueryError(err):
			issues = append(issues, issueOf(err))
		case err != nil:
			return f.Fail(ExitCommandError, errorCode(err), "failed to load query", err)
		default:
			q = parsed
			f.VerboseLog("Query parsed: %d clause(s)", len(q))
		}
	}

	if opts.NodeSets != "" {
		reg, err := loader.LoadNodeSets(opts.NodeSets)
		var nsErr *nodeset.Error
		switch {
		case errors.As(err, &nsErr), queryir.IsQueryError(err):
			issues = append(issues, issueOf(err))
		case err != nil:
			return f.Fail(ExitCommandError, errorCode(err), "failed to load node sets", err)
		default:
			f.VerboseLog("Node sets parsed: %d definition(s)", reg.Len())
			for _, name := range reg.Dangling() {
				issues = append(issues, ValidationIssue{
					Code:    ErrCodeNodeSet,
					Message: fmt.Sprintf("node set %q is referenced but not defined", name),
					Path:    name,
				})
			}
		}
	}

	if q != nil && (opts.Database != "" || opts.Table != "") && len(issues) == 0 {
		p, err := opts.SourceOptions.open(cmd.Context(), f)
		if err != nil {
			return err
		}
		issues = append(issues, schemaIssues(p, q)...)
	}

	if len(issues) > 0 {
		return outputValidationErrors(f, issues)
	}
	return outputValidateSuccess(f)
}

// schemaIssues expands q and checks it against the columns of p.
func schemaIssues(p *circuit.Population, q queryir.Query) []ValidationIssue {
	expanded, err := p.Expand(q)
	if err != nil {
		return []ValidationIssue{issueOf(err)}
	}
	var issues []ValidationIssue
	for _, warning := range p.Validate(expanded).Warnings {
		issues = append(issues, ValidationIssue{Code: ErrCodeWarnings, Message: warning})
	}
	return issues
}

func issueOf(err error) ValidationIssue {
	issue := ValidationIssue{Code: errorCode(err), Message: err.Error()}
	var qe *queryir.QueryError
	if errors.As(err, &qe) {
		issue.Path = qe.Path
	}
	var nsErr *nodeset.Error
	if errors.As(err, &nsErr) {
		issue.Path = nsErr.NodeSet
	}
	return issue
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ Valid")
	return nil
}

// outputValidationErrors outputs validation issues. Validation failures
// exit with ExitFailure.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
			TraceID: formatter.TraceID,
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		if issue.Path != "" {
			fmt.Fprintf(formatter.Writer, "%s\n", issue.Path)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}
	return failure
}
