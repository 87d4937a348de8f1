package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/compiler"
	"github.com/pipewright/pipewright/internal/manifest"
	"github.com/pipewright/pipewright/internal/shape"
	"github.com/pipewright/pipewright/internal/validate"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Schemas    string // CUE schema directory
	Collection string // collection to validate against
}

// ValidationFinding is one finding in the JSON payload.
type ValidationFinding struct {
	Stage   int    `json:"stage"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ValidationReport is the JSON payload for the validate command.
type ValidationReport struct {
	Manifest   string              `json:"manifest"`
	Collection string              `json:"collection,omitempty"`
	Valid      bool                `json:"valid"`
	Findings   []ValidationFinding `json:"findings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <manifest.yaml>",
		Short: "Validate a manifest against its collection schema",
		Long: `Validate a pipeline manifest before it goes anywhere near a database.

Flavor rules are always checked (update pipelines accept only $set,
$unset, $replaceRoot, $replaceWith). With --schemas and --collection,
field references and shape transforms are checked against the CUE
schema of the target collection; without them the document shape is
treated as open and only flavor rules apply.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schemas, "schemas", "", "directory of CUE collection schemas")
	cmd.Flags().StringVar(&opts.Collection, "collection", "", "collection name to validate against")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	m, err := manifest.Load(path)
	if err != nil {
		return commandError(formatter, ErrCodeManifest, err.Error(), nil)
	}

	input := shape.Any()
	if opts.Schemas != "" {
		if opts.Collection == "" {
			return commandError(formatter, ErrCodeNoCollection, "--collection is required with --schemas", nil)
		}
		schemas, err := compiler.LoadSchemas(opts.Schemas)
		if err != nil {
			return commandError(formatter, ErrCodeSchemaLoad, err.Error(), nil)
		}
		s, ok := schemas[opts.Collection]
		if !ok {
			return commandError(formatter, ErrCodeNoCollection,
				fmt.Sprintf("collection %q not declared in %s", opts.Collection, opts.Schemas), nil)
		}
		input = s
		formatter.VerboseLog("Validating against collection %q", opts.Collection)
	} else {
		formatter.VerboseLog("No schema given - checking flavor rules only")
	}

	result := validate.Pipeline(m.Pipeline, input)

	report := ValidationReport{
		Manifest:   m.Name,
		Collection: opts.Collection,
		Valid:      result.Valid,
	}
	for _, e := range result.Errors {
		report.Findings = append(report.Findings, ValidationFinding{
			Stage:   e.Index,
			Name:    e.Stage,
			Message: e.Message,
		})
	}

	if result.Valid {
		if formatter.Format == "json" {
			return formatter.Success(report)
		}
		fmt.Fprintf(formatter.Writer, "✓ %s is valid (%d stage(s))\n", m.Name, m.Pipeline.Len())
		return nil
	}

	if formatter.Format == "json" {
		_ = formatter.Error(ErrCodeInvalidPipeline,
			fmt.Sprintf("%d validation finding(s)", len(report.Findings)), report.Findings)
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s failed validation\n\n", m.Name)
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  %s\n", e.Error())
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d finding(s)", len(report.Findings)))
}
