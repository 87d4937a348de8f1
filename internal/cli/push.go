package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/manifest"
	"github.com/pipewright/pipewright/internal/shape"
	"github.com/pipewright/pipewright/internal/store"
	"github.com/pipewright/pipewright/internal/validate"
)

// PushOptions holds flags for the push command.
type PushOptions struct {
	*RootOptions
	DB    string // registry database path
	Force bool   // skip validation
}

// PushResult is the JSON payload for the push command.
type PushResult struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	Hash     string `json:"hash"`
	Flavor   string `json:"flavor"`
	Inserted bool   `json:"inserted"`
}

// NewPushCommand creates the push command.
func NewPushCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PushOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "push <manifest.yaml>",
		Short: "Publish a manifest to the pipeline registry",
		Long: `Compile a manifest and store its wire form in the registry database.

Pushes are idempotent: re-pushing an unchanged pipeline under the same
name reports the existing revision instead of creating a new one.
Flavor rules are checked before the push unless --force is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "pipewright.db", "registry database path")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "push even if validation fails")

	return cmd
}

func runPush(opts *PushOptions, path string, cmd *cobra.Command) error {
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

	if !opts.Force {
		result := validate.Pipeline(m.Pipeline, shape.Any())
		if !result.Valid {
			findings := make([]string, len(result.Errors))
			for i, e := range result.Errors {
				findings[i] = e.Error()
			}
			_ = formatter.Error(ErrCodeInvalidPipeline,
				fmt.Sprintf("refusing to push invalid pipeline %q", m.Name), findings)
			return NewExitError(ExitFailure,
				fmt.Sprintf("validation failed with %d finding(s)", len(findings)))
		}
	}

	s, err := store.Open(opts.DB)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, err.Error(), nil)
	}
	defer s.Close()

	rec, inserted, err := s.Save(cmd.Context(), m.Name, m.Pipeline)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, err.Error(), nil)
	}

	result := PushResult{
		Name:     rec.Name,
		ID:       rec.ID,
		Hash:     rec.Hash,
		Flavor:   rec.Flavor.String(),
		Inserted: inserted,
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if inserted {
		fmt.Fprintf(formatter.Writer, "✓ Pushed %s (%s)\n", rec.Name, rec.Flavor)
	} else {
		fmt.Fprintf(formatter.Writer, "= %s unchanged, existing revision kept\n", rec.Name)
	}
	fmt.Fprintf(formatter.Writer, "ID:   %s\n", rec.ID)
	fmt.Fprintf(formatter.Writer, "Hash: %s\n", rec.Hash)
	return nil
}
