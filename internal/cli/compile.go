package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/manifest"
	"github.com/pipewright/pipewright/internal/wire"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompileResult is the JSON payload for a successful compile.
type CompileResult struct {
	Name   string `json:"name"`
	Flavor string `json:"flavor"`
	ID     string `json:"id"`
	Stages int    `json:"stages"`
	Wire   string `json:"wire"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <manifest.yaml>",
		Short: "Compile a manifest to its wire form",
		Long: `Compile a pipeline manifest to the JSON stage array a document
database accepts, and print its content-addressed pipeline ID.

The wire form is canonical: the same pipeline always produces the same
bytes and therefore the same ID.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write wire JSON to file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	m, err := manifest.Load(path)
	if err != nil {
		return commandError(formatter, ErrCodeManifest, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded manifest %q with %d stage(s)", m.Name, m.Pipeline.Len())

	wireJSON, err := wire.Marshal(m.Pipeline)
	if err != nil {
		return commandError(formatter, ErrCodeCompileFailed, err.Error(), nil)
	}
	id, err := wire.ID(m.Pipeline)
	if err != nil {
		return commandError(formatter, ErrCodeCompileFailed, err.Error(), nil)
	}

	if opts.Output != "" {
		pretty, err := wire.MarshalIndent(m.Pipeline)
		if err != nil {
			return commandError(formatter, ErrCodeCompileFailed, err.Error(), nil)
		}
		if err := os.WriteFile(opts.Output, append(pretty, '\n'), 0644); err != nil {
			return commandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		formatter.VerboseLog("Wrote wire JSON to %s", opts.Output)
	}

	result := CompileResult{
		Name:   m.Name,
		Flavor: m.Pipeline.Flavor().String(),
		ID:     id,
		Stages: m.Pipeline.Len(),
		Wire:   string(wireJSON),
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %s (%s, %d stage(s))\n", result.Name, result.Flavor, result.Stages)
	fmt.Fprintf(formatter.Writer, "ID: %s\n", result.ID)
	fmt.Fprintln(formatter.Writer, result.Wire)
	return nil
}
