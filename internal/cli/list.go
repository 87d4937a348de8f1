package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	DB      string // registry database path
	History string // show all revisions of one pipeline
}

// ListEntry is one pipeline in the JSON payload.
type ListEntry struct {
	Name      string `json:"name"`
	ID        string `json:"id"`
	Hash      string `json:"hash"`
	Flavor    string `json:"flavor"`
	CreatedAt string `json:"created_at"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pipelines in the registry",
		Long: `List the latest revision of every pipeline in the registry.

With --history NAME, list every stored revision of one pipeline
instead, newest first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "pipewright.db", "registry database path")
	cmd.Flags().StringVar(&opts.History, "history", "", "show all revisions of the named pipeline")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Opening would create the file; listing must not.
	if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
		return commandError(formatter, ErrCodeDatabase,
			fmt.Sprintf("registry database not found: %s", opts.DB), nil)
	}

	s, err := store.Open(opts.DB)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, err.Error(), nil)
	}
	defer s.Close()

	var records []store.Record
	if opts.History != "" {
		records, err = s.History(cmd.Context(), opts.History)
	} else {
		records, err = s.List(cmd.Context())
	}
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, err.Error(), nil)
	}

	entries := make([]ListEntry, len(records))
	for i, rec := range records {
		entries[i] = ListEntry{
			Name:      rec.Name,
			ID:        rec.ID,
			Hash:      rec.Hash,
			Flavor:    rec.Flavor.String(),
			CreatedAt: rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No pipelines in registry")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(formatter.Writer, "%-24s %-12s %s  %s\n", e.Name, e.Flavor, e.Hash[:12], e.CreatedAt)
	}
	return nil
}
