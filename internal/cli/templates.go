package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/agentx-labs/projinit/internal/config"
	"github.com/agentx-labs/projinit/internal/logging"
	"github.com/agentx-labs/projinit/internal/plugin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var templatesJSON bool

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List available templates",
	Args:  cobra.NoArgs,
	RunE:  runTemplates,
}

func init() {
	templatesCmd.Flags().BoolVar(&templatesJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(templatesCmd)
}

// templateEntry is one row of the templates listing.
type templateEntry struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func runTemplates(cmd *cobra.Command, args []string) error {
	config.Load()
	log, err := logging.New(flagVerbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reg, err := plugin.NewRegistry(builtinPlugins(log, cmd)...)
	if err != nil {
		return err
	}

	var entries []templateEntry
	for _, name := range reg.Names() {
		loc, _ := reg.Locate(name)
		entries = append(entries, templateEntry{Name: name, Location: loc})
	}
	log.Debug("templates listed", zap.Int("count", len(entries)))

	if templatesJSON {
		out, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling templates: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLOCATION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Location)
	}
	return w.Flush()
}
