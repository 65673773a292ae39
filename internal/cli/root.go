package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/agentx-labs/projinit/internal/branding"
	"github.com/agentx-labs/projinit/internal/request"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	flagExport   bool
	flagTemplate string
	flagVerbose  bool
)

// ErrReported is returned when the failure has already been explained to the
// user and only the exit status remains to be set.
var ErrReported = errors.New("failure already reported")

var rootCmd = &cobra.Command{
	Use:   branding.CLIName() + " --template=<name> [--export] <path>",
	Short: branding.Description(),
	Long: branding.DisplayName() + ` runs interactive project initializers without a terminal.

With --export, the template's default profile is written to <path>, which must
not exist yet. Without it, <path> names an existing profile; the initializer is
run with the answers it holds and the generated files are merged into the
profile's projectDir.`,
	Example: `  ` + branding.CLIName() + ` --template=alephjs --export ./alephjsProject/metaway.json
  ` + branding.CLIName() + ` --template=alephjs ./alephjsProject/metaway.json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	RunE:          runRoot,
}

func init() {
	rootCmd.Flags().BoolVar(&flagExport, "export", false, "Write the template's default profile to <path>")
	rootCmd.Flags().StringVar(&flagTemplate, "template", "", "Template name (see '"+branding.CLIName()+" templates')")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command with build info injected via ldflags.
// Interrupts cancel the running initializer.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func runRoot(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	doc := request.Document(flagExport, flagTemplate, cmd.Flags().Changed("template"), args)
	req, err := request.Parse(ctx, a.compiler, doc)
	if err != nil {
		if ve, ok := request.AsValidationError(err); ok {
			request.ReportInvalid(cmd.OutOrStdout(), doc, ve)
			return ErrReported
		}
		return err
	}

	p, ok := a.plugins.Lookup(req.Template)
	if !ok {
		// existsTemplate only passes for registered names.
		return fmt.Errorf("template %q is not registered", req.Template)
	}

	if req.Export {
		done, err := p.ExportDefaultConfig(ctx, a.compiler, req.Path())
		if err != nil {
			return err
		}
		if !done {
			return ErrReported
		}
		fmt.Fprintf(cmd.OutOrStdout(), "export %q template default profiles into %q.\n", req.Template, req.Path())
		return nil
	}

	done, err := p.Initialize(ctx, a.compiler, req.Path())
	if err != nil {
		return err
	}
	if !done {
		return ErrReported
	}
	fmt.Fprintf(cmd.OutOrStdout(), "project initialized with %q template and %q profiles.\n", req.Template, req.Path())
	return nil
}
