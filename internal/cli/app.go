package cli

import (
	"github.com/agentx-labs/projinit/internal/config"
	"github.com/agentx-labs/projinit/internal/logging"
	"github.com/agentx-labs/projinit/internal/orchestrate"
	"github.com/agentx-labs/projinit/internal/plugin"
	"github.com/agentx-labs/projinit/internal/plugin/alephjs"
	"github.com/agentx-labs/projinit/internal/predicate"
	"github.com/agentx-labs/projinit/internal/schema"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what one command invocation needs.
type app struct {
	log      *zap.Logger
	plugins  *plugin.Registry
	compiler *schema.Compiler
}

// builtinPlugins returns the compiled-in templates. Tests replace it.
var builtinPlugins = func(log *zap.Logger, cmd *cobra.Command) []plugin.Plugin {
	runner := orchestrate.NewRunner(log)
	runner.Driver.Transcript = cmd.OutOrStdout()

	return []plugin.Plugin{
		alephjs.New(
			alephjs.WithLogger(log.Named(alephjs.Name)),
			alephjs.WithOutput(cmd.ErrOrStderr()),
			alephjs.WithRunner(runner),
			alephjs.WithDenoPath(config.Get(config.KeyDenoPath)),
			alephjs.WithCLIConstraint(config.Get(config.KeyAlephjsCLIMin)),
		),
	}
}

func newApp(cmd *cobra.Command) (*app, error) {
	config.Load()

	log, err := logging.New(flagVerbose)
	if err != nil {
		return nil, err
	}

	plugins, err := plugin.NewRegistry(builtinPlugins(log, cmd)...)
	if err != nil {
		return nil, err
	}

	prober := predicate.NewTemplateProber(plugins, predicate.WithTimeout(config.ProbeTimeout()))
	return &app{
		log:      log,
		plugins:  plugins,
		compiler: schema.NewCompiler(predicate.Default(prober)),
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}
