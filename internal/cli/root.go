// Package cli implements the listquery command line: an HTTP server and a
// one-shot query runner over a SQLite database described by a resource
// catalog.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCmd returns the listquery command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "listquery",
		Short:         "Serve and run list queries over declared resources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addConfigFlags(root)

	root.AddCommand(newServeCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newCatalogCmd())
	return root
}

// setup resolves configuration and builds the logger for cmd.
func setup(cmd *cobra.Command) (*Config, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
