package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions 所有子命令共用的参数
type RootOptions struct {
	Config string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "sorm",
		Short:         "schema-driven SQLite persistence",
		Long:          "Create SQLite tables from declarative schemas described in a YAML/TOML/JSON/INI config file.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "sorm.yaml", "config file")

	cmd.AddCommand(NewDDLCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}
