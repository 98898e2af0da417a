package cli

import (
	"fmt"

	"github.com/hatlonely/sorm/rdb"
	"github.com/spf13/cobra"
)

func NewDDLCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ddl",
		Short: "Print CREATE TABLE statements for all configured schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := LoadApp(rootOpts.Config)
			if err != nil {
				return err
			}
			for _, s := range app.Registry.Schemas() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s;\n\n", rdb.CreateTableSQL(s)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Open the configured database and create all tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := LoadApp(rootOpts.Config)
			if err != nil {
				return err
			}

			db, err := rdb.NewDBWithOptions(&app.Options.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.CreateTables(cmd.Context(), app.Registry); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %d tables in %s\n",
				len(app.Registry.Schemas()), app.Options.Database.Database)
			return err
		},
	}
}
