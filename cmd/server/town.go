package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/config"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/logger"
	"github.com/GuyfromMontana/MFC-single-agent/internal/platform/postgres"
	"github.com/GuyfromMontana/MFC-single-agent/internal/territory"
	territorystore "github.com/GuyfromMontana/MFC-single-agent/internal/territory/store"
)

func newTownCmd() *cobra.Command {
	var resolve bool
	cmd := &cobra.Command{
		Use:   "town [place]",
		Short: "Look up a town in the static table, or list every town",
		Long: "With no argument, lists every town in the static table and its county.\n" +
			"With --resolve, runs the full territory lookup against DATABASE_URL.",
		RunE: func(cmd *cobra.Command, args []string) error {
			towns, err := territory.LoadTownTable()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, town := range towns.Towns() {
					county, _ := towns.Lookup(town)
					fmt.Fprintf(w, "%s\t%s\n", town, county)
				}
				return w.Flush()
			}

			place := strings.Join(args, " ")
			if !resolve {
				county, ok := towns.Lookup(place)
				if !ok {
					fmt.Fprintf(out, "%s: not in table, would query %q\n", place, towns.ResolveCounty(place))
					return nil
				}
				fmt.Fprintf(out, "%s: %s\n", place, county)
				return nil
			}

			var dbCfg config.DatabaseConfig
			if err := envconfig.Process("DATABASE", &dbCfg); err != nil {
				return fmt.Errorf("load database config: %w", err)
			}
			db, err := postgres.Open(cmd.Context(), dbCfg)
			if err != nil {
				return err
			}
			defer db.Close()

			r := territory.NewResolver(towns, territorystore.NewPostgres(db), territory.WithLogger(logger.New("warn")))
			res := r.Resolve(cmd.Context(), place)
			fmt.Fprintf(out, "county:     %s\nterritory:  %s\nspecialist: %s %s\nsource:     %s\n%s\n",
				res.County, res.Territory, res.ContactName(), res.ContactEmail(), res.Source, res.Message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&resolve, "resolve", false, "resolve against the database")
	cmd.Args = cobra.MaximumNArgs(8)
	return cmd
}
