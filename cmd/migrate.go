package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/monetahq/moneta/config"
	"github.com/monetahq/moneta/database"
)

func migrateCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply the ledger schema migrations",
		Run: func(cmd *cobra.Command, args []string) {
			cnf, err := config.Fetch()
			if err != nil {
				log.Fatalf("Error getting config: %v\n", err)
			}

			conn, err := database.ConnectDB(cnf.DataSource.Dns)
			if err != nil {
				log.Fatalf("Error connecting to database: %v\n", err)
			}

			applied, err := database.Datasource{Conn: conn}.Migrate()
			if err != nil {
				log.Fatalf("Error running migrations: %v\n", err)
			}
			log.Printf("%d migrations applied\n", applied)
		},
	}

	return cmd
}
