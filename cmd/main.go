package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/monetahq/moneta"
	"github.com/monetahq/moneta/config"
	"github.com/monetahq/moneta/database"
)

// CLI wraps the root cobra command for the moneta binary.
type CLI struct {
	cmd *cobra.Command
}

// monetaInstance holds the ledger instance and its configuration for use by
// the subcommands.
type monetaInstance struct {
	ledger *moneta.Moneta
	cnf    *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

func preRun(app *monetaInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("moneta.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newLedger, err := setupLedger(cnf)
		if err != nil {
			log.Fatal(err)
		}

		app.ledger = newLedger
		app.cnf = cnf

		return nil
	}
}

func setupLedger(cfg *config.Configuration) (*moneta.Moneta, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newLedger, err := moneta.NewMoneta(db)
	if err != nil {
		return nil, fmt.Errorf("error creating ledger: %v", err)
	}
	return newLedger, nil
}

func NewCLI() *CLI {
	var app monetaInstance

	rootCmd := &cobra.Command{
		Use:               "moneta",
		Short:             "moneta ledger core",
		PersistentPreRunE: preRun(&app),
	}

	rootCmd.AddCommand(migrateCommands())
	rootCmd.AddCommand(ledgerCommands(&app))

	return &CLI{cmd: rootCmd}
}

func (c *CLI) executeCLI() {
	if err := c.cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()
	cli := NewCLI()
	cli.executeCLI()
}
