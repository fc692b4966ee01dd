package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/monetahq/moneta"
	"github.com/monetahq/moneta/model"
)

func ledgerCommands(app *monetaInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "inspect and operate the ledger",
	}

	cmd.AddCommand(balanceCommand(app))
	cmd.AddCommand(verifyCommand(app))
	cmd.AddCommand(statementCommand(app))
	cmd.AddCommand(transferCommand(app))

	return cmd
}

func balanceCommand(app *monetaInstance) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [account-id]",
		Short: "print an account's stored balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			balance, err := app.ledger.GetCurrentBalance(context.Background(), args[0])
			if err != nil {
				log.Fatalf("Error getting balance: %v\n", err)
			}
			fmt.Println(model.FormatAmount(balance))
		},
	}
}

func verifyCommand(app *monetaInstance) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [account-id]",
		Short: "replay an account's history against its stored balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			verification, err := app.ledger.VerifyBalanceConsistency(context.Background(), args[0])
			if err != nil {
				log.Fatalf("Error verifying balance: %v\n", err)
			}
			printJSON(verification)
		},
	}
}

func statementCommand(app *monetaInstance) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "statement [account-id]",
		Short: "print a page of an account's statement",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			statement, err := app.ledger.GetStatement(context.Background(), args[0], moneta.StatementRequest{
				Page:  page,
				Limit: limit,
			})
			if err != nil {
				log.Fatalf("Error getting statement: %v\n", err)
			}
			printJSON(statement)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "statement page, 1-indexed")
	cmd.Flags().IntVar(&limit, "limit", 0, "entries per page")
	return cmd
}

func transferCommand(app *monetaInstance) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "transfer [source] [destination] [amount]",
		Short: "move money between two accounts",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			amount, err := model.ParseAmount(args[2])
			if err != nil {
				log.Fatalf("Error parsing amount: %v\n", err)
			}
			txn, err := app.ledger.Transfer(context.Background(), args[0], args[1], amount, description)
			if err != nil {
				log.Fatalf("Error transferring: %v\n", err)
			}
			printJSON(txn)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "transaction description")
	return cmd
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		log.Fatalf("Error printing result: %v\n", err)
	}
	fmt.Println(string(data))
}
