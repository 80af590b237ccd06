package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "order-service",
	Short: "Print shop orders, payments and invoices",
	Long: `order-service owns the order lifecycle of the print shop: placing orders against
catalog stock, the fulfillment state machine, payments and invoices.

Run "serve" for the HTTP and gRPC health endpoints; "migrate" and "seed" prepare a
database.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
