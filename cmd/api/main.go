package main

import (
	"log"
	"os"
	_ "time/tzdata" // calendar.location must resolve on images without zoneinfo

	"github.com/spf13/cobra"

	"github.com/taskmaster/crm/cmd/api/commands"
)

// @title Daftar CRM API
// @version 1.0
// @description Customers, contacts and sales opportunities with Jalali calendar support

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "crm",
		Short: "Daftar CRM API Server",
		Long:  `Daftar is a small CRM that keeps customers, contact logs and sales opportunities, showing every date in the Jalali calendar.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewTokenCommand())
	rootCmd.AddCommand(commands.NewCalendarCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
