package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Simplici0/edmtrack/internal/config"
	"github.com/Simplici0/edmtrack/internal/db"
	"github.com/Simplici0/edmtrack/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "edmctl",
	Short: "Wire-EDM job tracker CLI",
	Long: `edmctl estimates wire-EDM cost, computes machine hours, derives QA progress
and runs live unit timers against the tracker database.

Offline commands (cost, hours, qa, timer without --setting) need no database.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (default $DB_PATH or ./dev.db)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor", "cli", "actor recorded in the activity log")
	_ = viper.BindPFlag(config.KeyDBPath, rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
}

func registerCommands() {
	rootCmd.AddCommand(costCmd())
	rootCmd.AddCommand(hoursCmd())
	rootCmd.AddCommand(qaCmd())
	rootCmd.AddCommand(timerCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
}

func loadConfig() config.Config {
	return config.FromViper(viper.GetViper(), config.DotEnvFile)
}

func withStore(ctx context.Context, fn func(context.Context, *store.Store) error) error {
	cfg := loadConfig()
	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, store.New(conn))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
