package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Simplici0/edmtrack/internal/app"
	"github.com/Simplici0/edmtrack/internal/config"
	"github.com/Simplici0/edmtrack/internal/db"
	"github.com/Simplici0/edmtrack/internal/migrations"
	"github.com/Simplici0/edmtrack/internal/store"
)

func serveCmd() *cobra.Command {
	var (
		basePath string
		migrate  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a, err := app.Open(ctx, cfg, app.Options{Migrate: migrate, BasePath: basePath})
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Printf("Serving EDM tracker API on :%s%s (OpenAPI at /openapi.json, docs at /docs)\n", cfg.Port, basePath)
			return a.Serve(ctx, ":"+cfg.Port)
		},
	}
	cmd.Flags().String("port", "", "listen port (default $PORT or 8080)")
	cmd.Flags().StringVar(&basePath, "base-path", "/api", "API base path")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run migrations before serving outside development")
	_ = viper.BindPFlag(config.KeyPort, cmd.Flags().Lookup("port"))
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			conn, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrations.Up(cmd.Context(), conn); err != nil {
				return err
			}
			v, err := migrations.Version(cmd.Context(), conn)
			if err != nil {
				return err
			}
			fmt.Printf("%s at schema version %d\n", cfg.DBPath, v)
			return nil
		},
	}
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Estimated cost, logged machine hours and QA counts per setting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st *store.Store) error {
				sum, err := st.Summarize(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(sum)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetStyle(table.StyleLight)
				tw.AppendHeader(table.Row{"Job", "Qty", "Estimate", "Logged h", "Saved", "Ready", "Sent", "Empty"})
				for _, s := range sum.Settings {
					qty := s.Counts.Total()
					tw.AppendRow(table.Row{s.JobName, qty, fmt.Sprintf("%.2f", s.Totals.TotalAmount), fmt.Sprintf("%.3f", s.LoggedHours),
						s.Counts.Saved, s.Counts.Ready, s.Counts.Sent, s.Counts.Empty})
				}
				tw.AppendFooter(table.Row{"Total", sum.Estimate.Pieces, fmt.Sprintf("%.2f", sum.Estimate.TotalAmount), fmt.Sprintf("%.3f", sum.LoggedHours),
					sum.Counts.Saved, sum.Counts.Ready, sum.Counts.Sent, sum.Counts.Empty})
				tw.Render()
				return nil
			})
		},
	}
}
