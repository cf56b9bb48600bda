package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Simplici0/edmtrack/internal/machinehours"
	"github.com/Simplici0/edmtrack/internal/pricing"
	"github.com/Simplici0/edmtrack/internal/timecalc"
)

// costFlags maps command-line flags to document keys.
var costFlags = map[string]string{
	"cut-length":    pricing.KeyCutLength,
	"thickness":     pricing.KeyThickness,
	"pass":          pricing.KeyPass,
	"setting-level": pricing.KeySettingLevel,
	"quantity":      pricing.KeyQuantity,
	"rate":          pricing.KeyRate,
	"critical":      pricing.KeyCritical,
	"pip":           pricing.KeyPipFinish,
}

func costCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Estimate hours and amount for a setting",
		Example: `  edmctl cost --cut-length 10 --thickness 5 --pass 1 --setting-level 1 --quantity 2 --rate 100
  edmctl cost --file setting.yaml --quantity 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := pricing.Document{}
			if file != "" {
				var err error
				if doc, err = readDocument(file); err != nil {
					return err
				}
			}
			for flag, key := range costFlags {
				if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
					doc[key] = f.Value.String()
				}
			}
			setting, coerced := pricing.FromDocument(doc)
			for _, c := range coerced {
				fmt.Fprintf(os.Stderr, "warning: non-numeric %s counted as 0\n", c)
			}
			result := pricing.Calculate(setting)
			if viper.GetBool("json") {
				return printJSON(map[string]any{"setting": setting, "result": result, "coercions": coerced})
			}
			renderCost(os.Stdout, setting, result)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON setting document")
	cmd.Flags().Float64("cut-length", 0, "cut length in mm")
	cmd.Flags().Float64("thickness", 0, "workpiece thickness in mm")
	cmd.Flags().Int("pass", 1, "pass level (1-6)")
	cmd.Flags().Float64("setting-level", 0, "setting level")
	cmd.Flags().Int("quantity", 0, "number of pieces")
	cmd.Flags().Float64("rate", 0, "rate per hour")
	cmd.Flags().Bool("critical", false, "critical job (+1 hour per piece)")
	cmd.Flags().Bool("pip", false, "PIP finish (+1 hour per piece)")
	return cmd
}

// readDocument loads a setting document; .json files are JSON, everything else YAML.
func readDocument(path string) (pricing.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc := pricing.Document{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &doc)
	} else {
		err = yaml.Unmarshal(raw, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func renderCost(w io.Writer, s pricing.Setting, r pricing.Result) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Item", "Value"})
	tw.AppendRows([]table.Row{
		{"Thickness divisor", r.Breakdown.ThicknessDivisor},
		{"Pass multiplier", r.Breakdown.PassMultiplier},
		{"Cut hours / piece", fmt.Sprintf("%.4f", r.Breakdown.CutHoursPerPiece)},
		{"Setting hours", fmt.Sprintf("%.2f", r.Breakdown.SettingHours)},
		{"Extra hours", fmt.Sprintf("%.0f", r.Breakdown.ExtraHours)},
		{"Total hours / piece", fmt.Sprintf("%.4f (%s)", r.Totals.TotalHoursPerPiece, timecalc.FormatDecimalHours(r.Totals.TotalHoursPerPiece))},
	})
	tw.AppendSeparator()
	tw.AppendRow(table.Row{fmt.Sprintf("WEDM amount (x%d)", s.Quantity), fmt.Sprintf("%.2f", r.Totals.WedmAmount)})
	for i, line := range r.Breakdown.SedmLines {
		e := s.Sedm.Entries[i]
		tw.AppendRow(table.Row{fmt.Sprintf("SEDM %.1fmm x%d @ %.0fmm", e.ElectrodeSizeMm, e.HolesPerPiece, e.ThicknessMm), fmt.Sprintf("%.2f", line)})
	}
	tw.AppendFooter(table.Row{"Total", fmt.Sprintf("%.2f", r.Totals.TotalAmount)})
	tw.Render()
}

func hoursCmd() *cobra.Command {
	var (
		start, end, idle, mode string
		paused                 int64
		legacy                 bool
	)
	cmd := &cobra.Command{
		Use:   "hours",
		Short: "Machine hours from start, end and idle time",
		Example: `  edmctl hours --start "01/03/2024 08:00" --end "01/03/2024 10:30" --idle 00:30
  edmctl hours --legacy --start 22:00 --end 01:30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := machinehours.ParseMode(mode)
			if err != nil {
				return err
			}
			var h machinehours.Hours
			if legacy {
				h = machinehours.ComputeLegacy(start, end, idle, m, paused)
			} else {
				h = machinehours.Compute(start, end, idle, m, paused)
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"machine_hours": h.String(), "display": timecalc.FormatDecimalHours(h.Value())})
			}
			fmt.Printf("%s h (%s)\n", h, timecalc.FormatDecimalHours(h.Value()))
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start time (DD/MM/YYYY HH:MM, or HH:MM with --legacy)")
	cmd.Flags().StringVar(&end, "end", "", "end time")
	cmd.Flags().StringVar(&idle, "idle", "", "idle time (HH:MM or \"N min\")")
	cmd.Flags().StringVar(&mode, "mode", "add", "add or subtract_pause")
	cmd.Flags().Int64Var(&paused, "paused", 0, "paused seconds (subtract_pause mode)")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "times are bare HH:MM clocks")
	return cmd
}
