package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Simplici0/edmtrack/internal/qa"
)

func qaCmd() *cobra.Command {
	var (
		quantity  int
		ranges    []string
		overrides []string
	)
	cmd := &cobra.Command{
		Use:     "qa",
		Short:   "Derive per-unit QA progress from capture ranges and overrides",
		Example: `  edmctl qa --quantity 6 --range 1-3 --range 5 --set 1-2=SENT_TO_QA`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if quantity < 1 || quantity > qa.MaxQuantity {
				return fmt.Errorf("quantity must be in 1..%d", qa.MaxQuantity)
			}
			rs, err := parseRanges(ranges, quantity)
			if err != nil {
				return err
			}
			ov, err := parseOverrides(overrides, quantity)
			if err != nil {
				return err
			}
			p := qa.Derive(quantity, rs, ov)
			if viper.GetBool("json") {
				return printJSON(p)
			}
			renderProgress(os.Stdout, p)
			return nil
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "n", 0, "setting quantity")
	cmd.Flags().StringArrayVar(&ranges, "range", nil, "captured range, e.g. 1-3 (repeatable)")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "override UNITS=STATE, e.g. 1-2,5=SENT_TO_QA (repeatable, applied in order)")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

func parseRanges(items []string, quantity int) ([]qa.Range, error) {
	out := make([]qa.Range, 0, len(items))
	for _, item := range items {
		units, err := qa.ParseUnits(item, quantity)
		if err != nil {
			return nil, err
		}
		if len(units) == 0 {
			continue
		}
		r := qa.Range{From: units[0], To: units[len(units)-1]}
		if len(units) != r.To-r.From+1 {
			return nil, fmt.Errorf("range %q is not contiguous", item)
		}
		out = append(out, r)
	}
	return out, nil
}

func parseOverrides(items []string, quantity int) (qa.Overrides, error) {
	ov := qa.Overrides{}
	for _, item := range items {
		sel, name, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("override %q: want UNITS=STATE", item)
		}
		st, ok := qa.ParseState(name)
		if !ok {
			return nil, fmt.Errorf("override %q: unknown state %q", item, name)
		}
		units, err := qa.ParseUnits(sel, quantity)
		if err != nil {
			return nil, err
		}
		if ov, err = qa.ApplyOverride(ov, quantity, units, st); err != nil {
			return nil, fmt.Errorf("override %q: %w", item, err)
		}
	}
	return ov, nil
}

func renderProgress(w io.Writer, p qa.Progress) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Unit", "State", "Label"})
	for _, u := range p.Units {
		tw.AppendRow(table.Row{u.Number, u.State, u.Label})
	}
	c := p.Counts
	tw.AppendFooter(table.Row{"", "", fmt.Sprintf("saved %d  ready %d  sent %d  empty %d", c.Saved, c.Ready, c.Sent, c.Empty)})
	tw.Render()
}
