package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Simplici0/edmtrack/internal/machinehours"
	"github.com/Simplici0/edmtrack/internal/pause"
	"github.com/Simplici0/edmtrack/internal/store"
	"github.com/Simplici0/edmtrack/internal/timecalc"
	"github.com/Simplici0/edmtrack/internal/tui"
)

// storeDriver applies timer actions through the tracker database.
type storeDriver struct {
	ctx       context.Context
	st        *store.Store
	actor     string
	settingID string
	unit      int
}

func (d storeDriver) Apply(action pause.Action) (pause.State, error) {
	t, err := d.st.ApplyTimer(d.ctx, d.actor, d.settingID, d.unit, action)
	if err != nil {
		return pause.State{}, err
	}
	return t.Timer, nil
}

func timerCmd() *cobra.Command {
	var (
		settingID string
		unit      int
		follow    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run a live unit timer",
		Long: `Runs a live timer with pause reasons. With --setting the timer of that unit is
started (or resumed on screen) in the database; otherwise it lives in this process.
With --follow the stored timer is printed at that interval until it ends, for
terminals where another operator drives it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if settingID == "" {
				return runLocalTimer()
			}
			return withStore(cmd.Context(), func(ctx context.Context, st *store.Store) error {
				if follow > 0 {
					return followTimer(ctx, st, settingID, unit, follow)
				}
				return runStoredTimer(ctx, st, viper.GetString("actor"), settingID, unit)
			})
		},
	}
	cmd.Flags().StringVar(&settingID, "setting", "", "setting id")
	cmd.Flags().IntVar(&unit, "unit", 1, "quantity-unit number")
	cmd.Flags().DurationVar(&follow, "follow", 0, "print the stored timer at this interval instead of opening the screen")
	return cmd
}

func runLocalTimer() error {
	driver := tui.NewMemoryDriver(time.Now)
	final, err := tui.RunTimer("Local timer", driver.State, driver)
	if err != nil {
		return err
	}
	if final.Status() == pause.Ended {
		fmt.Println(endSummary(final))
	}
	return nil
}

func runStoredTimer(ctx context.Context, st *store.Store, actor, settingID string, unit int) error {
	setting, err := st.GetSetting(ctx, settingID)
	if err != nil {
		return err
	}
	t, err := st.GetTimer(ctx, settingID, unit)
	if errors.Is(err, store.ErrNotFound) {
		t, err = st.StartTimer(ctx, actor, settingID, unit)
	}
	if err != nil {
		return err
	}
	if t.Timer.Status() == pause.Ended {
		fmt.Printf("unit %d already ended at %s: %s h\n", unit, t.EndTime, t.MachineHours)
		return nil
	}
	title := fmt.Sprintf("%s / unit %d of %d", setting.JobName, unit, setting.Quantity)
	final, err := tui.RunTimer(title, t.Timer, storeDriver{ctx: ctx, st: st, actor: actor, settingID: settingID, unit: unit})
	if err != nil {
		return err
	}
	if final.Status() == pause.Ended {
		fmt.Println(endSummary(final))
	} else {
		fmt.Printf("detached; unit %d is %s\n", unit, final.Status())
	}
	return nil
}

// followTimer prints the stored timer of a unit until it ends or ctx is done.
// Read errors keep the last known state.
func followTimer(ctx context.Context, st *store.Store, settingID string, unit int, every time.Duration) error {
	t, err := st.GetTimer(ctx, settingID, unit)
	if err != nil {
		return err
	}
	last := t.Timer
	err = pause.Watch(ctx, every, time.Now, func() pause.State {
		if t, err := st.GetTimer(ctx, settingID, unit); err == nil {
			last = t.Timer
		}
		return last
	}, func(snap pause.Snapshot) {
		fmt.Println(snapshotLine(unit, snap))
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println(endSummary(last))
	return nil
}

func snapshotLine(unit int, snap pause.Snapshot) string {
	line := fmt.Sprintf("unit %d %-7s elapsed %s paused %s", unit, snap.Status, snap.Elapsed, snap.PauseTimer)
	if snap.PauseReason != "" {
		line += " (" + snap.PauseReason + ")"
	}
	return line
}

// endSummary describes an ended timer with its machine hours net of pauses.
func endSummary(s pause.State) string {
	if s.EndedAt == nil {
		return ""
	}
	start := timecalc.FormatTimestamp(s.StartedAt)
	end := timecalc.FormatTimestamp(*s.EndedAt)
	paused := s.TotalPausedSeconds(*s.EndedAt)
	h := machinehours.Compute(start, end, "", machinehours.SubtractPause, paused)
	return fmt.Sprintf("%s -> %s, paused %s, machine hours %s", start, end, timecalc.FormatHHMMSS(paused), h)
}
