package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snapkeep/internal/app"
	"snapkeep/internal/config"
	"snapkeep/internal/daemon"
	"snapkeep/internal/database"
	"snapkeep/internal/snap"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer
// app.Close(). kind identifies the CLI command being run (e.g. "snapshot").
func newApp(kind string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, kind)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "snapkeep",
	Short: "Tiered profile data backup tool",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Println("Set [source] dir and [store] fs_root before the first snapshot.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Host ID:     %s\n", cfg.HostID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Source Dir:  %s\n", cfg.Source.Dir)
		fmt.Printf("Store:       %s\n", describeStore(cfg.Store))
		fmt.Printf("Retention:   %d dailies, %d-week weekly window, monthlies forever\n",
			cfg.Retention.DailyKeep, cfg.Retention.WeeklyWindowWeeks)
		fmt.Printf("Interval:    %dh\n", cfg.Schedule.IntervalHours)
		return nil
	},
}

func describeStore(sc config.StoreConfig) string {
	switch sc.Type {
	case "s3":
		return fmt.Sprintf("s3://%s/%s (%s)", sc.S3Bucket, sc.S3Prefix, sc.S3Region)
	case "filesystem":
		return sc.FSRoot
	default:
		return sc.Type
	}
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Create a daily archive of the source directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceDir, _ := cmd.Flags().GetString("source")

		a, err := newApp(database.RunKindSnapshot)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.Snapshot(sourceDir)
		if err != nil {
			return err
		}
		printSummary(summary)
		if summary.Err != nil && !errors.Is(summary.Err, snap.ErrNoSourceFiles) {
			return fmt.Errorf("snapshot failed: %w", summary.Err)
		}
		return nil
	},
}

// retain command
var retainCmd = &cobra.Command{
	Use:   "retain",
	Short: "Apply the tiered retention policy to the archive store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(database.RunKindRetain)
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.Retain()
		if err != nil {
			return fmt.Errorf("retention failed: %w", err)
		}
		fmt.Printf("Removed %d archive(s)\n", removed)
		return nil
	},
}

// run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Snapshot and retain, if the backup interval has elapsed",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		return gatedRun(force)
	},
}

// gatedRun performs the full sequence: gate check, snapshot, retention.
func gatedRun(force bool) error {
	a, err := newApp(database.RunKindRun)
	if err != nil {
		return err
	}
	defer a.Close()

	if !force {
		due, err := a.ShouldRun()
		if err != nil {
			return err
		}
		if !due {
			fmt.Println("Backup interval has not elapsed; nothing to do.")
			return nil
		}
	}

	summary, err := a.Snapshot("")
	if err != nil {
		return err
	}
	printSummary(summary)
	if summary.Err != nil {
		if errors.Is(summary.Err, snap.ErrNoSourceFiles) {
			return nil
		}
		return fmt.Errorf("snapshot failed: %w", summary.Err)
	}

	removed, err := a.Retain()
	if err != nil {
		return fmt.Errorf("retention failed: %w", err)
	}
	fmt.Printf("Removed %d archive(s)\n", removed)
	return nil
}

func printSummary(s snap.Summary) {
	if s.Err != nil {
		fmt.Printf("Snapshot %s: %v\n", s.ArchiveName, s.Err)
		return
	}
	sizeMB := float64(s.TotalBytes) / (1024 * 1024)
	fmt.Printf("Snapshot %s: %d file(s), %.1f MB\n", s.ArchiveName, s.FileCount, sizeMB)
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run in the foreground, checking the backup interval periodically",
	RunE: func(cmd *cobra.Command, args []string) error {
		every, _ := cmd.Flags().GetDuration("every")

		sched, err := daemon.NewScheduler()
		if err != nil {
			return err
		}

		_, err = sched.SchedulePeriodicRun(every, func() {
			if err := gatedRun(false); err != nil {
				fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
			}
		})
		if err != nil {
			return err
		}

		sched.Start()
		fmt.Printf("Watching; checking every %s. Ctrl-C to stop.\n", every)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		return sched.Stop()
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt.Valid {
				d := r.FinishedAt.Time.Sub(r.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-9s  %s  %-8s  files:%d  removed:%d  %s\n",
				r.ID,
				r.Kind,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				r.FileCount,
				r.Removed,
				duration,
			)
		}
		return nil
	},
}

// store command
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the archive store",
}

var storeValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Verify the archive store is accessible",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("validate")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ValidateStore(); err != nil {
			return fmt.Errorf("store validation failed: %w", err)
		}
		fmt.Println("Store OK")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	snapshotCmd.Flags().StringP("source", "s", "", "Source directory override")
	runCmd.Flags().BoolP("force", "f", false, "Skip the interval gate")
	watchCmd.Flags().Duration("every", time.Hour, "How often to check the backup interval")
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")

	storeCmd.AddCommand(storeValidateCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(retainCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(storeCmd)
}
