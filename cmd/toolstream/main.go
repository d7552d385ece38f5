package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/anthropic/toolstream/internal/config"
	"github.com/anthropic/toolstream/internal/logging"
	"github.com/anthropic/toolstream/internal/monitor"
	"github.com/anthropic/toolstream/internal/pathcodec"
	"github.com/anthropic/toolstream/internal/pipeline"
	"github.com/anthropic/toolstream/internal/sink"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "toolstream",
		Short: "Normalize AI coding agent tool activity from session logs",
		Long:  "toolstream tails append-only session logs, pairs tool calls with their results, and turns them into normalized events.",
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "Config file location")

	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(backfillCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(pathCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func watchCmd() *cobra.Command {
	var logRoot, dbPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch session logs and stream normalized tool events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if logRoot != "" {
				cfg.LogRoot = logRoot
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}

			log, err := logging.New(cfg.LogLevel, "")
			if err != nil {
				return err
			}

			p := pipeline.New(cfg, log)
			return p.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&logRoot, "root", "", "Session log root (overrides config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Analytics database path (overrides config)")

	return cmd
}

func backfillCmd() *cobra.Command {
	var logRoot, dbPath string

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Replay all historical session logs into the analytics database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if logRoot != "" {
				cfg.LogRoot = logRoot
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}

			log, err := logging.New(cfg.LogLevel, "")
			if err != nil {
				return err
			}

			p := pipeline.New(cfg, log)
			stats, err := p.Backfill(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("entries processed: %d\n", stats.Entries)
			fmt.Printf("tool events:       %d\n", stats.Completions)
			fmt.Printf("unmatched:         %d\n", stats.Unmatched)
			return nil
		},
	}

	cmd.Flags().StringVar(&logRoot, "root", "", "Session log root (overrides config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Analytics database path (overrides config)")

	return cmd
}

func sessionsCmd() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List discovered sessions and their activity state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			overrides, err := pathcodec.LoadOverrides(cfg.OverridePath)
			if err != nil {
				return fmt.Errorf("load path overrides: %w", err)
			}

			m := monitor.New(
				cfg.LogRoot,
				time.Duration(cfg.ActivityThresholdMs)*time.Millisecond,
				0, overrides, monitor.Handlers{}, logging.Nop(),
			)
			sessions := m.Scan()

			shown := 0
			for _, s := range sessions {
				if activeOnly && !s.IsActive {
					continue
				}
				state := "inactive"
				if s.IsActive {
					state = "active"
				}
				fmt.Printf("%-36s  %-8s  %s\n", s.SessionID, state, s.ProjectPath)
				shown++
			}
			if shown == 0 {
				fmt.Println("no sessions found")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only show currently active sessions")

	return cmd
}

func pathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Encode, decode, and correct session directory tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "encode <path>",
		Short: "Encode an absolute path into a directory token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(pathcodec.Encode(args[0]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "decode <token>",
		Short: "Decode a directory token back into a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			overrides, err := pathcodec.LoadOverrides(cfg.OverridePath)
			if err != nil {
				return fmt.Errorf("load path overrides: %w", err)
			}
			fmt.Println(pathcodec.DecodeWith(args[0], overrides))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "fix <token> <path>",
		Short: "Record a manual correction for a token the codec decodes wrong",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			overrides, err := pathcodec.LoadOverrides(cfg.OverridePath)
			if err != nil {
				return fmt.Errorf("load path overrides: %w", err)
			}
			if err := overrides.Set(args[0], args[1]); err != nil {
				return fmt.Errorf("save override: %w", err)
			}
			fmt.Printf("%s -> %s\n", args[0], args[1])
			return nil
		},
	})

	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded tool activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("no db_path configured, nothing to report")
			}

			db, err := sink.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			events, err := db.ToolEventsCount()
			if err != nil {
				return err
			}
			timeouts, err := db.TimeoutsCount()
			if err != nil {
				return err
			}
			sessions, err := db.SessionsCount()
			if err != nil {
				return err
			}
			size, err := db.DBSizeBytes()
			if err != nil {
				return err
			}

			fmt.Printf("tool events: %d\n", events)
			fmt.Printf("timeouts:    %d\n", timeouts)
			fmt.Printf("sessions:    %d\n", sessions)
			fmt.Printf("db size:     %.1f KiB\n", float64(size)/1024)

			usage, err := db.ToolUsageByName()
			if err != nil {
				return err
			}
			if len(usage) > 0 {
				fmt.Println("\nby tool:")
				for _, u := range usage {
					fmt.Printf("  %-12s %6d calls  %4d failed  avg %.0fms\n",
						u.ToolName, u.Count, u.Failed, u.AvgDurMs)
				}
			}
			return nil
		},
	}
}
