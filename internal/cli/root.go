// Package cli implements the recallfinder command tree.
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryan-buckman/recallfinder/internal/cache"
	"github.com/bryan-buckman/recallfinder/internal/config"
	"github.com/bryan-buckman/recallfinder/internal/letters"
	"github.com/bryan-buckman/recallfinder/internal/logger"
	"github.com/bryan-buckman/recallfinder/internal/nhtsa"
)

const version = "0.1.0"

// app carries state shared by subcommands once the root has loaded config.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
	out        io.Writer
}

// Run executes the CLI and returns a process exit code.
func Run() int {
	cmd := newRootCmd(os.Stdout)
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "recallfinder",
		Short:         "Browse and download NHTSA recall letters",
		Long:          "recallfinder serves a small web UI over the NHTSA vPIC recall-letter API and offers the same queries on the command line.",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file or directory")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(a),
		newManufacturersCmd(a),
		newVersionsCmd(a),
		newDownloadCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	a.cfg = cfg
	return nil
}

func (a *app) newService() *letters.Service {
	client := nhtsa.NewClient(nhtsa.Config{
		BaseURL:      a.cfg.NHTSA.BaseURL,
		DocumentType: a.cfg.NHTSA.DocumentType,
		Timeout:      a.cfg.NHTSA.Timeout,
		MaxPages:     a.cfg.NHTSA.MaxPages,
		MinPageRows:  a.cfg.NHTSA.MinPageRows,
	})
	return letters.NewService(client, cache.New(a.cfg.Cache.TTL))
}

func parseYear(arg string) (int, error) {
	year, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", arg)
	}
	if year < letters.FirstYear || year > time.Now().Year()+1 {
		return 0, fmt.Errorf("year %d out of range", year)
	}
	return year, nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print recallfinder version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "recallfinder version %s\n", version)
		},
	}
}
