package main

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-library-records/consistency"
	"github.com/goliatone/go-library-records/internal/config"
	"github.com/goliatone/go-library-records/internal/logging"
	"github.com/goliatone/go-library-records/pkg/di"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type app struct {
	configPath string
	envFiles   []string

	logger    *zap.Logger
	container *di.Container
	notifier  *tokenNotifier
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "librarian",
		Short:         "Manage books, students, teachers and loans",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "library.yaml", "path to the YAML configuration file")
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "dotenv files to load")

	root.AddCommand(
		newMigrateCmd(a),
		newTeacherCmd(a),
		newStudentCmd(a),
		newBookCmd(a),
		newBorrowCmd(a),
		newAccountCmd(a),
		newGetCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
	)
	return root
}

// open loads the configuration and builds the container.
func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envFiles...)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Environment, cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger = logger
	a.notifier = &tokenNotifier{next: consistency.LogNotifier{Logger: logger.Named("notify")}}

	container, err := di.NewContainer(cmd.Context(),
		di.Config{Store: cfg.Store(), Cache: cfg.CacheLayer()},
		di.WithLogger(logger),
		di.WithManagerOptions(consistency.WithNotifier(a.notifier)),
	)
	if err != nil {
		return err
	}
	a.container = container
	return nil
}

func (a *app) close() error {
	var err error
	if a.container != nil {
		err = a.container.Close()
	}
	if a.logger != nil {
		// stderr cannot always be synced; ignore that case
		_ = a.logger.Sync()
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func required(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		// only fails for unknown flags
		_ = cmd.MarkFlagRequired(name)
	}
}

var errUnsupported = errors.New("unsupported")

func unsupported(what string) error {
	return fmt.Errorf("%s: %w", what, errUnsupported)
}
