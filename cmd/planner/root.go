package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nhle/planner/internal/auth"
	"github.com/nhle/planner/internal/credential"
	"github.com/nhle/planner/internal/logger"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/planner"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/internal/sync"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	user       string
	collection string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "planner",
		Short:         "Recurring schedule and task-master planner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", model.DefaultConfigPath(), "Path to the config file")
	root.PersistentFlags().StringVarP(&opts.user, "user", "u", "", "User id (overrides user_id from config)")
	root.PersistentFlags().StringVarP(&opts.collection, "collection", "c", string(model.CollectionSchedule), "Collection: schedule or taskmaster")

	root.AddCommand(
		newServeCmd(opts),
		newTUICmd(opts),
		newListCmd(opts),
		newAddCmd(opts),
		newCompleteCmd(opts),
		newUndoCmd(opts),
		newReorderCmd(opts),
		newArchiveCmd(opts),
		newVoidCmd(opts),
		newRestoreCmd(opts),
		newDeleteCmd(opts),
		newCalendarCmd(opts),
		newTemplateCmd(opts),
		newRenormalizeCmd(opts),
	)
	return root
}

// env is everything a command needs once config is loaded.
type env struct {
	ctx        context.Context
	cfg        *model.AppConfig
	log        zerolog.Logger
	coll       model.Collection
	store      *store.SQLStore
	dispatcher *sync.Dispatcher
	svc        *planner.Service
	logCloser  io.Closer
}

// open loads config and wires the store, dispatcher and service. With
// quiet set and no log file configured, logging is discarded so it does
// not draw over a full-screen UI.
func (o *rootOptions) open(cmd *cobra.Command, quiet bool) (*env, error) {
	cfg, err := model.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	coll := model.Collection(o.collection)
	if !coll.Valid() {
		return nil, fmt.Errorf("unknown collection %q", o.collection)
	}

	log, logCloser, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	if quiet && cfg.Log.File == "" {
		log = zerolog.Nop()
	}

	dbCfg, err := resolveDatabase(cfg.Database)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	st, err := store.Open(dbCfg)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	d := sync.New(log, cfg.Sync.QueueSize)
	svc, err := planner.New(st, d, cfg, log)
	if err != nil {
		_ = st.Close()
		_ = logCloser.Close()
		return nil, err
	}
	d.Start()

	user := o.user
	if user == "" {
		user = cfg.UserID
	}

	return &env{
		ctx:        auth.WithUser(cmd.Context(), user),
		cfg:        cfg,
		log:        log,
		coll:       coll,
		store:      st,
		dispatcher: d,
		svc:        svc,
		logCloser:  logCloser,
	}, nil
}

// Close drains pending link sync jobs and releases resources.
func (e *env) Close() {
	e.dispatcher.Stop()
	if err := e.store.Close(); err != nil {
		e.log.Warn().Err(err).Msg("closing database")
	}
	_ = e.logCloser.Close()
}

// resolveDatabase reads the postgres DSN from the keyring when the config
// does not carry one.
func resolveDatabase(cfg model.DatabaseConfig) (model.DatabaseConfig, error) {
	if cfg.Driver != "postgres" || cfg.DSN != "" {
		return cfg, nil
	}
	vault, err := credential.Open()
	if err != nil {
		return cfg, err
	}
	return credential.ResolveDSN(cfg, vault)
}

// userError turns a planner error into the message shown to the user.
func userError(err error) error {
	if err == nil {
		return nil
	}
	r := planner.ResultOf(err)
	if r.Kind == planner.KindPersistence {
		return fmt.Errorf("%s: %w", r.Message, err)
	}
	return errors.New(r.Message)
}
