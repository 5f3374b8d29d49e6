package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdbip/agiler-write-model/internal/config"
	"github.com/sdbip/agiler-write-model/internal/store"
)

// session is what every command needs before doing its work.
type session struct {
	cfg config.Config
	log *slog.Logger
	out *OutputFormatter
}

func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	log := newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr())
	slog.SetDefault(log)

	return &session{
		cfg: cfg,
		log: log,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(cfg config.Log, verbose bool, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func (ss *session) openStore() (*store.Store, error) {
	dsn := ss.cfg.Database.DSN
	if ss.cfg.Database.Driver == store.DriverSQLite {
		dsn = store.SQLiteDSN(dsn)
	}
	ss.log.Info("opening database", "driver", ss.cfg.Database.Driver)
	st, err := store.Open(ss.cfg.Database.Driver, dsn, store.WithLogger(ss.log))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func (ss *session) closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		ss.log.Error("error closing database", "error", err)
	}
}

// report returns err with the failure exit code. In JSON mode it also
// writes an error response, since callers parse stdout; the text form is
// printed by main.
func (ss *session) report(message string, err error) error {
	if ss.out.Format == "json" {
		_ = ss.out.Error(errorCode(err), err)
	}
	return WrapExitError(ExitFailure, message, err)
}
