package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/editsync/editsync/internal/api"
	"github.com/editsync/editsync/internal/auth"
	"github.com/editsync/editsync/internal/config"
	"github.com/editsync/editsync/internal/document"
	"github.com/editsync/editsync/internal/session"
	"github.com/editsync/editsync/internal/share"
	"github.com/editsync/editsync/pkg/logger"
)

// app wires the SDK for the commands. Built once in the root PersistentPreRunE
// so every subcommand sees a loaded session and a configured client.
type appContext struct {
	cfg    *config.Config
	sess   *session.Store
	client *api.Client
	auth   *auth.Manager
	docs   *document.Service
	share  *share.Orchestrator
}

var (
	app      appContext
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "editsync",
	Short:         "EditSync command line client",
	Long:          "Manage EditSync documents, sharing, and your account from the terminal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(logLevel)

		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		sess := session.NewStore(cfg.Session.CredentialsPath)
		if err := sess.Load(); err != nil {
			return err
		}
		client := api.NewClient(cfg.API.BaseURL, sess, api.Options{
			Timeout:        cfg.API.Timeout,
			RateLimitRPS:   cfg.API.RateLimitRPS,
			RateLimitBurst: cfg.API.RateLimitBurst,
		})

		app = appContext{
			cfg:    cfg,
			sess:   sess,
			client: client,
			auth:   auth.NewManager(client, sess),
			docs:   document.NewService(client),
			share:  share.NewOrchestrator(client, sess, cfg.Share.LinkBase),
		}
		app.auth.OnInvalidation(func(ev session.Invalidation) {
			fmt.Fprintf(os.Stderr, "session invalidated (%s): %s\n", ev.Code, ev.Message)
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd, accountCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(shareCmd)
}

// renderErr turns the typed error taxonomy into a user-facing message.
func renderErr(err error) error {
	var ve *api.ValidationError
	if errors.As(err, &ve) {
		if ve.Field != "" {
			return fmt.Errorf("invalid %s: %s", ve.Field, ve.Message)
		}
		return errors.New(ve.Message)
	}
	var pe *api.PermissionError
	if errors.As(err, &pe) {
		return errors.New(pe.Message)
	}
	var si *api.SessionInvalidError
	if errors.As(err, &si) {
		return fmt.Errorf("signed out: %s (run `editsync login`)", si.Message)
	}
	var re *api.RemoteError
	if errors.As(err, &re) {
		if re.Status == 0 {
			return fmt.Errorf("cannot reach the server: %s", re.Message)
		}
		return fmt.Errorf("server error (%d): %s", re.Status, re.Message)
	}
	return err
}

// runE adapts a command body so every error goes through renderErr and is
// printed once, on stderr.
func runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			err = renderErr(err)
			fmt.Fprintln(os.Stderr, "error:", err)
			return err
		}
		return nil
	}
}
