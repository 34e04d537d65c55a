package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"jamwathq/internal/apperr"
	"jamwathq/internal/audit"
	"jamwathq/internal/auth"
	"jamwathq/internal/config"
	"jamwathq/internal/database"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app holds what every command needs once the database is open.
type app struct {
	cfg      *config.Config
	dataDir  string
	db       *database.DB
	admins   *auth.AdminService
	tokens   *auth.TokenIssuer
	activity *audit.ActivityStore
	security *audit.SecurityStore
}

// NewRootCommand builds the jamwathq-admin command tree over cfg.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	a := &app{cfg: cfg}

	rootCmd := &cobra.Command{
		Use:   "jamwathq-admin",
		Short: "Operator tool for JamWatHQ admin accounts and audit logs",
		Long: `jamwathq-admin manages admin accounts and inspects the audit trail
directly in the JamWatHQ database, without going through the HTTP API.

Examples:
  jamwathq-admin create --email ops@jamwathq.com --first Ops --last Team --role moderator
  jamwathq-admin list                          # List all admins
  jamwathq-admin unlock ops@jamwathq.com       # Clear a lockout
  jamwathq-admin token ops@jamwathq.com        # Issue a bearer token
  jamwathq-admin security --unresolved         # Open security events
  jamwathq-admin resolve <id> --by root@jamwathq.com`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.db != nil {
				a.db.Close()
			}
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.dataDir, "data-dir", "d", cfg.DataDir, "Directory holding jamwathq.db")

	rootCmd.AddGroup(&cobra.Group{ID: "admins", Title: "Admin Accounts:"})
	rootCmd.AddGroup(&cobra.Group{ID: "audit", Title: "Audit Logs:"})

	for _, cmd := range []*cobra.Command{
		a.createCmd(), a.listCmd(), a.unlockCmd(), a.setActiveCmd(true), a.setActiveCmd(false), a.tokenCmd(),
	} {
		cmd.GroupID = "admins"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{a.securityCmd(), a.resolveCmd(), a.activityCmd()} {
		cmd.GroupID = "audit"
		rootCmd.AddCommand(cmd)
	}

	return rootCmd
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(cfg *config.Config) {
	if err := NewRootCommand(cfg).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) open() error {
	if err := os.MkdirAll(a.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := database.New(a.dataDir)
	if err != nil {
		return err
	}
	a.db = db
	a.admins = auth.NewAdminService(db, auth.AdminServiceOptions{
		LockoutThreshold: a.cfg.LockoutThreshold,
		LockoutDuration:  a.cfg.LockoutDuration,
	})
	a.tokens = auth.NewTokenIssuer(a.cfg.TokenSecret, a.cfg.TokenTTL, nil)
	a.activity = audit.NewActivityStore(db, nil)
	a.security = audit.NewSecurityStore(db, nil)
	return nil
}

// readPassword takes the first line of stdin when fromStdin is set, and
// otherwise prompts on the terminal with echo disabled.
func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; use --password-stdin")
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// describe turns a service error into operator output. Unlike the HTTP
// layer, the underlying driver error is shown for store failures.
func describe(err error) error {
	e := apperr.As(err)
	switch e.Kind {
	case apperr.StoreUnavailable, apperr.Internal:
		return err
	case apperr.InvalidInput:
		if problems, ok := e.Fields["errors"].([]string); ok && len(problems) > 0 {
			return fmt.Errorf("%s: %s", e.Message, strings.Join(problems, "; "))
		}
	}
	return errors.New(e.Message)
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
