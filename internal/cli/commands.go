package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"jamwathq/internal/audit"
	"jamwathq/internal/auth"
	"jamwathq/internal/models"

	"github.com/spf13/cobra"
)

func (a *app) createCmd() *cobra.Command {
	var (
		in            auth.CreateAdminInput
		role          string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Long: `Create an admin account. The password is prompted with hidden input,
or read from the first line of stdin with --password-stdin.

Examples:
  jamwathq-admin create --email mod@jamwathq.com --first Kerry --last Brown --role moderator
  echo "$PW" | jamwathq-admin create --email ops@jamwathq.com --first Ops --last Team --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}
			in.Password = password
			in.Role = models.Role(role)

			admin, err := a.admins.Create(ctxOf(cmd), in)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s) id=%s\n", admin.Role, admin.Email, admin.FullName(), admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "Admin email address")
	cmd.Flags().StringVar(&in.FirstName, "first", "", "First name")
	cmd.Flags().StringVar(&in.LastName, "last", "", "Last name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleViewer), "Role: super_admin, moderator or viewer")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List admin accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			admins, err := a.admins.List(ctxOf(cmd))
			if err != nil {
				return describe(err)
			}

			now := time.Now()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EMAIL\tNAME\tROLE\tACTIVE\tATTEMPTS\tLOCKED\tLAST LOGIN")
			for _, admin := range admins {
				lastLogin := "never"
				if admin.LastLogin != nil {
					lastLogin = admin.LastLogin.Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%t\t%s\n", admin.Email, admin.FullName(), admin.Role,
					admin.IsActive, admin.LoginAttempts, admin.IsLocked(now), lastLogin)
			}
			return tw.Flush()
		},
	}
}

func (a *app) unlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <email>",
		Short: "Clear failed login attempts and any lockout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := a.admins.GetByEmail(ctxOf(cmd), args[0])
			if err != nil {
				return describe(err)
			}
			if err := a.admins.Unlock(ctxOf(cmd), admin.ID); err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unlocked %s\n", admin.Email)
			return nil
		},
	}
}

func (a *app) setActiveCmd(active bool) *cobra.Command {
	use, short, verb := "deactivate <email>", "Deactivate an admin account", "Deactivated"
	if active {
		use, short, verb = "activate <email>", "Reactivate an admin account", "Activated"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := a.admins.GetByEmail(ctxOf(cmd), args[0])
			if err != nil {
				return describe(err)
			}
			if _, err := a.admins.Update(ctxOf(cmd), admin.ID, auth.UpdateAdminInput{IsActive: &active}); err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, admin.Email)
			return nil
		},
	}
}

func (a *app) tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <email>",
		Short: "Issue a bearer token for an active admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.TokenSecret == "" {
				return fmt.Errorf("JAMWATHQ_TOKEN_SECRET or JAMWATHQ_SESSION_SECRET must be set")
			}
			admin, err := a.admins.GetByEmail(ctxOf(cmd), args[0])
			if err != nil {
				return describe(err)
			}
			if !admin.IsActive {
				return fmt.Errorf("%s is inactive", admin.Email)
			}
			token, err := a.tokens.Issue(admin)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func (a *app) securityCmd() *cobra.Command {
	var (
		filter   audit.SecurityFilter
		severity string
		critical bool
	)
	cmd := &cobra.Command{
		Use:   "security",
		Short: "List security events",
		Long: `List security events, newest first.

Examples:
  jamwathq-admin security --unresolved
  jamwathq-admin security --severity high --limit 20
  jamwathq-admin security --ip 203.0.113.7
  jamwathq-admin security --critical`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				logs []models.SecurityLog
				err  error
			)
			if critical {
				logs, err = a.security.Critical(ctxOf(cmd))
			} else {
				filter.Severity = models.Severity(severity)
				logs, err = a.security.List(ctxOf(cmd), filter)
			}
			if err != nil {
				return describe(err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tTYPE\tSEVERITY\tIP\tRESOLVED\tMESSAGE")
			for _, l := range logs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n", l.ID, l.Timestamp.Format(time.RFC3339),
					l.Type, l.Severity, l.IP, l.Resolved, l.Message)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&filter.Unresolved, "unresolved", false, "Only unresolved events")
	cmd.Flags().StringVar(&severity, "severity", "", "Filter by severity")
	cmd.Flags().StringVar(&filter.IP, "ip", "", "Filter by client IP")
	cmd.Flags().IntVar(&filter.Limit, "limit", audit.DefaultLimit, "Maximum events to show")
	cmd.Flags().BoolVar(&critical, "critical", false, "Only unresolved critical events")
	return cmd
}

func (a *app) resolveCmd() *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Mark a security event resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := a.admins.GetByEmail(ctxOf(cmd), by)
			if err != nil {
				return describe(err)
			}
			entry, err := a.security.Resolve(ctxOf(cmd), args[0], admin.ID)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resolved %s (%s) by %s\n", entry.ID, entry.Type, admin.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "", "Email of the resolving admin")
	cmd.MarkFlagRequired("by")
	return cmd
}

func (a *app) activityCmd() *cobra.Command {
	var (
		adminEmail string
		action     string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List admin activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := audit.ActivityFilter{Action: models.Action(action), Limit: limit}
			if adminEmail != "" {
				admin, err := a.admins.GetByEmail(ctxOf(cmd), adminEmail)
				if err != nil {
					return describe(err)
				}
				filter.AdminID = admin.ID
			}

			logs, err := a.activity.List(ctxOf(cmd), filter)
			if err != nil {
				return describe(err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tADMIN\tACTION\tTARGET\tIP")
			for _, l := range logs {
				target := string(l.TargetType)
				if l.TargetID != nil {
					target += ":" + *l.TargetID
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.Timestamp.Format(time.RFC3339), l.AdminID, l.Action, target, l.IP)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&adminEmail, "admin", "", "Only activity by this admin email")
	cmd.Flags().StringVar(&action, "action", "", "Filter by action")
	cmd.Flags().IntVar(&limit, "limit", audit.DefaultLimit, "Maximum entries to show")
	return cmd
}
