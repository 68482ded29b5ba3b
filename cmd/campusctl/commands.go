package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	goCampus "github.com/MrEthical07/goCampus"
	"github.com/MrEthical07/goCampus/api"
	"github.com/MrEthical07/goCampus/jwt"
	"github.com/MrEthical07/goCampus/metrics/export/prometheus"
	"github.com/MrEthical07/goCampus/role"
	"github.com/MrEthical07/goCampus/vault"
)

type runFunc func(ctx context.Context, cmd *cobra.Command, args []string) error

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "campusctl",
		Short:         "Campus session client",
		Long:          "Sign in to the campus backend, inspect the session and call role-specific endpoints",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.load()
		},
	}
	cmd.PersistentFlags().StringVar(&a.opts.ConfigFile, "config", "", "config file (yaml, toml or json)")
	cmd.PersistentFlags().StringVar(&a.opts.EnvFile, "env-file", ".env", "dotenv file")

	cmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRouteCmd(a),
		newScheduleCmd(a),
		newMarksCmd(a),
		newChatCmd(a),
		newMetricsCmd(a),
	)
	return cmd
}

// withEngine opens the engine for the duration of fn.
func (a *app) withEngine(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		defer a.close()
		if err := a.open(ctx); err != nil {
			return err
		}
		return fn(ctx, cmd, args)
	}
}

/* ==== SESSION ==== */

func newLoginCmd(a *app) *cobra.Command {
	var email, password, pushToken string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		Long:  "Sign in with --email and --password, or fill in the interactive form when either is missing",
		RunE: a.withEngine(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			if email == "" || password == "" {
				if err := promptCredentials(&email, &password); err != nil {
					return err
				}
			}
			resp, err := a.engine.Login(ctx, goCampus.Credentials{Email: email, Password: password})
			if err != nil {
				var le *goCampus.LoginError
				if errors.As(err, &le) {
					return errors.New(le.Message)
				}
				return err
			}
			if pushToken != "" {
				a.engine.RegisterPushToken(ctx, pushToken)
			}
			fmt.Fprintln(cmd.OutOrStdout(), identityCard("Signed in", resp.User,
				field{"home", a.router.Path()},
			))
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&pushToken, "push-token", "", "device push token to register after sign-in")
	return cmd
}

func promptCredentials(email, password *string) error {
	required := func(name string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", name)
			}
			return nil
		}
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Value(email).
			Validate(required("email")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(required("password")),
	))
	return form.Run()
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the persisted session",
		RunE: a.withEngine(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			a.engine.Logout(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), okf("Signed out"))
			return nil
		}),
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Re-validate the session and show the signed-in user",
		RunE: a.withEngine(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			ident, err := a.engine.CheckSession(ctx)
			if err != nil {
				return err
			}
			if ident == nil {
				fmt.Fprintln(cmd.OutOrStdout(), warnf("Not signed in"))
				return nil
			}
			extra := []field{{"route", a.router.Path()}}
			token, err := a.storage.Get(ctx, vault.KeyToken)
			if err == nil {
				extra = append(extra, tokenFields(token)...)
			}
			fmt.Fprintln(cmd.OutOrStdout(), identityCard("Session", ident, extra...))
			return nil
		}),
	}
}

// tokenFields describes a JWT access token. Opaque tokens yield nothing.
func tokenFields(token string) []field {
	in, err := jwt.Inspect(token)
	if err != nil {
		return nil
	}
	out := []field{{"issuer", in.Issuer}, {"alg", in.Algorithm}}
	if !in.ExpiresAt.IsZero() {
		expiry := in.ExpiresAt.Local().Format(time.RFC3339)
		if in.Expired(time.Now()) {
			expiry += " (expired)"
		}
		out = append(out, field{"expires", expiry})
	}
	return out
}

func identityCard(title string, id *goCampus.Identity, extra ...field) string {
	if id == nil {
		return card(title, extra...)
	}
	fields := []field{
		{"name", id.FullName},
		{"email", id.Email},
		{"role", id.Role},
		{"group", id.GroupID},
		{"id", id.ID},
	}
	return card(title, append(fields, extra...)...)
}

/* ==== NAVIGATION ==== */

func newRouteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>",
		Short: "Show the guard decision for a path",
		Args:  cobra.ExactArgs(1),
		RunE: a.withEngine(func(_ context.Context, cmd *cobra.Command, args []string) error {
			d, err := a.engine.Decide(args[0])
			if err != nil && !errors.Is(err, goCampus.ErrUnknownRole) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), d.String())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), warnf("%v", err))
			}
			return nil
		}),
	}
}

/* ==== BACKEND ==== */

func (a *app) client() (*api.Client, error) {
	c := a.engine.API()
	if c == nil {
		return nil, errors.New("api.base_url is not configured")
	}
	return c, nil
}

func newScheduleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Show the timetable of the signed-in student or teacher",
		RunE: a.withEngine(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			id, err := a.identity()
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			kind, _, err := a.engine.Guard().Classify(id.Role)
			if err != nil {
				return err
			}
			var raw json.RawMessage
			switch kind {
			case role.Student:
				raw, err = c.Schedule(ctx, id.GroupID)
			case role.Teacher:
				raw, err = c.TeacherSchedule(ctx, id.ID)
			default:
				return fmt.Errorf("no personal schedule for role %q", id.Role)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, raw)
		}),
	}
}

func newMarksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "marks",
		Short: "Show the marks of the signed-in user",
		RunE: a.withEngine(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			id, err := a.identity()
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			raw, err := c.Marks(ctx, id.ID)
			if err != nil {
				return err
			}
			return printJSON(cmd, raw)
		}),
	}
}

func newChatCmd(a *app) *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a message to the assistant",
		RunE: a.withEngine(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := a.identity()
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if history {
				raw, err := c.ChatHistory(ctx, id.ID)
				if err != nil {
					return err
				}
				gjson.ParseBytes(raw).ForEach(func(_, msg gjson.Result) bool {
					fmt.Fprintf(out, "%s %s\n",
						labelStyle.Render(msg.Get("role").String()),
						msg.Get("content").String())
					return true
				})
				return nil
			}
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return errors.New("message is empty")
			}
			raw, err := c.SendChatMessage(ctx, id.ID, message)
			if err != nil {
				return err
			}
			if reply := gjson.GetBytes(raw, "reply"); reply.Exists() {
				fmt.Fprintln(out, reply.String())
				return nil
			}
			return printJSON(cmd, raw)
		}),
	}
	cmd.Flags().BoolVar(&history, "history", false, "print the conversation instead of sending")
	return cmd
}

/* ==== OBSERVABILITY ==== */

func newMetricsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print this run's session counters in Prometheus text format",
		RunE: a.withEngine(func(_ context.Context, cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), prometheus.NewExporter(a.engine).Render())
			return nil
		}),
	}
}

func printJSON(cmd *cobra.Command, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("%w: %v", goCampus.ErrMalformedResponse, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), buf.String())
	return nil
}
