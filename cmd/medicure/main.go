package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medicure/medicure/internal/app"
	"github.com/medicure/medicure/internal/backend"
	"github.com/medicure/medicure/internal/config"
	"github.com/medicure/medicure/internal/navigation"
	"github.com/medicure/medicure/internal/session"
	"github.com/medicure/medicure/internal/tokens"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "medicure",
		Short:         "Medicure care coordination client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(loginCmd())
	root.AddCommand(signupCmd())
	root.AddCommand(verifyOTPCmd())
	root.AddCommand(logoutCmd())
	root.AddCommand(whoamiCmd())
	root.AddCommand(openCmd())
	root.AddCommand(screensCmd())
	root.AddCommand(tokenCmd())
	return root
}

// env bundles everything a command needs after boot.
type env struct {
	cfg   *config.Config
	app   *app.App
	store session.Store
	log   zerolog.Logger
}

// boot loads config and wires the app. The navigation stack starts at
// the landing screen; every command then mounts whatever it needs.
func boot() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	var store session.Store
	if cfg.Ephemeral {
		store = session.NewMemStore()
	} else {
		fs, err := session.OpenFileStore(cfg.DataDir, log)
		if err != nil {
			return nil, err
		}
		store = fs
	}

	var client *backend.Client
	if cfg.BackendURL != "" {
		client = backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, log)
	}

	mgr := session.NewManager(store, log)
	nav := navigation.NewStack(navigation.RouteLanding)
	return &env{
		cfg:   cfg,
		app:   app.New(mgr, client, nav, cfg.CheckTimeout, log),
		store: store,
		log:   log,
	}, nil
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and establish the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := boot()
			if err != nil {
				return err
			}
			route, err := e.app.SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Signed in. Home screen: %s\n", route)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func signupCmd() *cobra.Command {
	var req backend.SignupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := boot()
			if err != nil {
				return err
			}
			route, err := e.app.SignUp(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("signup did not establish a session (an OTP step may be pending): %w", err)
			}
			fmt.Printf("Account created. Home screen: %s\n", route)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&req.Role, "role", "patient", "Requested role")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func verifyOTPCmd() *cobra.Command {
	var email, code string
	cmd := &cobra.Command{
		Use:   "verify-otp",
		Short: "Complete an OTP challenge",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := boot()
			if err != nil {
				return err
			}
			route, err := e.app.VerifyOTP(cmd.Context(), email, code)
			if err != nil {
				return err
			}
			fmt.Printf("Verified. Home screen: %s\n", route)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&code, "code", "", "One-time code")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("code")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and delete the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := boot()
			if err != nil {
				return err
			}
			if err := e.app.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := boot()
			if err != nil {
				return err
			}
			sess, err := e.app.Whoami(cmd.Context())
			if err != nil {
				return err
			}
			if !sess.Authenticated() {
				fmt.Println("Not signed in.")
				return nil
			}
			role := navigation.ParseRole(sess.Role)
			fmt.Printf("%s <%s>\nrole: %s\nhome: %s\n", sess.Name, sess.Email, role, navigation.HomeRoute(role))
			return nil
		},
	}
}

func openCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "open <screen>",
		Short: "Open a screen (gate and role guard apply)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := boot()
			if err != nil {
				return err
			}

			if !watch {
				res, err := e.app.Open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Println(res.Text)
				return nil
			}

			fs, ok := e.store.(*session.FileStore)
			if !ok {
				return fmt.Errorf("--watch needs the persistent session store (unset MEDICURE_EPHEMERAL)")
			}
			w, err := session.WatchVault(fs.Path(), e.log)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err = e.app.WatchScreen(ctx, args[0], w.Changes(), os.Stdout)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Stay focused and re-check on session changes")
	return cmd
}

func screensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "screens",
		Short: "List available screens",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := boot()
			if err != nil {
				return err
			}
			for _, name := range e.app.ScreenNames() {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Token diagnostics",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "Decode the stored token without verifying it",
		Long: "Decode the stored bearer token without verifying its signature.\n" +
			"Diagnostic only: the app treats the token as opaque and never acts\n" +
			"on its claims; the backend remains the source of truth on expiry.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := boot()
			if err != nil {
				return err
			}
			sess, err := e.app.Whoami(cmd.Context())
			if err != nil {
				return err
			}
			if !sess.Authenticated() {
				return fmt.Errorf("no stored token")
			}
			info, err := tokens.Inspect(sess.Token)
			if err != nil {
				return err
			}
			fmt.Printf("subject: %s\nrole: %s\n", info.Subject, info.Role)
			if info.IssuedAt != nil {
				fmt.Printf("issued: %s\n", info.IssuedAt.Format(time.RFC3339))
			}
			if info.ExpiresAt != nil {
				fmt.Printf("expires: %s", info.ExpiresAt.Format(time.RFC3339))
				if info.Expired(time.Now()) {
					fmt.Print(" (expired)")
				}
				fmt.Println()
			}
			return nil
		},
	})
	return cmd
}
