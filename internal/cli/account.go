package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/HerbHall/galleria/internal/auth"
)

// readPassword returns flag when set, otherwise the first line of in.
func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	sc := bufio.NewScanner(cmd.InOrStdin())
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", auth.ErrInvalidCredentials
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	return strings.TrimRight(sc.Text(), "\r"), nil
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var req auth.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Long: `Create an account and sign in.

Passwords need at least 6 characters with an upper-case and a lower-case
letter. Without --password the password is read from standard input.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd.ErrOrStderr(), zapcore.WarnLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			if req.Password, err = readPassword(cmd, req.Password); err != nil {
				return err
			}
			sess, err := a.Auth.Register(ctx, req)
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Render(sess, func(w io.Writer) error {
				fmt.Fprintf(w, "Welcome to Galleria, %s!\n", sess.Name)
				return renderSession(w, sess)
			})
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (read from stdin when omitted)")
	cmd.Flags().StringVar(&req.PhotoURL, "photo", "", "profile photo URL")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd.ErrOrStderr(), zapcore.WarnLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			if password, err = readPassword(cmd, password); err != nil {
				return err
			}
			sess, err := a.Auth.Login(ctx, email, password)
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Render(sess, func(w io.Writer) error {
				return renderSession(w, sess)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd.ErrOrStderr(), zapcore.WarnLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Auth.Logout(ctx); err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Success("Signed out", nil)
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts, cmd.ErrOrStderr(), zapcore.WarnLevel)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.Auth.Current(ctx)
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Render(sess, func(w io.Writer) error {
				return renderSession(w, sess)
			})
		},
	}
}
