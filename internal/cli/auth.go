package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashureev/symcheck/internal/auth"
)

func newSignUpCommand(opts *options) *cobra.Command {
	var form auth.SignUpForm

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a backend account",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			out, err := auth.NewService(a.client, a.logger).SignUp(cmd.Context(), form)
			return printOutcome(a, out, err)
		}),
	}
	cmd.Flags().StringVar(&form.Username, "username", "", "display name")
	cmd.Flags().StringVar(&form.Email, "email", "", "email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "password (min 6 characters)")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "password again")
	return cmd
}

func newSignInCommand(opts *options) *cobra.Command {
	var form auth.SignInForm

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and remember the backend session",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			out, err := auth.NewService(a.client, a.logger).SignIn(cmd.Context(), form)
			if err == nil && out.OK {
				if serr := a.saveCookies(); serr != nil {
					return serr
				}
			}
			return printOutcome(a, out, err)
		}),
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "password")
	return cmd
}

// printOutcome prints a successful outcome and turns a rejection into an error.
func printOutcome(a *app, out auth.Outcome, err error) error {
	if err != nil {
		return err
	}
	if !out.OK {
		return errors.New(out.Message)
	}
	fmt.Fprintln(a.out, out.Message)
	return nil
}
