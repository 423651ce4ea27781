package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

const (
	themeDark  = "dark"
	themeLight = "light"
)

func newThemeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light]",
		Short:     "Show or set the colour theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{themeDark, themeLight},
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			if len(args) == 1 {
				if err := setTheme(cmd.Context(), a, args[0]); err != nil {
					return err
				}
			}
			u, err := a.user(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, u.Theme())
			return nil
		}),
	}
}

func setTheme(ctx context.Context, a *app, name string) error {
	if name != themeDark && name != themeLight {
		return fmt.Errorf("unknown theme %q (want dark or light)", name)
	}
	if _, err := a.user(ctx); err != nil {
		return err
	}
	return a.repo.SetDarkMode(ctx, localUserID, name == themeDark)
}
