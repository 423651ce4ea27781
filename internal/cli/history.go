package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashureev/symcheck/internal/history"
	"github.com/ashureev/symcheck/internal/session"
)

func newHistoryCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past chats",
		Args:  cobra.NoArgs,
		RunE:  withApp(opts, runHistoryList),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List past chats",
			Args:  cobra.NoArgs,
			RunE:  withApp(opts, runHistoryList),
		},
		&cobra.Command{
			Use:   "show ID",
			Short: "Show one past chat",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(opts, runHistoryShow),
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete one past chat",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(opts, runHistoryDelete),
		},
	)
	return cmd
}

func historyService(a *app) *history.Service {
	return history.NewService(a.client, 0, a.logger)
}

func runHistoryList(cmd *cobra.Command, a *app, _ []string) error {
	entries, err := historyService(a).List(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No previous chats.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "%s  %s  (%s, %s)\n", e.ID, e.UserMessage, e.PrimaryDisease, e.SecondaryDisease)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, a *app, args []string) error {
	d, err := historyService(a).Detail(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, session.DetailText(d))
	return nil
}

func runHistoryDelete(cmd *cobra.Command, a *app, args []string) error {
	msg, err := historyService(a).Delete(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if msg == "" {
		return errors.New("error deleting chat")
	}
	fmt.Fprintln(a.out, "Chat deleted successfully!")
	return nil
}
