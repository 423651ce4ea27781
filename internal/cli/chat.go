package cli

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ashureev/symcheck/internal/conversation"
	"github.com/ashureev/symcheck/internal/render"
	"github.com/ashureev/symcheck/internal/session"
)

const chatHelp = `Commands:
  #N            pick suggestion or symptom N from the last list
  /new          start a new chat
  /clear        clear the screen, keep collected symptoms
  /history      list past chats
  /show N       open past chat N
  /delete N     delete past chat N
  /report       save the diagnosis report
  /theme dark   switch palette (dark|light)
  /quit         leave
Anything else is sent to the assistant.`

func newChatCommand(opts *options) *cobra.Command {
	var reportDir string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive symptom checking chat",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			return runChat(cmd, a, opts, reportDir)
		}),
	}
	cmd.Flags().DurationVar(&opts.followUpDelay, "follow-up-delay", conversation.DefaultFollowUpDelay, "pause before asking for more questions")
	cmd.Flags().StringVar(&reportDir, "report-dir", ".", "directory /report writes into")
	return cmd
}

func runChat(cmd *cobra.Command, a *app, opts *options, reportDir string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	r := a.renderer(ctx)
	sess := session.New(uuid.NewString(), a.client, r, session.Options{
		FollowUpDelay: opts.followUpDelay,
		Logger:        a.logger,
	})
	defer sess.Close()

	sess.Start(ctx)

	repl := &chatREPL{app: a, sess: sess, r: r, reportDir: reportDir}
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if quit := repl.handle(ctx, scanner.Text()); quit {
			return nil
		}
	}
	return scanner.Err()
}

type chatREPL struct {
	app       *app
	sess      *session.Session
	r         *render.Renderer
	reportDir string
}

// handle runs one line and reports whether the user asked to quit.
func (c *chatREPL) handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)

	if n, ok := strings.CutPrefix(trimmed, "#"); ok {
		idx, err := strconv.Atoi(n)
		if a, found := c.r.Action(idx); err == nil && found {
			c.sess.Dispatch(ctx, a)
		} else {
			c.r.Printf("⚠️ No option %s.", n)
		}
		return false
	}

	if !strings.HasPrefix(trimmed, "/") {
		c.sess.Input(ctx, line)
		return false
	}

	fields := strings.Fields(trimmed)
	switch fields[0] {
	case "/quit", "/q":
		return true
	case "/help":
		c.r.Printf("%s", chatHelp)
	case "/new":
		_ = c.sess.NewChat(ctx)
	case "/clear":
		c.sess.Clear()
	case "/history":
		c.sess.History(ctx)
	case "/show", "/delete":
		id, ok := c.historyArg(fields)
		if !ok {
			return false
		}
		if fields[0] == "/show" {
			c.sess.Detail(ctx, id)
		} else {
			c.sess.Delete(ctx, id)
		}
	case "/report":
		c.saveReport()
	case "/theme":
		if len(fields) != 2 {
			c.r.Printf("Usage: /theme dark|light")
			return false
		}
		if err := setTheme(ctx, c.app, fields[1]); err != nil {
			c.r.Printf("⚠️ %v", err)
			return false
		}
		c.r.SetTheme(render.ThemeFor(fields[1] == themeDark))
		c.r.Printf("Theme set to %s.", fields[1])
	default:
		c.r.Printf("Unknown command %s. Type /help.", fields[0])
	}
	return false
}

func (c *chatREPL) historyArg(fields []string) (string, bool) {
	if len(fields) != 2 {
		c.r.Printf("Usage: %s N", fields[0])
		return "", false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		c.r.Printf("⚠️ %q is not a number.", fields[1])
		return "", false
	}
	id, ok := c.r.HistoryID(n)
	if !ok {
		c.r.Printf("⚠️ No chat %d. Type /history to refresh the list.", n)
		return "", false
	}
	return id, true
}

func (c *chatREPL) saveReport() {
	if !c.r.ReportReady() {
		c.r.Printf("⚠️ No diagnosis yet.")
		return
	}
	path, err := c.sess.SaveReport(c.reportDir)
	if err != nil {
		c.app.logger.Error("Failed to save report", "error", err)
		c.r.Printf("⚠️ Could not save the report.")
		return
	}
	c.r.Printf("📄 Report saved to %s", path)
}
