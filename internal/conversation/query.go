package conversation

import (
	"context"
	"regexp"
	"strings"
)

var queryPrefix = regexp.MustCompile(`(?i)^(hi|hello|hat is|explain|tell me about)\b`)

// looksLikeQuery reports whether input reads as a question rather than a
// symptom token: a greeting or question prefix, or more than two words.
func looksLikeQuery(input string) bool {
	return queryPrefix.MatchString(input) || len(strings.Fields(input)) > 2
}

func (c *Controller) ask(ctx context.Context, query string) {
	c.emit(NewMessage(SenderUser, KindText, query))

	answer, err := c.backend.AskMedical(ctx, query)
	if err != nil {
		c.logger.Error("medical query failed", "error", err)
		c.say(promptQueryFailed)
		return
	}
	c.say("🤖 " + answer)

	if c.state != StatePostDiagnosisQuery {
		c.later(BotText(promptFollowUp))
	}
}
