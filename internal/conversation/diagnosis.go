package conversation

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/ashureev/symcheck/internal/domain"
)

// ParseDays accepts a strictly positive base-10 integer.
func ParseDays(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (c *Controller) handleDays(ctx context.Context, text string) {
	days, ok := ParseDays(text)
	if !ok {
		c.say(promptInvalidDays)
		return
	}
	c.predict(ctx, days)
}

func (c *Controller) predict(ctx context.Context, days int) {
	c.say(promptDiagnosing)

	d, err := c.backend.PredictDisease(ctx, slices.Clone(c.symptoms), days)
	if err != nil {
		c.logger.Error("disease prediction failed", "symptoms", len(c.symptoms), "days", days, "error", err)
		c.say(promptDiagnosisFailed)
		return
	}

	c.lastDiagnosis = d
	c.state = StatePostDiagnosisQuery

	m := NewMessage(SenderBot, KindDiagnosis, DiagnosisText(d))
	m.Diagnosis = d
	c.emit(m)
	c.emit(NewMessage(SenderBot, KindReportReady, ""))
	c.say(promptPostDiagnosis)
}

// DiagnosisText renders both diseases with their descriptions and
// precautions, followed by the advice line.
func DiagnosisText(d *domain.Diagnosis) string {
	var b strings.Builder
	writeDiseaseBlock(&b, "🔹 Primary Disease", d.PrimaryDisease, d.PrimaryDescription, d.PrimaryPrecautions)
	b.WriteString("\n")
	writeDiseaseBlock(&b, "🔸 Secondary Disease", d.SecondaryDisease, d.SecondaryDescription, d.SecondaryPrecautions)
	b.WriteString("\n")
	if d.RecommendDoctor {
		b.WriteString(promptRecommendDoctor)
	} else {
		b.WriteString(promptFollowPrecautions)
	}
	return b.String()
}

func writeDiseaseBlock(b *strings.Builder, title, disease, description string, precautions []string) {
	b.WriteString(title + ": " + disease + "\n")
	b.WriteString("📝 Description: " + description + "\n")
	b.WriteString("💊 Precautions:\n")
	for _, p := range precautions {
		b.WriteString("  • " + p + "\n")
	}
}
