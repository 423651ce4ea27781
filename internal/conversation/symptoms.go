package conversation

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// NormalizeSymptom lower-cases and trims a token and joins inner words with
// underscores, matching the backend's dataset column names.
func NormalizeSymptom(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

func (c *Controller) collect(ctx context.Context, raw string) {
	symptom := NormalizeSymptom(raw)
	if symptom == "" {
		c.say(promptEmptyInput)
		return
	}
	if symptom == "edit" {
		c.edit()
		return
	}
	if slices.Contains(c.symptoms, symptom) {
		c.say(fmt.Sprintf("⚠️ You've already entered %q. Try a different symptom.", symptom))
		return
	}

	check, err := c.backend.CollectSymptom(ctx, symptom, slices.Clone(c.symptoms))
	if err != nil {
		c.logger.Error("symptom collection failed", "symptom", symptom, "error", err)
		c.say(promptCollectFailed)
		return
	}

	if !check.Valid() {
		suggestions := c.uncollected(check.Suggestions)
		if len(suggestions) == 0 {
			c.say(fmt.Sprintf("❌ %q is not in the dataset. Try another symptom.", check.InvalidSymptom))
			return
		}
		m := BotText(fmt.Sprintf("❌ %q is not in the dataset. Did you mean:", check.InvalidSymptom))
		m.Actions = addActions(suggestions)
		c.emit(m)
		return
	}

	c.symptoms = append(c.symptoms, symptom)
	c.say("✅ Collected Symptoms: " + strings.Join(c.symptoms, ", "))

	if len(c.symptoms) >= MaxSymptoms {
		c.state = StateAwaitingDays
		c.say(promptFiveSymptoms)
		return
	}

	related := c.uncollected(check.RelatedSymptoms)
	if len(related) == 0 {
		c.say(promptNoRelated)
		return
	}
	m := BotText("💡 Related symptoms: " + promptRelatedSuffix)
	m.Actions = addActions(related)
	c.emit(m)
}

func (c *Controller) edit() {
	if len(c.symptoms) == 0 {
		c.say(promptNothingToEdit)
		return
	}
	m := BotText(promptEditHeader)
	m.Actions = make([]Action, 0, len(c.symptoms))
	for i, s := range c.symptoms {
		m.Actions = append(m.Actions, Action{
			Kind:    ActionRemoveSymptom,
			Label:   "❌ " + s,
			Symptom: s,
			Index:   i,
		})
	}
	c.emit(m)
}

// remove deletes the symptom at index. When the action names its symptom
// and an earlier removal shifted the list, the symptom is looked up again.
func (c *Controller) remove(index int, symptom string) {
	if symptom != "" && (index < 0 || index >= len(c.symptoms) || c.symptoms[index] != symptom) {
		index = slices.Index(c.symptoms, symptom)
	}
	if index < 0 || index >= len(c.symptoms) {
		c.say(promptNoSuchSymptom)
		return
	}

	c.symptoms = slices.Delete(c.symptoms, index, index+1)
	c.say("🗑️ Removed symptom. Current symptoms: " + strings.Join(c.symptoms, ", "))

	if len(c.symptoms) == 0 {
		c.reset()
		c.say(promptAllRemoved)
		return
	}
	// Only the day-count prompt is undone; query modes keep their state.
	if len(c.symptoms) < MaxSymptoms && c.state == StateAwaitingDays {
		c.state = StateCollectingSymptoms
		c.say(promptEnterSymptom)
	}
}

// uncollected filters out candidates that are already collected.
func (c *Controller) uncollected(candidates []string) []string {
	var out []string
	for _, s := range candidates {
		if !slices.Contains(c.symptoms, s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func addActions(symptoms []string) []Action {
	actions := make([]Action, 0, len(symptoms))
	for _, s := range symptoms {
		actions = append(actions, Action{Kind: ActionAddSymptom, Label: s, Symptom: s})
	}
	return actions
}
