// Package notify posts notable deal events to a Slack channel.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/jpd-dfo/spacos/internal/domain"
)

// SlackAPI abstracts the subset of the Slack client used by the notifier.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessage(channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// notableActions are the audit actions worth a channel message. Routine
// reads and contact edits stay out of Slack.
var notableActions = map[string]bool{
	"create":  true,
	"delete":  true,
	"analyze": true,
}

// Slack forwards selected audit events to a single Slack channel. It
// implements the same activity-bus contract as the Redis fan-out so server
// wiring can compose both.
type Slack struct {
	api       SlackAPI
	channelID string
}

func NewSlack(api SlackAPI, channelID string) *Slack {
	return &Slack{api: api, channelID: channelID}
}

// PublishActivity posts a message for notable entries. Delivery is best
// effort: Slack being down must never fail the mutation.
func (s *Slack) PublishActivity(_ context.Context, organizationID uuid.UUID, entry *domain.AuditEntry) {
	if !notableActions[entry.Action] {
		return
	}

	_, _, err := s.api.PostMessage(s.channelID, slacklib.MsgOptionBlocks(BuildActivityBlocks(entry)...))
	if err != nil {
		log.Error().Err(err).
			Str("organization_id", organizationID.String()).
			Str("action", entry.Action).
			Msg("notify: posting to slack")
	}
}

// PostDeadlineReminder warns the channel about a SPAC whose deal deadline
// is approaching. Same best-effort contract as PublishActivity.
func (s *Slack) PostDeadlineReminder(spac *domain.SPAC) {
	if spac.Deadline == nil {
		return
	}

	_, _, err := s.api.PostMessage(s.channelID, slacklib.MsgOptionBlocks(BuildDeadlineBlocks(spac)...))
	if err != nil {
		log.Error().Err(err).
			Str("spac_id", spac.ID.String()).
			Msg("notify: posting deadline reminder")
	}
}

// BuildDeadlineBlocks renders a deadline warning as Slack Block Kit blocks.
func BuildDeadlineBlocks(spac *domain.SPAC) []slacklib.Block {
	text := fmt.Sprintf(
		":warning: *%s* (%s) deadline is %s",
		spac.Name, spac.Ticker, spac.Deadline.Format("2006-01-02"),
	)

	section := slacklib.NewSectionBlock(
		slacklib.NewTextBlockObject(slacklib.MarkdownType, text, false, false),
		nil,
		nil,
	)

	return []slacklib.Block{section}
}

// BuildActivityBlocks renders an audit entry as Slack Block Kit blocks.
func BuildActivityBlocks(entry *domain.AuditEntry) []slacklib.Block {
	text := fmt.Sprintf("*%s* %s `%s`", entry.Action, entry.Resource, entry.ResourceID)
	if name, ok := entry.Details["name"].(string); ok && name != "" {
		text += fmt.Sprintf("\n*Name:* %s", name)
	}
	if score, ok := entry.Details["score"].(int); ok {
		text += fmt.Sprintf("\n*Score:* %d", score)
	}

	section := slacklib.NewSectionBlock(
		slacklib.NewTextBlockObject(slacklib.MarkdownType, text, false, false),
		nil,
		nil,
	)

	return []slacklib.Block{section}
}
