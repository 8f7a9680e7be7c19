package handler

import (
	"context"
	"time"

	"github.com/arenaops/ticket-pricing/internal/model"
	"github.com/arenaops/ticket-pricing/internal/queue"
	queue_publisher "github.com/arenaops/ticket-pricing/internal/service"
)

// publishAudit emits a change event to the broker after a successful
// admin write. Publishing is best-effort and asynchronous: the write has
// already been committed, so a broker outage must not fail the request.
// The publisher logs its own errors.
func publishAudit(ev queue.RuleChangedEvent) {
	ev.ChangedAt = time.Now().UTC().Format(time.RFC3339)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishRuleChanged(ctx, ev)
	}()
}

// withScope copies a resolved scope into a change event.
func withScope(ev queue.RuleChangedEvent, s model.ScopeKey) queue.RuleChangedEvent {
	ev.SportType = s.SportType
	ev.TournamentID = s.TournamentID
	ev.TeamID = s.TeamID
	ev.EventID = s.EventID
	ev.TicketID = s.TicketID
	ev.Level = s.Level.String()
	return ev
}
