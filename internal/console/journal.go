package console

import (
	"context"
	"fmt"

	"github.com/rpggio/taskdesk/internal/domain/access"
	"github.com/rpggio/taskdesk/internal/domain/activity"
)

// viewActivity names the journal in denial messages.
const viewActivity access.View = "activity"

var verbs = map[activity.Type]string{
	activity.TypeCreated:     "created",
	activity.TypeUpdated:     "updated",
	activity.TypeDeleted:     "deleted",
	activity.TypeTeamChanged: "changed the team of",
}

// note journals a mutation that already succeeded. Journal failures are
// logged, never returned.
func (c *Console) note(ctx context.Context, view access.View, typ activity.Type, h handle, id string) {
	if c.journal == nil || id == "" {
		return
	}
	who, ok := c.session.Identity()
	if !ok {
		return
	}
	entry := &activity.Entry{
		UserID:   who.ID,
		View:     string(view),
		Type:     typ,
		RecordID: id,
		Summary:  fmt.Sprintf("%s %s %s %s", who.Name, verbs[typ], h.entity(), id),
	}
	if err := c.journal.Record(ctx, entry); err != nil {
		c.logger.Warn("journaling mutation", "type", typ, "view", view, "record_id", id, "error", err)
	}
}

// RecentActivity lists the signed-in user's newest mutations, optionally only
// those made in view.
func (c *Console) RecentActivity(ctx context.Context, view access.View, limit int) ([]activity.Entry, error) {
	who, ok := c.session.Identity()
	if state, _ := c.gate.State(); state != access.Authenticated || !ok {
		return nil, &DeniedError{View: viewActivity, Decision: c.gate.CheckView(access.ViewDashboard)}
	}
	if c.journal == nil {
		return []activity.Entry{}, nil
	}
	return c.journal.Recent(ctx, activity.ListOptions{UserID: who.ID, View: string(view), Limit: limit})
}
