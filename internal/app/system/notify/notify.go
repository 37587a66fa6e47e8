// Package notify publishes user-facing notification events for
// complaint activity. Two channels mirror the mobile app's local
// notification channels: a high-importance company-wide channel with a
// six-buzz vibration pattern and a default-importance department
// channel with a three-buzz pattern. Exactly one notification is
// published per successful submission.
package notify

import (
	"context"

	"github.com/crewvoice/crewvoice/internal/app/system/hub"
	"github.com/crewvoice/crewvoice/internal/domain/models"
	"go.uber.org/zap"
)

// Channel describes how a notification should surface on the client.
type Channel struct {
	Name       string
	Importance string
	Vibration  []int // milliseconds, buzz/pause alternating
}

var (
	// GlobalChannel carries company-wide complaints.
	GlobalChannel = Channel{
		Name:       "global_complaints",
		Importance: "high",
		Vibration:  []int{250, 250, 250, 250, 250, 250},
	}

	// DepartmentChannel carries department-scoped complaints.
	DepartmentChannel = Channel{
		Name:       "department_complaints",
		Importance: "default",
		Vibration:  []int{300, 300, 300},
	}
)

// ChannelFor picks the notification channel by complaint scope.
func ChannelFor(isGlobal bool) Channel {
	if isGlobal {
		return GlobalChannel
	}
	return DepartmentChannel
}

// Summary is the notification payload: enough for a list row or a
// notification card without refetching.
type Summary struct {
	ComplaintID string `json:"complaint_id"`
	Title       string `json:"title"`
	Department  string `json:"department"`
	Urgency     string `json:"urgency"`
	Status      string `json:"status"`
	IsGlobal    bool   `json:"is_global"`
	Priority    int    `json:"priority"`
}

// Notifier publishes complaint events through the live hub.
type Notifier struct {
	hub *hub.Hub
	log *zap.Logger
}

// New builds a Notifier.
func New(h *hub.Hub, logger *zap.Logger) *Notifier {
	return &Notifier{hub: h, log: logger}
}

// ComplaintCreated publishes the single post-commit notification.
func (n *Notifier) ComplaintCreated(ctx context.Context, c models.Complaint) {
	n.publish(ctx, hub.KindComplaintCreated, c)
}

// StatusChanged announces a status transition.
func (n *Notifier) StatusChanged(ctx context.Context, c models.Complaint) {
	n.publish(ctx, hub.KindStatusChanged, c)
}

// ComplaintDeleted announces a deletion so list screens drop the row.
func (n *Notifier) ComplaintDeleted(ctx context.Context, c models.Complaint) {
	n.publish(ctx, hub.KindComplaintDeleted, c)
}

func (n *Notifier) publish(ctx context.Context, kind string, c models.Complaint) {
	ch := ChannelFor(c.IsGlobal)

	department := ""
	if !c.IsGlobal {
		department = c.AssignedDepartment.SanitizedName
	}

	n.hub.Publish(ctx, hub.Event{
		Kind:       kind,
		Channel:    ch.Name,
		Importance: ch.Importance,
		Vibration:  ch.Vibration,
		CompanyKey: c.CompanyKey,
		Department: department,
		Payload: Summary{
			ComplaintID: c.ComplaintID,
			Title:       c.Title,
			Department:  c.Department,
			Urgency:     c.Urgency,
			Status:      c.Status,
			IsGlobal:    c.IsGlobal,
			Priority:    c.Priority,
		},
	})

	n.log.Debug("notification published",
		zap.String("kind", kind),
		zap.String("channel", ch.Name),
		zap.String("complaint_id", c.ComplaintID))
}
