package notify

import (
	"context"
	"fmt"

	"corralx-backend/internal/models"
	"corralx-backend/pkg/email"
)

// ProfileDirectory resolves the recipients of a lifecycle email.
type ProfileDirectory interface {
	FindByID(ctx context.Context, profileID int64) (*models.Profile, error)
}

// EmailPublisher mails the participant(s) who did not trigger the event.
// It is one sink of the fan-out: best-effort, post-commit, never on the
// request's critical path semantics.
type EmailPublisher struct {
	sender       email.ServiceInterface
	templates    *email.TemplateManager
	profiles     ProfileDirectory
	clientOrigin string
}

// NewEmailPublisher wires the SES sender into the notification fan-out.
func NewEmailPublisher(sender email.ServiceInterface, tm *email.TemplateManager, profiles ProfileDirectory, clientOrigin string) *EmailPublisher {
	return &EmailPublisher{sender: sender, templates: tm, profiles: profiles, clientOrigin: clientOrigin}
}

// subjects keyed by event name; the zero value means "no email for this event".
var emailSubjects = map[string]string{
	EventCreated:   "Nueva orden de compra recibida",
	EventAccepted:  "Tu orden fue aceptada",
	EventRejected:  "Tu orden fue rechazada",
	EventUpdated:   "Tu orden fue actualizada por el vendedor",
	EventDelivered: "El comprador confirmó la entrega",
	EventCancelled: "La orden fue cancelada",
	EventCompleted: "La orden fue completada",
}

func (p *EmailPublisher) Publish(ctx context.Context, eventName string, order *models.Order) error {
	subject, ok := emailSubjects[eventName]
	if !ok {
		return nil
	}

	for _, profileID := range p.recipients(eventName, order) {
		profile, err := p.profiles.FindByID(ctx, profileID)
		if err != nil {
			return fmt.Errorf("notify.EmailPublisher: resolve profile %d: %w", profileID, err)
		}

		data := email.OrderEventData{
			Name:       profile.DisplayName,
			Headline:   subject,
			Detail:     fmt.Sprintf("El pedido #%d cambió de estado: %s.", order.ID, order.Status),
			OrderID:    order.ID,
			ProductRef: fmt.Sprintf("%d x producto %d", order.Quantity, order.ProductID),
			Link:       fmt.Sprintf("%s/orders/%d", p.clientOrigin, order.ID),
		}
		htmlBody, err := p.templates.GenerateOrderEventEmailHTML(data)
		if err != nil {
			return fmt.Errorf("notify.EmailPublisher: render template: %w", err)
		}
		plain := fmt.Sprintf("%s - %s", subject, data.Detail)

		if err := p.sender.SendEmail(ctx, profile.Email, subject, plain, htmlBody); err != nil {
			return fmt.Errorf("notify.EmailPublisher: send to %d: %w", profileID, err)
		}
	}
	return nil
}

// recipients picks who gets mailed: the participant(s) who did not perform
// the action that produced the event.
func (p *EmailPublisher) recipients(eventName string, order *models.Order) []int64 {
	switch eventName {
	case EventCreated, EventDelivered:
		return []int64{order.SellerProfileID}
	case EventAccepted, EventRejected, EventUpdated:
		return []int64{order.BuyerProfileID}
	case EventCancelled, EventCompleted:
		return []int64{order.BuyerProfileID, order.SellerProfileID}
	}
	return nil
}
