package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the
// given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// EventNoticeEmailData holds data for moderation notice emails sent to an
// event's contact address.
type EventNoticeEmailData struct {
	ContactName  string
	ContactEmail string
	EventTitle   string
	EventSlug    string
	StartAt      time.Time
}

// NotificationService sends best-effort moderation notices. Delivery is not
// guaranteed and failures must never fail the lifecycle action that
// triggered them.
type NotificationService interface {
	SendEventApproved(ctx context.Context, data *EventNoticeEmailData) error
	SendEventCompleted(ctx context.Context, data *EventNoticeEmailData) error
}
