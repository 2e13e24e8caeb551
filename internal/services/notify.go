package services

import (
	"context"
	"fmt"

	"gatherings/internal/domain"
)

type notificationService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewNotificationService returns a NotificationService that renders the named
// notice templates and sends them through the given Mailer.
func NewNotificationService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.NotificationService {
	return &notificationService{mailer: mailer, renderer: renderer}
}

// SendEventApproved notifies the event contact that the listing is live,
// using the "event_approved" template.
func (s *notificationService) SendEventApproved(ctx context.Context, data *domain.EventNoticeEmailData) error {
	return s.send("event_approved", data)
}

// SendEventCompleted notifies the event contact that the gallery record was
// published, using the "event_completed" template.
func (s *notificationService) SendEventCompleted(ctx context.Context, data *domain.EventNoticeEmailData) error {
	return s.send("event_completed", data)
}

func (s *notificationService) send(templateName string, data *domain.EventNoticeEmailData) error {
	if data == nil {
		return fmt.Errorf("notice data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", templateName, err)
	}
	if err := s.mailer.Send(data.ContactEmail, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", templateName, err)
	}
	return nil
}
