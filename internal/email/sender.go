package email

import (
	"context"
	"errors"
)

// Sender define la interfaz para notificaciones por correo.
type Sender interface {
	SendLeaveDecision(ctx context.Context, toEmail, fullName, status, note string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendLeaveDecision(_ context.Context, _ string, _ string, _ string, _ string) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
