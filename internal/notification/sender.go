package notification

import (
	"context"
	"fmt"

	"car-rental/internal/shared/util"
)

// Sender delivers the actual guest/host-facing messages. The SMS and bell
// backends live outside this core; LogSender stands in for them.
type Sender interface {
	SendSMS(ctx context.Context, phone, message string) error
	PushBell(ctx context.Context, accountID, title, message, actionURL, priority string) error
}

type LogSender struct {
	logger *util.Logger
}

func NewLogSender(logger *util.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendSMS(ctx context.Context, phone, message string) error {
	s.logger.Info("LogSender.SMS", fmt.Sprintf("to=%s body=%q", phone, message))
	return nil
}

func (s *LogSender) PushBell(ctx context.Context, accountID, title, message, actionURL, priority string) error {
	s.logger.Info("LogSender.Bell", fmt.Sprintf("account=%s title=%q priority=%s", accountID, title, priority))
	return nil
}
