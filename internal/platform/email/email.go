// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

// Package email provides outbound-email delivery implementations.
//
// The production deployment fronts a transactional provider behind the same
// interface; this package ships the development implementation that writes
// the message to the structured log instead of the network.
package email

import (
	"context"
	"log/slog"
)

// LogMailer implements [auth.EmailSender] by logging the confirmation link.
//
// Useful in development and CI, where a real SMTP hop would only slow the
// feedback loop down. The logged URL is clickable straight from the console.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a log-backed mailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendConfirmation logs the confirmation link instead of delivering it.
func (mailer *LogMailer) SendConfirmation(ctx context.Context, toEmail, username, confirmURL string) error {
	mailer.logger.InfoContext(ctx, "confirmation_email",
		slog.String("to", toEmail),
		slog.String("username", username),
		slog.String("confirm_url", confirmURL),
	)
	return nil
}
