// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat abstracts message delivery to Towns channels. The bot
// framework hosting this service plugs in its own Transport; everything
// above this package only deals in space/channel/message triples.
package chat

import (
	"context"

	"github.com/rs/zerolog"
)

// Transport posts and edits messages in Towns channels.
type Transport interface {
	// SendMessage posts a message to a channel and returns the event ID of
	// the posted message so callers can edit it later.
	SendMessage(ctx context.Context, spaceID, channelID, message string) (string, error)
	// EditMessage replaces the body of a previously posted message.
	EditMessage(ctx context.Context, spaceID, channelID, eventID, message string) error
}

// LogTransport writes messages to the log instead of a channel. It is the
// default transport when the service runs without a bot host attached, and
// doubles as a test double.
type LogTransport struct{}

// NewLogTransport creates a LogTransport.
func NewLogTransport() *LogTransport {
	return &LogTransport{}
}

// SendMessage implements Transport.
func (*LogTransport) SendMessage(ctx context.Context, spaceID, channelID, message string) (string, error) {
	zerolog.Ctx(ctx).Info().
		Str("space_id", spaceID).
		Str("channel_id", channelID).
		Str("message", message).
		Msg("chat message (log transport)")
	return "", nil
}

// EditMessage implements Transport.
func (*LogTransport) EditMessage(ctx context.Context, spaceID, channelID, eventID, message string) error {
	zerolog.Ctx(ctx).Info().
		Str("space_id", spaceID).
		Str("channel_id", channelID).
		Str("event_id", eventID).
		Str("message", message).
		Msg("chat message edit (log transport)")
	return nil
}
