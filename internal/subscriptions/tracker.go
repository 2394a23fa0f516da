// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package subscriptions

import (
	"context"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
)

const (
	trackerEntryTTL      = 60 * time.Second
	trackerSweepInterval = 30 * time.Second
)

type trackedMessage struct {
	eventID    string
	recordedAt time.Time
}

// PendingMessageTracker remembers provisional "subscribed via polling"
// messages so they can be edited in place when the repo upgrades to
// webhook delivery. Entries are short-lived; anything the upgrade path
// has not consumed within a minute is dropped.
type PendingMessageTracker struct {
	entries *xsync.MapOf[string, trackedMessage]
}

// NewPendingMessageTracker creates an empty tracker.
func NewPendingMessageTracker() *PendingMessageTracker {
	return &PendingMessageTracker{
		entries: xsync.NewMapOf[string, trackedMessage](),
	}
}

func trackerKey(channelID, repoFullName string) string {
	return channelID + "\x00" + strings.ToLower(repoFullName)
}

// Record stores the event ID of a provisional message.
func (t *PendingMessageTracker) Record(channelID, repoFullName, eventID string) {
	t.entries.Store(trackerKey(channelID, repoFullName), trackedMessage{
		eventID:    eventID,
		recordedAt: time.Now(),
	})
}

// Consume removes and returns the tracked message for a channel/repo
// pair.
func (t *PendingMessageTracker) Consume(channelID, repoFullName string) (string, bool) {
	entry, ok := t.entries.LoadAndDelete(trackerKey(channelID, repoFullName))
	if !ok {
		return "", false
	}
	return entry.eventID, true
}

// Len returns the number of tracked entries.
func (t *PendingMessageTracker) Len() int {
	return t.entries.Size()
}

// sweep drops entries older than the TTL and returns how many were
// removed.
func (t *PendingMessageTracker) sweep(now time.Time) int {
	removed := 0
	t.entries.Range(func(key string, entry trackedMessage) bool {
		if now.Sub(entry.recordedAt) > trackerEntryTTL {
			t.entries.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Run sweeps expired entries until the context is cancelled.
func (t *PendingMessageTracker) Run(ctx context.Context) {
	ticker := time.NewTicker(trackerSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := t.sweep(now); removed > 0 {
				zerolog.Ctx(ctx).Debug().Int("removed", removed).Msg("swept pending message tracker")
			}
		}
	}
}
