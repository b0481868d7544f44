package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"reposter/internal/activity"
)

const (
	maxPending  = 32
	sendTimeout = 10 * time.Second
)

// Notifier forwards selected activity entries to a Telegram chat. Entries are
// queued and sent from a single goroutine so the activity log never waits on
// the network.
type Notifier struct {
	client  *Client
	chatID  int64
	levels  map[activity.Level]bool
	pending chan string
	done    chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
}

var _ activity.Sink = (*Notifier)(nil)

// NewNotifier forwards the given levels, or errors and successes when none
// are passed.
func NewNotifier(client *Client, chatID int64, levels ...activity.Level) *Notifier {
	if len(levels) == 0 {
		levels = []activity.Level{activity.LevelError, activity.LevelSuccess}
	}
	set := make(map[activity.Level]bool, len(levels))
	for _, l := range levels {
		set[l] = true
	}

	return &Notifier{
		client:  client,
		chatID:  chatID,
		levels:  set,
		pending: make(chan string, maxPending),
		done:    make(chan struct{}),
	}
}

func (n *Notifier) Write(entry activity.Entry) {
	if !n.levels[entry.Level] {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	select {
	case n.pending <- FormatEntry(entry):
	default:
		slog.Warn("Telegram notification dropped, queue full", "message", entry.Message)
	}
}

// Start launches the sender. Sends use a context detached from ctx's
// cancellation so queued messages still go out during shutdown.
func (n *Notifier) Start(ctx context.Context) {
	n.mu.Lock()
	if n.started || n.closed {
		n.mu.Unlock()
		return
	}
	n.started = true
	n.mu.Unlock()

	sendCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(n.done)
		for text := range n.pending {
			ctx, cancel := context.WithTimeout(sendCtx, sendTimeout)
			if err := n.client.SendMessage(ctx, n.chatID, text); err != nil {
				slog.Warn("Failed to send Telegram notification", "error", err)
			}
			cancel()
		}
	}()
}

// Close stops accepting entries and waits for queued ones to be sent.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.pending)
	started := n.started
	n.mu.Unlock()

	if started {
		<-n.done
	}
}

func FormatEntry(entry activity.Entry) string {
	return fmt.Sprintf("[%s] %s\n%s", entry.Level, entry.Message, entry.Time.Format(activity.TimestampLayout))
}
