// Package listener turns Postgres notifications into background work.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

const (
	ChannelItemLinked = "plaid_item_linked"

	reconnectInterval = 5 * time.Second
	pingInterval      = 90 * time.Second
)

var errMissingUser = errors.New("notification payload has no user_id")

// ItemLinked is the payload the plaid_items insert trigger sends.
type ItemLinked struct {
	UserID int64  `json:"user_id"`
	ItemID string `json:"item_id"`
}

// LinkHandler reacts to a newly linked institution.
type LinkHandler func(ctx context.Context, event ItemLinked)

// LinkListener delivers plaid_item_linked notifications to a handler. The
// notify is sent on commit, so the institution and its accounts are visible
// by the time the handler runs.
type LinkListener struct {
	connStr    string
	handle     LinkHandler
	shutdownCh chan struct{}
	done       chan struct{}
}

func NewLinkListener(connStr string, handle LinkHandler) *LinkListener {
	return &LinkListener{
		connStr:    connStr,
		handle:     handle,
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start listens in a background goroutine until Stop or ctx is done.
func (l *LinkListener) Start(ctx context.Context) {
	go l.listen(ctx)
	slog.Info("link notification listener started", "channel", ChannelItemLinked)
}

// Stop shuts the listener down and waits for it to exit.
func (l *LinkListener) Stop() {
	close(l.shutdownCh)
	<-l.done
	slog.Info("link notification listener stopped")
}

func (l *LinkListener) listen(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		default:
			l.connectAndListen(ctx)
		}

		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(reconnectInterval):
			slog.Info("reconnecting notification listener")
		}
	}
}

func (l *LinkListener) connectAndListen(ctx context.Context) {
	listener := pq.NewListener(l.connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			slog.Debug("notification listener connected")
		case pq.ListenerEventDisconnected:
			slog.Warn("notification listener disconnected", "error", err)
		case pq.ListenerEventReconnected:
			slog.Info("notification listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			slog.Warn("notification listener connection attempt failed", "error", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(ChannelItemLinked); err != nil {
		slog.Error("failed to listen", "channel", ChannelItemLinked, "error", err)
		return
	}

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case n := <-listener.Notify:
			if n == nil {
				// connection lost; pq re-subscribes but notifications in the gap are gone
				continue
			}
			l.dispatch(ctx, n)
		case <-time.After(pingInterval):
			go func() {
				if err := listener.Ping(); err != nil {
					slog.Warn("notification listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (l *LinkListener) dispatch(ctx context.Context, n *pq.Notification) {
	event, err := parseItemLinked(n.Extra)
	if err != nil {
		slog.Warn("ignoring malformed notification", "channel", n.Channel, "error", err)
		return
	}
	l.handle(ctx, event)
}

func parseItemLinked(payload string) (ItemLinked, error) {
	var event ItemLinked
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return ItemLinked{}, err
	}
	if event.UserID == 0 {
		return ItemLinked{}, errMissingUser
	}
	return event, nil
}
