// Package observer subscribes to the window server's notification stream
// and translates wire events into typed events for the tiling manager.
// System processes that never host tileable windows are filtered before
// subscription.
package observer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stridewm/stride/internal/bridge"
	"github.com/stridewm/stride/internal/errs"
	"github.com/stridewm/stride/internal/logging"
	"github.com/stridewm/stride/internal/models"
	"github.com/stridewm/stride/internal/types"
)

// System processes excluded from per-app observer registration. Watching
// these wastes registration slots and produces notification noise.
var skipBundleIDs = map[string]bool{
	"com.apple.dock":                  true,
	"com.apple.WindowManager":         true,
	"com.apple.notificationcenterui":  true,
	"com.apple.systemuiserver":        true,
	"com.apple.controlcenter":         true,
	"com.apple.Spotlight":             true,
	"com.apple.loginwindow":           true,
	"com.apple.screencaptureui":       true,
	"com.apple.TextInputMenuAgent":    true,
	"com.apple.universalaccessauthui": true,
}

var skipAppNames = map[string]bool{
	"Dock":                true,
	"Window Server":       true,
	"WindowManager":       true,
	"Notification Center": true,
	"Control Center":      true,
	"Spotlight":           true,
	"loginwindow":         true,
	"screencaptureui":     true,
}

const (
	registerRetries  = 3
	registerInterval = 100 * time.Millisecond
	reconnectBackoff = time.Second
)

// ShouldSkip reports whether a process should never be observed.
func ShouldSkip(appName, bundleID string) bool {
	return skipBundleIDs[bundleID] || skipAppNames[appName]
}

// Observer owns the event-stream connection and the watched-app set.
type Observer struct {
	socketPath string
	events     chan Event
	// extraSkip holds user-configured ignore entries, merged with the
	// built-in system skip lists.
	extraSkipApps    map[string]bool
	extraSkipBundles map[string]bool
}

// New creates an observer delivering into an internal buffered channel.
func New(socketPath string, ignoreApps, ignoreBundleIDs []string) *Observer {
	if socketPath == "" {
		socketPath = bridge.DefaultSocketPath
	}
	o := &Observer{
		socketPath:       socketPath,
		events:           make(chan Event, 256),
		extraSkipApps:    make(map[string]bool, len(ignoreApps)),
		extraSkipBundles: make(map[string]bool, len(ignoreBundleIDs)),
	}
	for _, name := range ignoreApps {
		o.extraSkipApps[name] = true
	}
	for _, id := range ignoreBundleIDs {
		o.extraSkipBundles[id] = true
	}
	return o
}

// Events returns the typed event stream. Single consumer: the manager's
// event loop.
func (o *Observer) Events() <-chan Event {
	return o.events
}

// skip merges built-in and configured skip lists.
func (o *Observer) skip(appName, bundleID string) bool {
	return ShouldSkip(appName, bundleID) || o.extraSkipApps[appName] || o.extraSkipBundles[bundleID]
}

// Serve runs the subscription loop until the context is cancelled,
// reconnecting with backoff when the server drops the stream.
// Implements suture.Service.
func (o *Observer) Serve(ctx context.Context) error {
	for {
		err := o.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn().Err(err).Msg("event stream lost, reconnecting")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectBackoff):
		}
	}
}

func (o *Observer) runOnce(ctx context.Context) error {
	conn := bridge.NewConnection(o.socketPath, bridge.DefaultTimeout)
	if err := conn.Connect(); err != nil {
		return fmt.Errorf("event stream connect: %w", err)
	}
	defer conn.Close()

	resp, err := conn.SendRequest(ctx, models.NewRequest(uuid.New().String(), "subscribe", map[string]interface{}{
		"events": []string{"window", "app", "screen", "mouse"},
	}))
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("subscribe rejected: %s", resp.GetError())
	}

	logging.Info().Str("socket", o.socketPath).Msg("subscribed to window server events")

	for {
		envelope, err := conn.ReadEnvelope(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if envelope.Type != "event" || envelope.Event == nil {
			continue
		}

		ev, ok := parseEvent(envelope.Event)
		if !ok {
			logging.Debug().Str("eventType", envelope.Event.EventType).Msg("unknown event type dropped")
			continue
		}
		if ev.AppName != "" || ev.BundleID != "" {
			if o.skip(ev.AppName, ev.BundleID) {
				continue
			}
		}

		select {
		case o.events <- ev:
		default:
			// A full buffer means the consumer stalled. Geometry events
			// are re-synced on interaction end, so dropping is safe.
			logging.Warn().Str("kind", ev.Kind.String()).Msg("event buffer full, dropping")
		}
	}
}

// Registrar registers per-app observer notifications. Satisfied by the
// bridge.
type Registrar interface {
	WatchApp(ctx context.Context, pid types.PID) error
}

// WatchApp registers per-app notifications with bounded retries. Freshly
// launched processes are not immediately observable, so transient failures
// retry; persistent failure means the app simply is not tiled.
func (o *Observer) WatchApp(ctx context.Context, reg Registrar, pid types.PID, appName, bundleID string) error {
	if o.skip(appName, bundleID) {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < registerRetries; attempt++ {
		lastErr = reg.WatchApp(ctx, pid)
		if lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(registerInterval):
		}
	}

	logging.Warn().
		Int32("pid", int32(pid)).
		Str("app", appName).
		Err(lastErr).
		Msg("observer registration failed, app will not be tiled")
	return &errs.ObserverError{PID: int32(pid), Reason: lastErr.Error()}
}
