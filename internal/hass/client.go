package hass

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/openkairo/growdeck/internal/logging"
)

const (
	// DefaultHandshakeTimeout bounds the dial and auth exchange
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultCommandTimeout bounds a single command round-trip
	DefaultCommandTimeout = 15 * time.Second

	// reconnectDelay is the initial delay before a reconnect attempt
	reconnectDelay = 1 * time.Second

	// reconnectDelayMax caps the reconnect backoff
	reconnectDelayMax = 30 * time.Second
)

// CommandError is a command rejection returned by the server.
type CommandError struct {
	Code    string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command failed: %s (%s)", e.Message, e.Code)
}

// Client is a Home Assistant websocket API client.
//
// A single reader goroutine owns the connection's receive side and routes
// result frames to pending callers by command id. State changes from the
// event subscription land in an in-memory cache; interested parties poll
// the cache after draining the coalesced Signal channel.
type Client struct {
	baseURL string
	token   string

	HandshakeTimeout time.Duration

	writeMu sync.Mutex
	conn    *websocket.Conn

	nextID  atomic.Uint64
	pending map[uint64]chan wsMessage
	pendMu  sync.Mutex

	states  map[string]*State
	stateMu sync.RWMutex

	signal chan struct{}

	versionMu     sync.Mutex
	serverVersion string

	closed atomic.Bool
	done   chan struct{}
}

// NewClient creates a client for the given base URL (e.g.
// "http://homeassistant.local:8123") and long-lived access token.
// Connect must be called before any command.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		token:            token,
		HandshakeTimeout: DefaultHandshakeTimeout,
		pending:          make(map[uint64]chan wsMessage),
		states:           make(map[string]*State),
		signal:           make(chan struct{}, 1),
		done:             make(chan struct{}),
	}
}

// ServerVersion returns the Home Assistant version reported during the
// auth handshake, empty before the first successful connect.
func (c *Client) ServerVersion() string {
	c.versionMu.Lock()
	defer c.versionMu.Unlock()
	return c.serverVersion
}

// websocketURL derives the websocket endpoint from the base URL.
func (c *Client) websocketURL() string {
	url := c.baseURL
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/api/websocket"
}

// Connect dials the websocket endpoint, performs the auth handshake,
// subscribes to state_changed events, and starts the reader goroutine.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	c.conn = conn

	go c.readLoop(conn)

	if err := c.subscribeStateChanges(ctx); err != nil {
		c.Close()
		return fmt.Errorf("failed to subscribe to state changes: %w", err)
	}

	return nil
}

// dial establishes the connection and runs the auth exchange.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.websocketURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", c.websocketURL(), err)
	}

	deadline := time.Now().Add(c.HandshakeTimeout)
	_ = conn.SetReadDeadline(deadline)

	// Server speaks first: auth_required
	var hello wsMessage
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read auth_required: %w", err)
	}
	if hello.Type != "auth_required" {
		conn.Close()
		return nil, fmt.Errorf("unexpected handshake message type %q", hello.Type)
	}

	if err := conn.WriteJSON(map[string]string{
		"type":         "auth",
		"access_token": c.token,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send auth: %w", err)
	}

	var reply wsMessage
	if err := conn.ReadJSON(&reply); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read auth reply: %w", err)
	}
	switch reply.Type {
	case "auth_ok":
		c.versionMu.Lock()
		c.serverVersion = reply.Version
		c.versionMu.Unlock()
		logging.Info("Authenticated with Home Assistant",
			zap.String("version", reply.Version))
	case "auth_invalid":
		conn.Close()
		return nil, fmt.Errorf("authentication rejected: %s", reply.Message)
	default:
		conn.Close()
		return nil, fmt.Errorf("unexpected auth reply type %q", reply.Type)
	}

	_ = conn.SetReadDeadline(time.Time{})
	return conn, nil
}

// readLoop is the single reader for the connection. It routes results to
// pending commands and state_changed events into the cache, and kicks off
// a reconnect when the connection drops.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if c.closed.Load() {
				return
			}
			logging.Warn("Websocket read failed, reconnecting", zap.Error(err))
			c.failPending(err)
			c.reconnect()
			return
		}

		switch msg.Type {
		case "result":
			c.deliver(msg)
		case "event":
			c.handleEvent(msg.Event)
		case "pong":
			c.deliver(msg)
		}
	}
}

// deliver hands a result frame to the caller waiting on its id.
func (c *Client) deliver(msg wsMessage) {
	c.pendMu.Lock()
	ch, ok := c.pending[msg.ID]
	if ok {
		delete(c.pending, msg.ID)
	}
	c.pendMu.Unlock()
	if ok {
		ch <- msg
	}
}

// failPending unblocks every in-flight command with a connection error.
func (c *Client) failPending(err error) {
	c.pendMu.Lock()
	defer c.pendMu.Unlock()
	for id, ch := range c.pending {
		ch <- wsMessage{ID: id, Type: "result", Success: false,
			Error: &wsError{Code: "connection_lost", Message: err.Error()}}
		delete(c.pending, id)
	}
}

// handleEvent updates the state cache and notifies the signal channel.
func (c *Client) handleEvent(ev *wsEvent) {
	if ev == nil || ev.EventType != "state_changed" {
		return
	}

	var change stateChangedEvent
	if err := json.Unmarshal(ev.Data, &change); err != nil {
		logging.Debug("Failed to decode state_changed event", zap.Error(err))
		return
	}

	c.stateMu.Lock()
	if change.NewState == nil {
		delete(c.states, change.EntityID)
	} else {
		c.states[change.EntityID] = change.NewState
	}
	c.stateMu.Unlock()

	// Coalesce: one pending tick is enough
	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// reconnect redials with backoff until the connection is back or the
// client is closed, then re-subscribes.
func (c *Client) reconnect() {
	delay := reconnectDelay
	for {
		if c.closed.Load() {
			return
		}
		time.Sleep(delay)
		if delay *= 2; delay > reconnectDelayMax {
			delay = reconnectDelayMax
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.HandshakeTimeout)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			logging.Warn("Reconnect attempt failed", zap.Error(err))
			continue
		}

		c.writeMu.Lock()
		c.conn = conn
		c.writeMu.Unlock()

		go c.readLoop(conn)

		ctx, cancel = context.WithTimeout(context.Background(), DefaultCommandTimeout)
		err = c.subscribeStateChanges(ctx)
		cancel()
		if err != nil {
			logging.Warn("Re-subscribe failed", zap.Error(err))
			continue
		}

		logging.Info("Websocket reconnected")
		return
	}
}

// Close shuts the connection down. Pending commands fail.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Signal returns the coalesced state-change notification channel.
// Receivers should read the cache after draining a tick.
func (c *Client) Signal() <-chan struct{} {
	return c.signal
}

// StateOf returns the cached state for an entity, nil when unknown.
func (c *Client) StateOf(entityID string) *State {
	if entityID == "" {
		return nil
	}
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.states[entityID]
}

// call sends a command and waits for its result frame.
func (c *Client) call(ctx context.Context, command map[string]any) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	command["id"] = id

	ch := make(chan wsMessage, 1)
	c.pendMu.Lock()
	c.pending[id] = ch
	c.pendMu.Unlock()

	msgType, _ := command["type"].(string)
	start := time.Now()

	c.writeMu.Lock()
	conn := c.conn
	var err error
	if conn == nil {
		err = fmt.Errorf("not connected")
	} else {
		err = conn.WriteJSON(command)
	}
	c.writeMu.Unlock()
	if err != nil {
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
		return nil, fmt.Errorf("failed to send %s: %w", msgType, err)
	}

	select {
	case msg := <-ch:
		if !msg.Success {
			cmdErr := &CommandError{Code: "unknown_error", Message: "no error detail"}
			if msg.Error != nil {
				cmdErr = &CommandError{Code: msg.Error.Code, Message: msg.Error.Message}
			}
			logging.LogCommand(id, msgType, time.Since(start), cmdErr)
			return nil, cmdErr
		}
		logging.LogCommand(id, msgType, time.Since(start), nil)
		return msg.Result, nil
	case <-ctx.Done():
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("client closed")
	}
}

// subscribeStateChanges subscribes to the state_changed event bus.
func (c *Client) subscribeStateChanges(ctx context.Context) error {
	_, err := c.call(ctx, map[string]any{
		"type":       "subscribe_events",
		"event_type": "state_changed",
	})
	return err
}

// ListDevices returns the device registry.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	result, err := c.call(ctx, map[string]any{"type": "config/device_registry/list"})
	if err != nil {
		return nil, err
	}
	var devices []Device
	if err := json.Unmarshal(result, &devices); err != nil {
		return nil, fmt.Errorf("failed to decode device registry: %w", err)
	}
	return devices, nil
}

// ListEntities returns the entity registry.
func (c *Client) ListEntities(ctx context.Context) ([]Entity, error) {
	result, err := c.call(ctx, map[string]any{"type": "config/entity_registry/list"})
	if err != nil {
		return nil, err
	}
	var entities []Entity
	if err := json.Unmarshal(result, &entities); err != nil {
		return nil, fmt.Errorf("failed to decode entity registry: %w", err)
	}
	return entities, nil
}

// ListConfigEntries returns config entries, filtered to a domain when
// domain is non-empty.
func (c *Client) ListConfigEntries(ctx context.Context, domain string) ([]ConfigEntry, error) {
	command := map[string]any{"type": "config_entries/get"}
	if domain != "" {
		command["domain"] = domain
	}
	result, err := c.call(ctx, command)
	if err != nil {
		return nil, err
	}
	var entries []ConfigEntry
	if err := json.Unmarshal(result, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode config entries: %w", err)
	}
	return entries, nil
}

// GetConfig fetches the full option map of a config entry.
func (c *Client) GetConfig(ctx context.Context, entryID string) (map[string]any, error) {
	result, err := c.call(ctx, map[string]any{
		"type":     "growdeck/get_config",
		"entry_id": entryID,
	})
	if err != nil {
		return nil, err
	}
	var payload struct {
		Config map[string]any `json:"config"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return payload.Config, nil
}

// UpdateConfig sends a merge patch for a config entry's options and
// returns the keys the server actually applied.
func (c *Client) UpdateConfig(ctx context.Context, entryID string, patch map[string]any) (map[string]any, error) {
	logging.LogConfigPatch(entryID, len(patch))
	result, err := c.call(ctx, map[string]any{
		"type":     "growdeck/update_config",
		"entry_id": entryID,
		"options":  patch,
	})
	if err != nil {
		return nil, err
	}
	var payload struct {
		Options map[string]any `json:"options"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode update result: %w", err)
	}
	return payload.Options, nil
}

// UploadImage pushes a chamber photo and returns the new version token.
func (c *Client) UploadImage(ctx context.Context, deviceID, entryID string, data []byte) (string, error) {
	result, err := c.call(ctx, map[string]any{
		"type":      "growdeck/upload_image",
		"device_id": deviceID,
		"entry_id":  entryID,
		"image":     base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return "", err
	}
	var payload struct {
		Version json.Number `json:"version"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return "", fmt.Errorf("failed to decode upload result: %w", err)
	}
	return payload.Version.String(), nil
}

// Events queries the logbook for the given entities since start.
func (c *Client) Events(ctx context.Context, start time.Time, entityIDs []string) ([]Event, error) {
	result, err := c.call(ctx, map[string]any{
		"type":       "logbook/get_events",
		"start_time": start.UTC().Format(time.RFC3339),
		"entity_ids": entityIDs,
	})
	if err != nil {
		return nil, err
	}
	var events []Event
	if err := json.Unmarshal(result, &events); err != nil {
		return nil, fmt.Errorf("failed to decode logbook events: %w", err)
	}
	return events, nil
}

// Toggle flips a switch/light entity via the homeassistant.toggle service.
func (c *Client) Toggle(ctx context.Context, entityID string) error {
	_, err := c.call(ctx, map[string]any{
		"type":    "call_service",
		"domain":  "homeassistant",
		"service": "toggle",
		"target":  map[string]any{"entity_id": entityID},
	})
	return err
}
