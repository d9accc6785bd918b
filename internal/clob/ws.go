package clob

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/pkg/types"
)

// BookUpdate is one message from the CLOB market channel.
type BookUpdate struct {
	EventType string        `json:"event_type"`
	AssetID   string        `json:"asset_id"`
	Market    string        `json:"market"`
	Asks      []types.Level `json:"asks,omitempty"`
	Bids      []types.Level `json:"bids,omitempty"`
}

// BookWatcher streams live book updates for a set of tokens. Diagnostic use
// only; the engine itself polls books per depth check.
type BookWatcher struct {
	wsURL  string
	logger *zap.Logger
	conn   *websocket.Conn
}

// NewBookWatcher creates a watcher for the given market-channel endpoint.
func NewBookWatcher(wsURL string, logger *zap.Logger) *BookWatcher {
	return &BookWatcher{wsURL: wsURL, logger: logger}
}

// Connect dials the endpoint and subscribes to the given token ids.
func (w *BookWatcher) Connect(ctx context.Context, tokenIDs []string) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.wsURL, err)
	}
	w.conn = conn

	subscribe := map[string]interface{}{
		"assets_ids": tokenIDs,
		"type":       "market",
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe message: %w", err)
	}

	w.logger.Info("book-watch-subscribed",
		zap.String("url", w.wsURL),
		zap.Int("tokens", len(tokenIDs)))

	return nil
}

// Next blocks for the next book update. The endpoint sends either a single
// message or a batch array.
func (w *BookWatcher) Next() ([]BookUpdate, error) {
	if w.conn == nil {
		return nil, fmt.Errorf("not connected")
	}

	_, payload, err := w.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	if len(payload) > 0 && payload[0] == '[' {
		var updates []BookUpdate
		if err := json.Unmarshal(payload, &updates); err != nil {
			return nil, fmt.Errorf("unmarshal batch: %w", err)
		}
		return updates, nil
	}

	var update BookUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return nil, fmt.Errorf("unmarshal update: %w", err)
	}

	return []BookUpdate{update}, nil
}

// Close closes the connection.
func (w *BookWatcher) Close() error {
	if w.conn == nil {
		return nil
	}

	return w.conn.Close()
}
