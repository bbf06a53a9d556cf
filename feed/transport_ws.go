package feed

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

// wireUpdate is the JSON frame shape read off the websocket transport.
type wireUpdate struct {
	Pubkey       [32]byte `json:"pubkey"`
	Data         string   `json:"data"` // base64
	WriteVersion uint64   `json:"write_version"`
	Slot         uint64   `json:"slot"`
}

// WSTransport is a Transport backed by a single gorilla/websocket
// connection to a change-feed endpoint emitting JSON account-update frames.
type WSTransport struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	conn   *websocket.Conn
}

// NewWSTransport builds a transport dialing url on each Connect call.
func NewWSTransport(url string, header http.Header) *WSTransport {
	return &WSTransport{url: url, header: header, dialer: websocket.DefaultDialer}
}

// Connect dials the websocket endpoint, replacing any prior connection.
func (t *WSTransport) Connect(ctx context.Context) error {
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	dialer := *t.dialer
	conn, _, err := dialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

// Recv reads the next JSON account-update frame. The ctx deadline, if
// any, becomes the connection's read deadline; cancelling ctx does not
// interrupt a read in progress.
func (t *WSTransport) Recv(ctx context.Context) (AccountUpdate, error) {
	if t.conn == nil {
		return AccountUpdate{}, websocket.ErrBadHandshake
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetReadDeadline(deadline)
	}

	_, raw, err := t.conn.ReadMessage()
	if err != nil {
		return AccountUpdate{}, err
	}

	var wire wireUpdate
	if err := json.Unmarshal(raw, &wire); err != nil {
		return AccountUpdate{}, err
	}
	data, err := base64.StdEncoding.DecodeString(wire.Data)
	if err != nil {
		return AccountUpdate{}, err
	}
	return AccountUpdate{
		Pubkey:       wire.Pubkey,
		Data:         data,
		WriteVersion: wire.WriteVersion,
		Slot:         wire.Slot,
	}, nil
}

// Close closes the underlying connection, if any.
func (t *WSTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
