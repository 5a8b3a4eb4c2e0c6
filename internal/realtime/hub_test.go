package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"journal-backend/internal/service"
)

// fakeConn feeds reads from a channel and records writes.
type fakeConn struct {
	reads  chan []byte
	mu     sync.Mutex
	writes [][]byte
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{reads: make(chan []byte, 4)}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	msg, ok := <-f.reads
	if !ok {
		return 0, nil, errors.New("closed")
	}
	return 1, msg, nil
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, 0, len(f.writes))
	for _, w := range f.writes {
		var m Message
		_ = json.Unmarshal(w, &m)
		out = append(out, m)
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubPublishesToUserConnections(t *testing.T) {
	hub := NewHub()
	mine, theirs := newFakeConn(), newFakeConn()

	done := make(chan struct{}, 2)
	go func() { hub.Serve("u1", mine); done <- struct{}{} }()
	go func() { hub.Serve("u2", theirs); done <- struct{}{} }()
	waitFor(t, func() bool { return hub.ConnectedUsers() == 2 })

	hub.Publish("u1", service.ChangeEvent{Type: service.ChangeUpdated, Resource: service.ResourceEntry, Date: "2024-03-10"})
	waitFor(t, func() bool { return len(mine.messages()) == 1 })

	if got := mine.messages()[0]; got.Type != "change" {
		t.Errorf("message type = %q", got.Type)
	}
	if len(theirs.messages()) != 0 {
		t.Error("change leaked to another user")
	}

	close(mine.reads)
	close(theirs.reads)
	<-done
	<-done
	if hub.ConnectedUsers() != 0 {
		t.Errorf("connected users = %d after close", hub.ConnectedUsers())
	}
	if !mine.closed {
		t.Error("connection not closed")
	}
}

func TestHubAnswersPing(t *testing.T) {
	hub := NewHub()
	conn := newFakeConn()
	done := make(chan struct{})
	go func() { hub.Serve("u1", conn); close(done) }()

	conn.reads <- []byte(`{"type":"ping"}`)
	waitFor(t, func() bool { return len(conn.messages()) == 1 })
	if conn.messages()[0].Type != "pong" {
		t.Errorf("reply = %+v", conn.messages()[0])
	}

	close(conn.reads)
	<-done
}

func TestPublishWithoutClients(t *testing.T) {
	NewHub().Publish("nobody", service.ChangeEvent{Type: service.ChangeDeleted})
}
