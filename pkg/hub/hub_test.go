package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

// fakeConn is an in-memory Conn. Reads block until Close.
type fakeConn struct {
	written chan []byte
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{written: make(chan []byte, 64), closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(mt int, data []byte) error {
	select {
	case <-f.closed:
		return errors.New("closed")
	default:
	}
	if mt == websocket.TextMessage {
		f.written <- data
	}
	return nil
}

func (f *fakeConn) SetReadLimit(int64) {}
func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) Close() error { f.once.Do(func() { close(f.closed) }); return nil }

func runHub(t *testing.T) *Hub {
	t.Helper()
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *fakeConn) Envelope {
	t.Helper()
	select {
	case data := <-c.written:
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("bad envelope %q: %v", data, err)
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return Envelope{}
	}
}

func TestPublish_ReachesSubscribers(t *testing.T) {
	h := runHub(t)

	a, b := newFakeConn(), newFakeConn()
	go NewClient(h, a, nil).Run()
	go NewClient(h, b, nil).Run()
	waitFor(t, "two subscribers", func() bool { return h.ClientCount() == 2 })

	if err := h.Publish("point", map[string]float64{"x": 1}); err != nil {
		t.Fatal(err)
	}

	for _, c := range []*fakeConn{a, b} {
		if env := receive(t, c); env.Type != "point" {
			t.Errorf("Type = %q, want point", env.Type)
		}
	}
}

func TestNewClient_GreetingFirst(t *testing.T) {
	h := runHub(t)

	greeting, err := Encode("status", map[string]bool{"scanning": true})
	if err != nil {
		t.Fatal(err)
	}
	c := newFakeConn()
	go NewClient(h, c, greeting).Run()
	waitFor(t, "subscriber", func() bool { return h.ClientCount() == 1 })
	h.Publish("sweep", nil)

	if env := receive(t, c); env.Type != "status" {
		t.Errorf("first message = %q, want status", env.Type)
	}
	if env := receive(t, c); env.Type != "sweep" {
		t.Errorf("second message = %q, want sweep", env.Type)
	}
}

func TestClose_Unregisters(t *testing.T) {
	h := runHub(t)

	c := newFakeConn()
	go NewClient(h, c, nil).Run()
	waitFor(t, "subscriber", func() bool { return h.ClientCount() == 1 })

	c.Close()
	waitFor(t, "unregister", func() bool { return h.ClientCount() == 0 })
}

func TestSlowSubscriberDropped(t *testing.T) {
	h := runHub(t)

	// Registered but never pumped, so its buffer fills up.
	NewClient(h, newFakeConn(), nil)
	waitFor(t, "subscriber", func() bool { return h.ClientCount() == 1 })

	waitFor(t, "slow subscriber drop", func() bool {
		for i := 0; i < 64; i++ {
			h.Broadcast([]byte(`{}`))
		}
		return h.ClientCount() == 0
	})
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	waitFor(t, "running", h.IsRunning)

	c := newFakeConn()
	client := NewClient(h, c, nil)
	clientDone := make(chan struct{})
	go func() {
		client.Run()
		close(clientDone)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	select {
	case <-clientDone:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not finish after the hub stopped")
	}
	if h.IsRunning() {
		t.Error("IsRunning after shutdown")
	}
	select {
	case <-h.Done():
	default:
		t.Error("Done not closed after shutdown")
	}
}

func TestNewClient_AfterStop(t *testing.T) {
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Run(ctx)

	registered := make(chan *Client)
	go func() { registered <- NewClient(h, newFakeConn(), nil) }()

	var client *Client
	select {
	case client = <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("NewClient blocked on a stopped hub")
	}

	finished := make(chan struct{})
	go func() {
		client.Run()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return for a client of a stopped hub")
	}
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", h.ClientCount())
	}
}
