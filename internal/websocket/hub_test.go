package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, username string) *Client {
	return &Client{
		hub:      hub,
		conn:     nil,
		username: username,
		send:     make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, "marina")
	c2 := mockClient(hub, "alice")

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "marina")
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestSendTargetsRecipients(t *testing.T) {
	hub := NewHub(slog.Default())

	owner := mockClient(hub, "marina")
	grantee := mockClient(hub, "alice")
	stranger := mockClient(hub, "bob")
	hub.Register(owner)
	hub.Register(grantee)
	hub.Register(stranger)

	msg := NewMessage("transaction", "created", 42, 7, nil)
	hub.Send([]string{"marina", "alice"}, msg)

	for _, c := range []*Client{owner, grantee} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "transaction_created" {
				t.Errorf("expected type transaction_created, got %s", got.Type)
			}
			if got.ID != 42 || got.WalletID != 7 {
				t.Errorf("expected id 42 wallet 7, got %d/%d", got.ID, got.WalletID)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timeout waiting for message to %s", c.username)
		}
	}

	select {
	case <-stranger.send:
		t.Error("stranger should not receive the message")
	default:
	}
}

func TestSendReachesAllConnectionsOfUser(t *testing.T) {
	hub := NewHub(slog.Default())

	phone := mockClient(hub, "marina")
	laptop := mockClient(hub, "marina")
	hub.Register(phone)
	hub.Register(laptop)

	hub.Send([]string{"marina"}, NewMessage("wallet", "updated", 3, 3, nil))

	for _, c := range []*Client{phone, laptop} {
		select {
		case <-c.send:
		case <-time.After(100 * time.Millisecond):
			t.Fatal("all connections of a user should receive the message")
		}
	}
}

func TestSendEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	hub.Send([]string{"marina"}, NewMessage("share", "created", 1, 1, nil))
}

func TestSendFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, "marina")
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Send([]string{"marina"}, NewMessage("transaction", "created", int64(i), 1, nil))
	}

	// This should drop the message, not panic or block
	hub.Send([]string{"marina"}, NewMessage("transaction", "created", 999, 1, nil))

	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("wallet", "deleted", 5, 5, nil)
	if msg.Type != "wallet_deleted" {
		t.Errorf("expected type wallet_deleted, got %s", msg.Type)
	}
	if msg.Entity != "wallet" || msg.Action != "deleted" {
		t.Errorf("unexpected entity/action: %s/%s", msg.Entity, msg.Action)
	}
	if msg.ID != 5 {
		t.Errorf("expected id 5, got %d", msg.ID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, "marina")
			hub.Register(c)
			hub.Send([]string{"marina"}, NewMessage("transaction", "created", 0, 1, nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
