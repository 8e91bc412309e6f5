package core

import (
	"context"
	"fmt"
	"testing"
	"time"
)

const testListenAddr = "/ip4/127.0.0.1/tcp/0"

func newTestSwarm(t *testing.T, ctx context.Context, w *Wallet, topic string) *Swarm {
	t.Helper()
	s, err := NewSwarm(ctx, w, testListenAddr, topic)
	if err != nil {
		t.Fatalf("swarm: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// listenAddrOf waits for the swarm's listening event and builds a dialable
// peer multiaddress from it.
func listenAddrOf(t *testing.T, s *Swarm) string {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-s.Events():
			if ev.ListenAddr != nil {
				return fmt.Sprintf("%s/p2p/%s", ev.ListenAddr, s.ID())
			}
		case <-deadline:
			t.Fatalf("no listen address event")
		}
	}
}

func TestSwarmPublishReachesPeer(t *testing.T) {
	if testing.Short() {
		t.Skip("networked test")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topic := fmt.Sprintf("bchain-test-%d", time.Now().UnixNano())
	alice := newTestSwarm(t, ctx, newTestWallet(t), topic)
	bob := newTestSwarm(t, ctx, newSecondTestWallet(t), topic)

	if err := bob.Dial(ctx, listenAddrOf(t, alice)); err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitFor(t, 10*time.Second, func() bool { return alice.PeerCount() > 0 && bob.PeerCount() > 0 })

	payload := []byte(`"Unrecognized"`)
	received := make(chan struct{})
	go func() {
		for ev := range bob.Events() {
			if ev.Message != nil && string(ev.Message.Data) == string(payload) {
				close(received)
				return
			}
		}
	}()

	// The gossip mesh needs a moment after connecting; keep publishing until
	// the message lands or the deadline passes.
	deadline := time.After(15 * time.Second)
	for {
		if err := alice.Publish(payload); err != nil {
			t.Logf("publish: %v", err)
		}
		select {
		case <-received:
			return
		case <-deadline:
			t.Fatalf("message never reached peer")
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func TestSwarmRejectsInvalidListenAddr(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := NewSwarm(ctx, newTestWallet(t), "not a multiaddr", "topic"); err == nil {
		t.Fatalf("expected error for invalid listen address")
	}
}

func TestSwarmDialRejectsInvalidAddr(t *testing.T) {
	if testing.Short() {
		t.Skip("networked test")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newTestSwarm(t, ctx, newTestWallet(t), fmt.Sprintf("bchain-test-%d", time.Now().UnixNano()))
	if err := s.Dial(ctx, ":://"); err == nil {
		t.Fatalf("expected error for malformed peer address")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
