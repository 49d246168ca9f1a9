package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func recv(t *testing.T, ch chan []byte) Message {
	t.Helper()
	select {
	case data := <-ch:
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		return m
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestBroadcastToObservers(t *testing.T) {
	h := NewHub()

	observer := &Connection{IsObserver: true, Send: make(chan []byte, 4), Hub: h}
	player := &Connection{PlayerID: "p1", Send: make(chan []byte, 4), Hub: h}
	h.Register(observer)
	h.Register(player)

	h.BroadcastToObservers(string(MsgAdjustmentApplied), map[string]string{"playerId": "p1"})

	m := recv(t, observer.Send)
	if m.Type != MsgAdjustmentApplied {
		t.Errorf("type = %q, want %q", m.Type, MsgAdjustmentApplied)
	}

	select {
	case <-player.Send:
		t.Error("observer broadcast leaked to a player connection")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastToPlayerIsScoped(t *testing.T) {
	h := NewHub()

	p1 := &Connection{PlayerID: "p1", Send: make(chan []byte, 4), Hub: h}
	p2 := &Connection{PlayerID: "p2", Send: make(chan []byte, 4), Hub: h}
	h.Register(p1)
	h.Register(p2)

	h.BroadcastToPlayer("p1", string(MsgFlowPhaseChanged), map[string]string{"to": "declining"})

	m := recv(t, p1.Send)
	if m.Type != MsgFlowPhaseChanged {
		t.Errorf("type = %q, want %q", m.Type, MsgFlowPhaseChanged)
	}

	select {
	case <-p2.Send:
		t.Error("player broadcast leaked to another player")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := NewHub()

	observer := &Connection{IsObserver: true, Send: make(chan []byte, 4), Hub: h}
	h.Register(observer)
	h.Unregister(observer)

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-observer.Send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("send channel never closed")
		}
	}
}
