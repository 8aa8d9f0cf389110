package expression

import (
	"strings"
	"testing"
	"time"

	models "visualexpr/internal/domain/models/expression"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub("ws-1", discardLogger())
	a := hub.AddClient("a")
	b := hub.AddClient("b")

	hub.Publish(models.NewChangedEvent(models.Evaluation{Expression: "1 + 2", Result: 3.0}))

	want := "event: expression-changed\ndata: {\"expression\":\"1 + 2\",\"result\":3,\"errMsg\":\"\"}\n\n"
	for name, ch := range map[string]<-chan string{"a": a, "b": b} {
		select {
		case got := <-ch:
			if got != want {
				t.Errorf("client %s got %q, want %q", name, got, want)
			}
		default:
			t.Errorf("client %s received nothing", name)
		}
	}
}

func TestHubDropsForSlowClient(t *testing.T) {
	hub := NewHub("ws-1", discardLogger())
	ch := hub.AddClient("slow")

	for i := 0; i < clientBufferSize+5; i++ {
		hub.Publish(models.Event{Name: models.EventInited, Data: models.InitedPayload{MathLoaded: true}})
	}

	if len(ch) != clientBufferSize {
		t.Errorf("buffered %d events, want %d", len(ch), clientBufferSize)
	}
}

func TestHubRemoveClientClosesChannel(t *testing.T) {
	hub := NewHub("ws-1", discardLogger())
	ch := hub.AddClient("a")

	hub.RemoveClient("a")
	hub.RemoveClient("a")

	if _, ok := <-ch; ok {
		t.Error("channel still open after RemoveClient")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

func TestHubRegistryCleanup(t *testing.T) {
	reg := NewHubRegistry(time.Minute, time.Minute, discardLogger())

	idle := reg.Hub("idle")
	busy := reg.Hub("busy")
	busy.AddClient("c")

	reg.cleanup(idle.idleSince.Add(2 * time.Minute))

	if reg.Lookup("idle") != nil {
		t.Error("idle hub survived cleanup")
	}
	if reg.Lookup("busy") == nil {
		t.Error("hub with a client was removed")
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
}

func TestHubRegistrySubscribe(t *testing.T) {
	reg := NewHubRegistry(time.Minute, time.Minute, discardLogger())

	ch := reg.Subscribe("ws", "client")
	hub := reg.Lookup("ws")
	if hub == nil {
		t.Fatal("Subscribe did not create the hub")
	}

	hub.Notify(models.Event{Name: models.EventConstantsChanged, Data: models.ConstantsPayload{Constants: []string{"1"}}})
	msg := <-ch
	if !strings.HasPrefix(msg, "event: constants-changed\n") {
		t.Errorf("message = %q", msg)
	}

	reg.Remove("ws")
	if _, ok := <-ch; ok {
		t.Error("channel still open after Remove")
	}
	reg.Unsubscribe("ws", "client")
}
