package user

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZJUSCT/CSArena/internal/pubsub"
	"github.com/gorilla/websocket"
)

func TestContestStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	local := pubsub.NewLocal(s.broker)
	if err := local.Publish(context.Background(), pubsub.NewEvent(pubsub.EventQuestionAdded, "live", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/contests/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	read := func() pubsub.WsMessage {
		t.Helper()
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg pubsub.WsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msg
	}

	if msg := read(); msg.Stream != pubsub.EventQuestionAdded {
		t.Fatalf("expected replayed %s, got %s", pubsub.EventQuestionAdded, msg.Stream)
	}

	if err := local.Publish(context.Background(), pubsub.NewEvent(pubsub.EventContestCompleted, "live", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if msg := read(); msg.Stream != pubsub.EventContestCompleted {
		t.Fatalf("expected %s, got %s", pubsub.EventContestCompleted, msg.Stream)
	}
	if msg := read(); msg.Stream != "info" {
		t.Fatalf("expected the stream to be closed, got %s", msg.Stream)
	}
}

func TestContestStreamUnknownContest(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/contests/missing"
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatalf("expected the handshake to be refused")
	}
}
