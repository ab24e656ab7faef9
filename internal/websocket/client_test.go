// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsTestServer upgrades each request and hands the server side of the
// connection to handler on its own goroutine.
func wsTestServer(tb testing.TB, handler func(conn *websocket.Conn)) *httptest.Server {
	tb.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			tb.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func dial(tb testing.TB, server *httptest.Server) *websocket.Conn {
	tb.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		tb.Fatalf("dial %s: %v", wsURL, err)
	}
	return conn
}

func TestNewClient(t *testing.T) {
	hub := NewHub()

	server := wsTestServer(t, func(conn *websocket.Conn) {
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	if client.hub != hub {
		t.Error("hub not wired")
	}
	if client.conn != conn {
		t.Error("connection not wired")
	}
	if cap(client.send) != sendBuffer {
		t.Errorf("send queue capacity = %d, want %d", cap(client.send), sendBuffer)
	}

	second := NewClient(hub, conn)
	if second.ID() <= client.ID() {
		t.Errorf("IDs must increase monotonically, got %d then %d", client.ID(), second.ID())
	}
}

func TestClient_SubscriptionFilter(t *testing.T) {
	client := createTestClient(NewHub())

	for _, mt := range []string{MessageTypeAssessment, MessageTypeAlert, MessageTypeStreamStatus} {
		if !client.wants(mt) {
			t.Errorf("new client should receive %s", mt)
		}
	}

	client.subscribe([]string{MessageTypeAlert, MessageTypeStreamStatus})
	if client.wants(MessageTypeAssessment) {
		t.Error("assessment should be filtered after subscribing to alerts")
	}
	if !client.wants(MessageTypeAlert) || !client.wants(MessageTypeStreamStatus) {
		t.Error("subscribed types should pass the filter")
	}

	client.subscribe(nil)
	if !client.wants(MessageTypeAssessment) {
		t.Error("empty subscribe should restore the full feed")
	}
}

func TestClient_HandleControl(t *testing.T) {
	client := createTestClient(NewHub())

	client.handleControl(control{Type: MessageTypePing})
	select {
	case msg := <-client.send:
		if msg.Type != MessageTypePong {
			t.Errorf("ping reply type = %q, want %q", msg.Type, MessageTypePong)
		}
	default:
		t.Fatal("ping did not queue a pong")
	}

	client.handleControl(control{Type: MessageTypeSubscribe, Types: []string{MessageTypeAlert}})
	if client.wants(MessageTypeAssessment) {
		t.Error("subscribe control frame did not apply the filter")
	}
	if !client.wants(MessageTypeAlert) {
		t.Error("subscribed type rejected")
	}

	client.handleControl(control{Type: "telemetry"})
	select {
	case msg := <-client.send:
		t.Errorf("unknown control type queued %v", msg)
	default:
	}
}

func TestClient_WritePump_DeliversFrame(t *testing.T) {
	hub := NewHub()

	got := make(chan Message, 1)
	server := wsTestServer(t, func(conn *websocket.Conn) {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("read frame: %v", err)
			return
		}
		got <- msg
	})
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	go client.writePump()

	client.send <- Message{Type: MessageTypeStreamStatus, Data: map[string]bool{"running": true}}

	select {
	case msg := <-got:
		if msg.Type != MessageTypeStreamStatus {
			t.Errorf("frame type = %q, want %q", msg.Type, MessageTypeStreamStatus)
		}
		data, ok := msg.Data.(map[string]any)
		if !ok {
			t.Fatalf("frame data is %T, want an object", msg.Data)
		}
		if data["running"] != true {
			t.Errorf("data.running = %v, want true", data["running"])
		}
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}
}

func TestClient_ReadPump_PingPong(t *testing.T) {
	hub := startHub(t)

	gotPong := make(chan string, 1)
	server := wsTestServer(t, func(conn *websocket.Conn) {
		if err := conn.WriteJSON(map[string]string{"type": MessageTypePing}); err != nil {
			t.Errorf("write ping: %v", err)
			return
		}
		var pong Message
		if err := conn.ReadJSON(&pong); err != nil {
			t.Errorf("read pong: %v", err)
			return
		}
		gotPong <- pong.Type
	})
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	client.Start()

	select {
	case typ := <-gotPong:
		if typ != MessageTypePong {
			t.Errorf("reply type = %q, want %q", typ, MessageTypePong)
		}
	case <-time.After(time.Second):
		t.Fatal("no pong reply")
	}
}

func TestClient_ReadPump_ConnectionClose(t *testing.T) {
	hub := startHub(t)

	server := wsTestServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})
	defer server.Close()

	conn := dial(t, server)

	client := NewClient(hub, conn)
	registerClient(hub, client)
	if hub.GetClientCount() != 1 {
		t.Fatalf("client count = %d, want 1", hub.GetClientCount())
	}

	go client.readPump()

	// The read pump unregisters the client once the peer closes.
	deadline := time.After(time.Second)
	for hub.GetClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("client not unregistered after connection close")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestClient_ReadPump_OversizeFrame(t *testing.T) {
	hub := startHub(t)

	server := wsTestServer(t, func(conn *websocket.Conn) {
		big := strings.Repeat("x", maxControlBytes*2)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(big)); err != nil {
			return
		}
		// Hold the connection; the client drops it from its side.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	conn := dial(t, server)

	client := NewClient(hub, conn)
	registerClient(hub, client)
	go client.readPump()

	deadline := time.After(time.Second)
	for hub.GetClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("oversize frame did not drop the client")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestClient_WritePump_ChannelClose(t *testing.T) {
	hub := NewHub()

	gotClose := make(chan error, 1)
	server := wsTestServer(t, func(conn *websocket.Conn) {
		_, _, err := conn.ReadMessage()
		gotClose <- err
	})
	defer server.Close()

	conn := dial(t, server)

	client := NewClient(hub, conn)
	go client.writePump()
	close(client.send)

	select {
	case err := <-gotClose:
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			t.Errorf("peer saw %v, want a normal closure frame", err)
		}
	case <-time.After(time.Second):
		t.Fatal("peer never saw the close frame")
	}
}

func TestClient_SubscribeOverWire(t *testing.T) {
	hub := startHub(t)

	fenced := make(chan struct{}, 1)
	delivered := make(chan Message, 4)
	server := wsTestServer(t, func(conn *websocket.Conn) {
		sub := map[string]any{"type": MessageTypeSubscribe, "types": []string{MessageTypeAlert}}
		if err := conn.WriteJSON(sub); err != nil {
			t.Errorf("write subscribe: %v", err)
			return
		}
		// Control frames are processed in order, so the pong reply to this
		// ping proves the subscription is live before anything broadcasts.
		if err := conn.WriteJSON(map[string]string{"type": MessageTypePing}); err != nil {
			t.Errorf("write ping: %v", err)
			return
		}
		var pong Message
		if err := conn.ReadJSON(&pong); err != nil {
			t.Errorf("read pong: %v", err)
			return
		}
		fenced <- struct{}{}

		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			delivered <- msg
		}
	})
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	client.Start()
	registerClient(hub, client)

	select {
	case <-fenced:
	case <-time.After(time.Second):
		t.Fatal("subscription fence timed out")
	}

	// Broadcast order is preserved per client, so receiving the alert
	// first proves the assessment was filtered, not just delayed.
	a := testAssessment()
	hub.BroadcastAssessment(&a)
	hub.BroadcastAlert(testAlert())

	select {
	case msg := <-delivered:
		if msg.Type != MessageTypeAlert {
			t.Errorf("first delivered type = %q, want %q", msg.Type, MessageTypeAlert)
		}
	case <-time.After(time.Second):
		t.Fatal("alert not delivered")
	}
}

func TestClient_Integration(t *testing.T) {
	hub := startHub(t)

	delivered := make(chan Message, 10)
	server := wsTestServer(t, func(conn *websocket.Conn) {
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			delivered <- msg
		}
	})
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	client.Start()
	registerClient(hub, client)

	a := testAssessment()
	hub.BroadcastAssessment(&a)

	select {
	case msg := <-delivered:
		if msg.Type != MessageTypeAssessment {
			t.Errorf("frame type = %q, want %q", msg.Type, MessageTypeAssessment)
		}
		data, ok := msg.Data.(map[string]any)
		if !ok {
			t.Fatalf("frame data is %T, want an object", msg.Data)
		}
		if data["threat_level"] != "CRITICAL" {
			t.Errorf("threat_level on the wire = %v, want CRITICAL", data["threat_level"])
		}
		if data["source"] != "camera-north" {
			t.Errorf("source on the wire = %v, want camera-north", data["source"])
		}
	case <-time.After(time.Second):
		t.Fatal("assessment not delivered")
	}
}

func BenchmarkClient_Enqueue(b *testing.B) {
	hub := NewHub()

	server := wsTestServer(b, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	conn := dial(b, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	go client.writePump()

	message := Message{Type: MessageTypeAlert, Data: testAlert()}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		select {
		case client.send <- message:
		default:
		}
	}
}
