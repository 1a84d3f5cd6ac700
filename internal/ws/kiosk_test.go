package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mealpoint/kiosk-api/internal/ai"
	"github.com/mealpoint/kiosk-api/internal/config"
	"github.com/mealpoint/kiosk-api/internal/models"
	"github.com/mealpoint/kiosk-api/internal/service"
	"github.com/mealpoint/kiosk-api/internal/testutil"
)

// setupTestKioskHandler creates a KioskHandler over a seeded catalog, a real
// resolver, and a running Hub. The classifier is scripted per test.
func setupTestKioskHandler(classifier *testutil.MockClassifier) (*KioskHandler, *service.CartService) {
	repo := testutil.NewMockCatalogRepo()
	testutil.SeedCatalog(repo)
	catalog := service.NewCatalogService(&config.Config{}, repo, nil)
	cart := service.NewCartService()
	executor := service.NewCommandExecutor(catalog, cart)
	resolver := service.NewVoiceResolver(catalog, classifier, executor, &testutil.MockSpeaker{})

	hub := NewHub()
	go hub.Run()
	return NewKioskHandler(hub, resolver, cart, "ko-KR"), cart
}

// newTestClient creates a Client with a buffered Send channel and no real
// websocket.Conn. This works because the handler methods write to client.Send
// rather than Conn directly.
func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		Hub:       hub,
		Send:      make(chan []byte, 256),
		SessionID: sessionID,
	}
}

// readMessage reads a single WSMessage from the client's Send channel with a
// short timeout to prevent tests from hanging.
func readMessage(t *testing.T, client *Client) WSMessage {
	t.Helper()
	select {
	case data := <-client.Send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to unmarshal message from Send channel: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message on Send channel")
		return WSMessage{}
	}
}

// assertNoMoreMessages verifies nothing else is pending on the Send channel.
func assertNoMoreMessages(t *testing.T, client *Client) {
	t.Helper()
	select {
	case data := <-client.Send:
		t.Fatalf("unexpected extra message on Send channel: %s", string(data))
	case <-time.After(50 * time.Millisecond):
		// OK — nothing pending
	}
}

func rawMessage(t *testing.T, msgType string, payload interface{}) []byte {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		raw = data
	}
	data, err := json.Marshal(WSMessage{Type: msgType, Payload: raw})
	if err != nil {
		t.Fatalf("failed to marshal message: %v", err)
	}
	return data
}

func TestHandleMessage_VoiceStart(t *testing.T) {
	kh, _ := setupTestKioskHandler(&testutil.MockClassifier{})
	client := newTestClient(kh.Hub, "kiosk")

	kh.handleMessage(client, rawMessage(t, MsgTypeVoiceStart, nil))

	msg := readMessage(t, client)
	if msg.Type != MsgTypeVoiceResponse {
		t.Fatalf("type = %s, want %s", msg.Type, MsgTypeVoiceResponse)
	}
	var resp service.VoiceResponse
	if err := json.Unmarshal(msg.Payload, &resp); err != nil {
		t.Fatalf("failed to unmarshal voice response: %v", err)
	}
	if resp.State != service.StateListening {
		t.Errorf("state = %s, want listening", resp.State)
	}
	assertNoMoreMessages(t, client)
}

func TestHandleMessage_VoiceStop(t *testing.T) {
	kh, _ := setupTestKioskHandler(&testutil.MockClassifier{})
	client := newTestClient(kh.Hub, "kiosk")

	kh.Resolver.Start()
	kh.handleMessage(client, rawMessage(t, MsgTypeVoiceStop, nil))

	msg := readMessage(t, client)
	if msg.Type != MsgTypeVoiceState {
		t.Fatalf("type = %s, want %s", msg.Type, MsgTypeVoiceState)
	}
	if kh.Resolver.State() != service.StateIdle {
		t.Errorf("resolver state = %s, want idle", kh.Resolver.State())
	}
}

func TestHandleVoiceTranscript_AddItem(t *testing.T) {
	classifier := &testutil.MockClassifier{
		ClassifyFunc: func(_ context.Context, _ string, _ []models.MenuItem) (*ai.VoiceCommand, error) {
			return &ai.VoiceCommand{Intent: ai.IntentAddItem, Entity: "치킨버거", Quantity: 1, Confidence: 0.9}, nil
		},
	}
	kh, cart := setupTestKioskHandler(classifier)
	client := newTestClient(kh.Hub, "kiosk")

	kh.Resolver.Start()
	kh.handleMessage(client, rawMessage(t, MsgTypeVoiceTranscript, VoiceTranscriptPayload{Transcript: "치킨버거 주문"}))

	first := readMessage(t, client)
	if first.Type != MsgTypeVoiceResponse {
		t.Fatalf("first type = %s, want %s", first.Type, MsgTypeVoiceResponse)
	}
	second := readMessage(t, client)
	if second.Type != MsgTypeCartUpdate {
		t.Fatalf("second type = %s, want %s", second.Type, MsgTypeCartUpdate)
	}
	var cartUpdate CartUpdatePayload
	if err := json.Unmarshal(second.Payload, &cartUpdate); err != nil {
		t.Fatalf("failed to unmarshal cart update: %v", err)
	}
	if cartUpdate.Total != 5500 {
		t.Errorf("total = %d, want 5500", cartUpdate.Total)
	}
	if len(cart.Lines()) != 1 {
		t.Errorf("len(lines) = %d, want 1", len(cart.Lines()))
	}
	assertNoMoreMessages(t, client)
}

func TestHandleVoiceTranscript_HelpAddsShowHelpMessage(t *testing.T) {
	classifier := &testutil.MockClassifier{
		ClassifyFunc: func(_ context.Context, _ string, _ []models.MenuItem) (*ai.VoiceCommand, error) {
			return &ai.VoiceCommand{Intent: ai.IntentHelp, Confidence: 0.9}, nil
		},
	}
	kh, _ := setupTestKioskHandler(classifier)
	client := newTestClient(kh.Hub, "kiosk")

	kh.Resolver.Start()
	kh.handleMessage(client, rawMessage(t, MsgTypeVoiceTranscript, VoiceTranscriptPayload{Transcript: "도움말"}))

	readMessage(t, client) // voice_response
	readMessage(t, client) // cart_update
	third := readMessage(t, client)
	if third.Type != MsgTypeShowHelp {
		t.Errorf("type = %s, want %s", third.Type, MsgTypeShowHelp)
	}
}

func TestHandleVoiceTranscript_DuplicateProducesNothing(t *testing.T) {
	classifier := &testutil.MockClassifier{
		ClassifyFunc: func(_ context.Context, _ string, _ []models.MenuItem) (*ai.VoiceCommand, error) {
			return &ai.VoiceCommand{Intent: ai.IntentShowMenu, Confidence: 0.9}, nil
		},
	}
	kh, _ := setupTestKioskHandler(classifier)
	client := newTestClient(kh.Hub, "kiosk")

	kh.Resolver.Start()
	payload := VoiceTranscriptPayload{Transcript: "메뉴 보여줘"}
	kh.handleMessage(client, rawMessage(t, MsgTypeVoiceTranscript, payload))
	readMessage(t, client) // voice_response
	readMessage(t, client) // cart_update

	kh.handleMessage(client, rawMessage(t, MsgTypeVoiceTranscript, payload))
	assertNoMoreMessages(t, client)
}

func TestHandleMessage_InvalidJSON(t *testing.T) {
	kh, _ := setupTestKioskHandler(&testutil.MockClassifier{})
	client := newTestClient(kh.Hub, "kiosk")

	kh.handleMessage(client, []byte("not json"))

	msg := readMessage(t, client)
	if msg.Type != MsgTypeError {
		t.Errorf("type = %s, want %s", msg.Type, MsgTypeError)
	}
}

func TestHandleMessage_UnknownType(t *testing.T) {
	kh, _ := setupTestKioskHandler(&testutil.MockClassifier{})
	client := newTestClient(kh.Hub, "kiosk")

	kh.handleMessage(client, rawMessage(t, "dance", nil))

	msg := readMessage(t, client)
	if msg.Type != MsgTypeError {
		t.Errorf("type = %s, want %s", msg.Type, MsgTypeError)
	}
}

func TestHandleCaptureError_StopsVoiceMode(t *testing.T) {
	kh, _ := setupTestKioskHandler(&testutil.MockClassifier{})
	client := newTestClient(kh.Hub, "kiosk")

	kh.Resolver.Start()
	kh.handleMessage(client, rawMessage(t, MsgTypeCaptureError, CaptureErrorPayload{Message: "microphone denied"}))

	first := readMessage(t, client)
	if first.Type != MsgTypeError {
		t.Fatalf("first type = %s, want %s", first.Type, MsgTypeError)
	}
	second := readMessage(t, client)
	if second.Type != MsgTypeVoiceState {
		t.Fatalf("second type = %s, want %s", second.Type, MsgTypeVoiceState)
	}
	if kh.Resolver.State() != service.StateIdle {
		t.Errorf("resolver state = %s, want idle", kh.Resolver.State())
	}
}

func TestHubSpeaker_BroadcastsToSession(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub, DefaultSessionID)
	hub.Register <- client

	speaker := NewHubSpeaker(hub, DefaultSessionID)
	speaker.Speak("안녕하세요")

	msg := readMessage(t, client)
	if msg.Type != MsgTypeSpeak {
		t.Fatalf("type = %s, want %s", msg.Type, MsgTypeSpeak)
	}
	var payload SpeakPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("failed to unmarshal speak payload: %v", err)
	}
	if payload.Text != "안녕하세요" {
		t.Errorf("text = %q, want 안녕하세요", payload.Text)
	}

	speaker.Stop()
	stop := readMessage(t, client)
	if stop.Type != MsgTypeSpeakStop {
		t.Errorf("type = %s, want %s", stop.Type, MsgTypeSpeakStop)
	}
}

func TestKioskHandler_BroadcastsStateTransitions(t *testing.T) {
	kh, _ := setupTestKioskHandler(&testutil.MockClassifier{
		ClassifyFunc: func(_ context.Context, _ string, _ []models.MenuItem) (*ai.VoiceCommand, error) {
			return &ai.VoiceCommand{Intent: ai.IntentShowMenu, Confidence: 0.9}, nil
		},
	})
	observer := newTestClient(kh.Hub, DefaultSessionID)
	kh.Hub.Register <- observer

	kh.Resolver.Start()

	msg := readMessage(t, observer)
	if msg.Type != MsgTypeVoiceState {
		t.Fatalf("type = %s, want %s", msg.Type, MsgTypeVoiceState)
	}
	var statePayload VoiceStatePayload
	if err := json.Unmarshal(msg.Payload, &statePayload); err != nil {
		t.Fatalf("failed to unmarshal state payload: %v", err)
	}
	if statePayload.State != service.StateListening {
		t.Errorf("state = %s, want listening", statePayload.State)
	}

	// A transcript walks analyzing -> listening; both transitions reach the room.
	kh.Resolver.HandleTranscript(context.Background(), "메뉴 보여줘")

	want := []service.VoiceState{service.StateAnalyzing, service.StateListening}
	for _, expected := range want {
		msg := readMessage(t, observer)
		if msg.Type != MsgTypeVoiceState {
			t.Fatalf("type = %s, want %s", msg.Type, MsgTypeVoiceState)
		}
		if err := json.Unmarshal(msg.Payload, &statePayload); err != nil {
			t.Fatalf("failed to unmarshal state payload: %v", err)
		}
		if statePayload.State != expected {
			t.Errorf("state = %s, want %s", statePayload.State, expected)
		}
	}
}
