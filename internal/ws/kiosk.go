package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mealpoint/kiosk-api/internal/logger"
	"github.com/mealpoint/kiosk-api/internal/models"
	"github.com/mealpoint/kiosk-api/internal/service"
	"go.uber.org/zap"
)

// DefaultSessionID is the room the kiosk UI joins. One kiosk serves one
// customer at a time, so the server-side speaker broadcasts to this room;
// additional session IDs are for mirrors and admin observers.
const DefaultSessionID = "kiosk"

// WebSocket message types for the kiosk voice protocol.
const (
	MsgTypeVoiceStart      = "voice_start"      // Client toggles voice mode on
	MsgTypeVoiceStop       = "voice_stop"       // Client toggles voice mode off
	MsgTypeVoiceTranscript = "voice_transcript" // Speech recognition result
	MsgTypeCaptureError    = "capture_error"    // Capture unsupported/denied
	MsgTypeVoiceResponse   = "voice_response"   // Resolver response text
	MsgTypeVoiceState      = "voice_state"      // Resolver state transition
	MsgTypeSpeak           = "speak"            // Server asks client TTS to speak
	MsgTypeSpeakStop       = "speak_stop"       // Cancel any in-flight TTS
	MsgTypeCartUpdate      = "cart_update"      // Cart contents after a mutation
	MsgTypeShowHelp        = "show_help"        // Surface the help panel
	MsgTypeError           = "error"            // Error message
	MsgTypeConnected       = "connected"        // Connection confirmed
)

// WSMessage is the envelope for all messages sent over the kiosk WebSocket.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// VoiceTranscriptPayload carries a speech recognition result.
type VoiceTranscriptPayload struct {
	Transcript string `json:"transcript"`
}

// CaptureErrorPayload reports that the client cannot capture speech.
type CaptureErrorPayload struct {
	Message string `json:"message"`
}

// SpeakPayload asks the client's speech synthesis to speak.
type SpeakPayload struct {
	Text string `json:"text"`
}

// VoiceStatePayload carries a resolver state transition.
type VoiceStatePayload struct {
	State service.VoiceState `json:"state"`
}

// CartUpdatePayload carries the cart contents after a mutation.
type CartUpdatePayload struct {
	Lines []models.CartLine `json:"lines"`
	Total int               `json:"total"`
}

// ConnectedPayload confirms a successful connection.
type ConnectedPayload struct {
	SessionID string `json:"session_id"`
	Locale    string `json:"locale"`
}

// ErrorPayload carries an error message to the client.
type ErrorPayload struct {
	Message string `json:"message"`
}

// HubSpeaker is the speech output sink: it forwards spoken text to the
// kiosk session over the hub. The client cancels any in-flight utterance
// when a new speak message arrives.
type HubSpeaker struct {
	Hub       *Hub
	SessionID string
}

// NewHubSpeaker returns a Speaker that broadcasts to a kiosk session.
func NewHubSpeaker(hub *Hub, sessionID string) *HubSpeaker {
	return &HubSpeaker{Hub: hub, SessionID: sessionID}
}

// Speak implements service.Speaker.
func (s *HubSpeaker) Speak(text string) {
	payload, _ := json.Marshal(SpeakPayload{Text: text})
	msg, _ := json.Marshal(WSMessage{Type: MsgTypeSpeak, Payload: payload})
	s.Hub.Broadcast <- &SessionMessage{SessionID: s.SessionID, Message: msg}
}

// Stop implements service.Speaker.
func (s *HubSpeaker) Stop() {
	msg, _ := json.Marshal(WSMessage{Type: MsgTypeSpeakStop})
	s.Hub.Broadcast <- &SessionMessage{SessionID: s.SessionID, Message: msg}
}

// KioskHandler manages WebSocket connections for kiosk voice sessions.
type KioskHandler struct {
	Hub      *Hub
	Resolver *service.VoiceResolver
	Cart     *service.CartService
	Locale   string
}

// NewKioskHandler returns a new KioskHandler wired to the resolver. Every
// resolver state transition is mirrored to the kiosk room so the UI tracks
// voice mode without polling.
func NewKioskHandler(hub *Hub, resolver *service.VoiceResolver, cart *service.CartService, locale string) *KioskHandler {
	kh := &KioskHandler{
		Hub:      hub,
		Resolver: resolver,
		Cart:     cart,
		Locale:   locale,
	}
	resolver.OnStateChange(kh.broadcastState)
	return kh
}

// broadcastState pushes a resolver state transition to every client in the
// kiosk room.
func (kh *KioskHandler) broadcastState(state service.VoiceState) {
	payload, _ := json.Marshal(VoiceStatePayload{State: state})
	msg, _ := json.Marshal(WSMessage{Type: MsgTypeVoiceState, Payload: payload})
	kh.Hub.Broadcast <- &SessionMessage{SessionID: DefaultSessionID, Message: msg}
}

// upgrader is configured for kiosk WebSocket upgrades. Kiosks run on a
// closed device, so localhost plus the configured origin is enough.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return strings.HasPrefix(origin, "http://localhost") ||
			strings.HasPrefix(origin, "https://localhost")
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HandleKioskSession upgrades an HTTP request to a WebSocket connection for
// a kiosk voice session.
func (kh *KioskHandler) HandleKioskSession(c *gin.Context) {
	log := logger.Get()

	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "session_id is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return
	}

	client := &Client{
		Hub:       kh.Hub,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		SessionID: sessionID,
	}
	kh.Hub.Register <- client

	connectedPayload, _ := json.Marshal(ConnectedPayload{
		SessionID: sessionID,
		Locale:    kh.Locale,
	})
	connectedMsg, _ := json.Marshal(WSMessage{
		Type:    MsgTypeConnected,
		Payload: connectedPayload,
	})
	client.Send <- connectedMsg

	log.Info("kiosk session started", zap.String("session_id", sessionID))

	go client.WritePump()
	go client.ReadPump(func(cl *Client, data []byte) {
		kh.handleMessage(cl, data)
	})
}

// handleMessage parses an incoming WebSocket message and routes it to the
// appropriate handler.
func (kh *KioskHandler) handleMessage(client *Client, data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		kh.sendError(client, "invalid message format")
		return
	}

	logger.Get().Debug("received ws message",
		zap.String("type", msg.Type),
		zap.String("session_id", client.SessionID),
	)

	switch msg.Type {
	case MsgTypeVoiceStart:
		resp := kh.Resolver.Start()
		kh.sendVoiceResponse(client, resp)

	case MsgTypeVoiceStop:
		kh.Resolver.Stop()
		kh.sendState(client, service.StateIdle)

	case MsgTypeVoiceTranscript:
		kh.handleVoiceTranscript(client, msg.Payload)

	case MsgTypeCaptureError:
		kh.handleCaptureError(client, msg.Payload)

	default:
		kh.sendError(client, "unknown message type: "+msg.Type)
	}
}

// handleVoiceTranscript feeds one transcript through the resolver and pushes
// the response plus the resulting cart state back to the session.
func (kh *KioskHandler) handleVoiceTranscript(client *Client, payload json.RawMessage) {
	var transcript VoiceTranscriptPayload
	if err := json.Unmarshal(payload, &transcript); err != nil {
		kh.sendError(client, "invalid voice transcript payload")
		return
	}
	if strings.TrimSpace(transcript.Transcript) == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp := kh.Resolver.HandleTranscript(ctx, transcript.Transcript)
	if resp == nil {
		// Duplicate, mid-analysis, or voice mode off.
		return
	}

	kh.sendVoiceResponse(client, resp)
	kh.sendCartUpdate(client)
	if resp.ShowHelp {
		showHelpMsg, _ := json.Marshal(WSMessage{Type: MsgTypeShowHelp})
		client.Send <- showHelpMsg
	}
}

// handleCaptureError disables the pipeline for this session and logs the
// device problem. The notice is surfaced once, inline.
func (kh *KioskHandler) handleCaptureError(client *Client, payload json.RawMessage) {
	var captureErr CaptureErrorPayload
	if err := json.Unmarshal(payload, &captureErr); err != nil {
		kh.sendError(client, "invalid capture error payload")
		return
	}

	logger.Get().Warn("speech capture unavailable",
		zap.String("session_id", client.SessionID),
		zap.String("reason", captureErr.Message),
	)

	kh.Resolver.Stop()
	kh.sendError(client, "음성 인식을 사용할 수 없습니다: "+captureErr.Message)
	kh.sendState(client, service.StateIdle)
}

func (kh *KioskHandler) sendError(client *Client, message string) {
	payload, _ := json.Marshal(ErrorPayload{Message: message})
	msg, _ := json.Marshal(WSMessage{Type: MsgTypeError, Payload: payload})
	client.Send <- msg
}

func (kh *KioskHandler) sendVoiceResponse(client *Client, resp *service.VoiceResponse) {
	payload, _ := json.Marshal(resp)
	msg, _ := json.Marshal(WSMessage{Type: MsgTypeVoiceResponse, Payload: payload})
	client.Send <- msg
}

func (kh *KioskHandler) sendState(client *Client, state service.VoiceState) {
	payload, _ := json.Marshal(VoiceStatePayload{State: state})
	msg, _ := json.Marshal(WSMessage{Type: MsgTypeVoiceState, Payload: payload})
	client.Send <- msg
}

func (kh *KioskHandler) sendCartUpdate(client *Client) {
	payload, _ := json.Marshal(CartUpdatePayload{
		Lines: kh.Cart.Lines(),
		Total: kh.Cart.Total(),
	})
	msg, _ := json.Marshal(WSMessage{Type: MsgTypeCartUpdate, Payload: payload})
	client.Send <- msg
}
