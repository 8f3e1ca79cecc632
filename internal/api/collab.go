package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cowrite/internal/metrics"
	"cowrite/internal/models"
	"cowrite/internal/repositories"
	"cowrite/internal/services"
	"cowrite/internal/session"
	"cowrite/internal/utils"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Handlers serves the collaboration websocket.
type Handlers struct {
	log       *zap.Logger
	hub       *session.Hub
	users     *repositories.UserRepository
	docs      *repositories.DocumentRepository
	activity  *services.ActivityPublisher
	jwtSecret string
}

func NewHandlers(log *zap.Logger, hub *session.Hub, users *repositories.UserRepository,
	docs *repositories.DocumentRepository, activity *services.ActivityPublisher, jwtSecret string) *Handlers {
	return &Handlers{
		log:       log,
		hub:       hub,
		users:     users,
		docs:      docs,
		activity:  activity,
		jwtSecret: jwtSecret,
	}
}

// authenticate resolves the handshake credential to an identity. It runs once
// per connection, before the upgrade: a bad token means no websocket at all.
func (h *Handlers) authenticate(r *http.Request) (models.Identity, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
			token = strings.TrimPrefix(authz, "Bearer ")
		}
	}
	if token == "" {
		return models.Identity{}, utils.ErrInvalidToken
	}
	claims, err := utils.ParseToken(token, h.jwtSecret)
	if err != nil {
		return models.Identity{}, err
	}
	userID, err := utils.GetUserIDFromClaims(claims)
	if err != nil {
		return models.Identity{}, err
	}
	user, err := h.users.GetUserByID(userID)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// CollabWS upgrades the connection and runs its event loop until the client
// goes away. The deferred leave is the only guaranteed cleanup path, so it
// must work no matter how the loop exits.
func (h *Handlers) CollabWS(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticate(r)
	if err != nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := session.NewClient(conn, identity)
	metrics.ActiveConnections.Inc()
	h.log.Info("user connected", zap.Uint("userId", identity.ID), zap.String("name", identity.Name))
	defer func() {
		h.leaveDocument(client)
		metrics.ActiveConnections.Dec()
		h.log.Info("user disconnected", zap.Uint("userId", identity.ID))
	}()

	for {
		var frame models.WSFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Type {
		case "join-document":
			var documentID string
			if err := json.Unmarshal(frame.Data, &documentID); err != nil || documentID == "" {
				client.Send(errFrame("Failed to join document"))
				continue
			}
			h.joinDocument(client, documentID)

		case "leave-document":
			h.leaveDocument(client)

		case "send-changes":
			// opaque delta, relayed verbatim, never persisted
			if h.hub.Relay(client, models.WSFrame{Type: "receive-changes", Data: frame.Data}) {
				metrics.RelayedFrames.WithLabelValues("receive-changes").Inc()
			}

		case "cursor":
			// lossy presence signal, only the latest matters
			if h.hub.Relay(client, models.WSFrame{Type: "cursor", Data: frame.Data}) {
				metrics.RelayedFrames.WithLabelValues("cursor").Inc()
			}

		case "save-document":
			h.saveDocument(client, frame.Data)

		default:
			client.Send(errFrame("Unknown event"))
		}
	}
}

// joinDocument checks access against the stored snapshot, moves the client
// into the document's room and delivers the snapshot plus roster. The
// snapshot fetch happens before any room state is touched, so a slow read
// never stalls other members' presence updates.
func (h *Handlers) joinDocument(client *session.Client, documentID string) {
	doc, err := h.docs.GetDocumentByID(documentID)
	if err != nil {
		if errors.Is(err, repositories.ErrDocumentNotFound) {
			client.Send(errFrame("Document not found"))
		} else {
			h.log.Error("load document", zap.String("documentId", documentID), zap.Error(err))
			client.Send(errFrame("Failed to join document"))
		}
		return
	}
	if !repositories.HasAccess(doc, client.User.ID) {
		client.Send(errFrame("Access denied to this document"))
		return
	}

	roster := h.hub.Join(client, documentID)
	metrics.ActiveRooms.Set(float64(h.hub.RoomCount()))

	content := json.RawMessage(doc.Content)
	if len(content) == 0 {
		content = json.RawMessage("{}")
	}
	client.Send(models.Frame("load-document", models.LoadDocument{Content: content, Title: doc.Title}))
	client.Send(models.Frame("active-users", roster))

	h.activity.Publish(context.Background(), services.ActivityEvent{
		Event:      "user-joined",
		DocumentID: documentID,
		UserID:     client.User.ID,
		UserName:   client.User.Name,
	})
	h.log.Info("user joined document",
		zap.Uint("userId", client.User.ID), zap.String("documentId", documentID))
}

// leaveDocument detaches the client from its room, if it is in one. Both the
// explicit leave-document event and the disconnect teardown land here.
func (h *Handlers) leaveDocument(client *session.Client) {
	room := client.Room()
	if room == nil {
		return
	}
	documentID := room.ID
	h.hub.Leave(client)
	metrics.ActiveRooms.Set(float64(h.hub.RoomCount()))

	h.activity.Publish(context.Background(), services.ActivityEvent{
		Event:      "user-left",
		DocumentID: documentID,
		UserID:     client.User.ID,
		UserName:   client.User.Name,
	})
	h.log.Info("user left document",
		zap.Uint("userId", client.User.ID), zap.String("documentId", documentID))
}

// saveDocument persists the client's snapshot of its current document and
// confirms to the saving connection only. A client in no room saves nothing;
// neither does a stale tab whose presence slot a newer connection took over.
func (h *Handlers) saveDocument(client *session.Client, data json.RawMessage) {
	room := client.Room()
	if room == nil || !room.Has(client) {
		return
	}
	var req models.SaveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		client.Send(errFrame("Failed to save document"))
		return
	}

	updates := map[string]any{"content": string(req.Content)}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if err := h.docs.UpdateDocument(room.ID, updates); err != nil {
		metrics.SaveFailures.Inc()
		h.log.Error("save document", zap.String("documentId", room.ID), zap.Error(err))
		client.Send(errFrame("Failed to save document"))
		return
	}

	savedAt := time.Now()
	client.Send(models.Frame("document-saved", models.SaveConfirmation{SavedAt: savedAt}))
	h.activity.Publish(context.Background(), services.ActivityEvent{
		Event:      "document-saved",
		DocumentID: room.ID,
		UserID:     client.User.ID,
		UserName:   client.User.Name,
		Timestamp:  savedAt,
	})
}

func errFrame(msg string) models.WSFrame {
	return models.Frame("error", models.ErrorPayload{Message: msg})
}
