package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/arghyadipchak/mssngr/internal/topicreg"
	"github.com/arghyadipchak/mssngr/internal/wslisten"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// handleIndex is the ambient `/` liveness probe (SPEC_FULL.md §6,
// original_source endpoint.rs::index).
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type publishRequest struct {
	Content  string `json:"content"`
	Priority string `json:"priority"`
}

type publishResponse struct {
	ID uuid.UUID `json:"id"`
}

// handlePublish implements Publish Ingress (spec.md §4.1).
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")

	if _, ok := s.registry.Topic(topic); !ok {
		s.forwardOrUnknown(w, r, "publish", topic)
		return
	}

	var body publishRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	priority, err := topicreg.ParsePriority(body.Priority)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := s.broker.Publish(r.Context(), topic, body.Content, priority)
	if err != nil {
		s.log.Error("publish enqueue failed", zap.String("topic", topic), zap.Error(err))
		http.Error(w, "broker unavailable", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, publishResponse{ID: id})
}

// handleSubscribe implements Subscribe Ingress (spec.md §4.3): upgrade,
// build the Subscriber, hand its read half to the Listener, and only
// insert it into the topic table once registration succeeds.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")

	topicObj, ok := s.registry.Topic(topic)
	if !ok {
		s.forwardOrUnknown(w, r, "subscribe", topic)
		return
	}

	mode, err := topicreg.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	priority, err := topicreg.ParsePriority(r.URL.Query().Get("priority"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.String("topic", topic), zap.Error(err))
		return
	}

	sub := topicreg.NewSubscriber(conn, mode, priority)
	event := wslisten.ListenEvent{Conn: conn, Topic: topic, SubID: sub.ID}

	if err := s.listener.Register(r.Context(), event); err != nil {
		s.log.Warn("subscriber registration dropped", zap.String("topic", topic), zap.Error(err))
		conn.Close()
		return
	}

	topicObj.AddSubscriber(sub)
	if s.metrics != nil {
		s.metrics.SetActiveSubscribers(topic, topicObj.SubscriberCount())
	}
}

// handleFetch implements the Fetch Endpoint (spec.md §4.6).
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")

	topicObj, ok := s.registry.Topic(topic)
	if !ok {
		s.forwardOrUnknown(w, r, "fetch", topic)
		return
	}

	raw := r.URL.Query().Get("id")
	var ids []uuid.UUID
	if raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				http.Error(w, "invalid id in query", http.StatusBadRequest)
				return
			}
			ids = append(ids, id)
		}
	}

	writeJSON(w, http.StatusOK, topicObj.Events(ids))
}

// forwardOrUnknown implements the shared 307-or-502 decision every
// endpoint makes for a topic this node doesn't own locally (spec.md §4.1,
// §4.3, §4.6; local precedence per §4.7).
func (s *Server) forwardOrUnknown(w http.ResponseWriter, r *http.Request, action, topic string) {
	peer, ok := s.forward.Lookup(topic)
	if !ok {
		http.Error(w, "unknown topic", http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, peer.Addr+action+"/"+topic, http.StatusTemporaryRedirect)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return
	}
}
