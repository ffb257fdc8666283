package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pliu/nexuschat/internal/chats"
	"github.com/pliu/nexuschat/internal/middleware"
	"github.com/pliu/nexuschat/internal/models"
	"github.com/pliu/nexuschat/internal/ws"
)

type ChatHandler struct {
	Ledger *chats.Ledger
	Hub    *ws.Hub
	Log    *zap.Logger
}

type CreateChatRequest struct {
	PartnerID int64 `json:"partner_id"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type SendMessageResponse struct {
	Message *models.Message `json:"message"`
	Chat    *models.Chat    `json:"chat"`
}

// GetChats lists the session account's chats, most recent first.
func (h *ChatHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	me := middleware.Account(r.Context())

	list, err := h.Ledger.ListChats(me.ID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	chats.SortByRecent(list)
	writeJSON(w, http.StatusOK, list)
}

func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	me := middleware.Account(r.Context())

	var req CreateChatRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}

	chat, err := h.Ledger.GetOrCreateChat(me.ID, req.PartnerID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (h *ChatHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	me := middleware.Account(r.Context())
	partnerID, err := pathID(r, "partnerId")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	messages, err := h.Ledger.Messages(me.ID, partnerID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	me := middleware.Account(r.Context())
	partnerID, err := pathID(r, "partnerId")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	var req SendMessageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}

	sent, err := h.Ledger.Send(me.ID, partnerID, req.Text)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	// Notify the partner's open sockets
	if h.Hub != nil {
		h.Hub.DeliverMessage(me.ID, *sent)
	}

	writeJSON(w, http.StatusCreated, SendMessageResponse{Message: &sent.Message, Chat: &sent.Chat})
}

func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	me := middleware.Account(r.Context())
	partnerID, err := pathID(r, "partnerId")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	if err := h.Ledger.ClearHistory(me.ID, partnerID); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	me := middleware.Account(r.Context())
	partnerID, err := pathID(r, "partnerId")
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	if err := h.Ledger.MarkRead(me.ID, partnerID); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
