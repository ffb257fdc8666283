package ws

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/pliu/nexuschat/internal/apperr"
	"github.com/pliu/nexuschat/internal/chats"
	"github.com/pliu/nexuschat/internal/models"
)

// Inbound is a message a client sends over its socket.
type Inbound struct {
	AccountID int64  `json:"-"`
	PartnerID int64  `json:"partner_id"`
	Text      string `json:"text"`

	client *Client
}

// Event is what the hub pushes to clients. For "message" events PartnerID
// and Message are seen from the receiving account's side.
type Event struct {
	Type      string          `json:"type"`
	PartnerID int64           `json:"partner_id,omitempty"`
	Message   *models.Message `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Sender appends a message to the ledger.
type Sender interface {
	Send(ownerID, partnerID int64, text string) (*chats.Sent, error)
}

type delivery struct {
	ownerID int64
	sent    chats.Sent
}

type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Inbound messages from the clients.
	inbound chan Inbound

	// Messages already stored by someone else that must be pushed.
	deliveries chan delivery

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Accounts whose sockets must be closed.
	disconnect chan int64

	sender Sender
	log    *zap.Logger
}

func NewHub(sender Sender, log *zap.Logger) *Hub {
	return &Hub{
		inbound:    make(chan Inbound),
		deliveries: make(chan delivery, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		disconnect: make(chan int64),
		clients:    make(map[*Client]bool),
		sender:     sender,
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case accountID := <-h.disconnect:
			for client := range h.clients {
				if client.accountID == accountID {
					delete(h.clients, client)
					close(client.send)
				}
			}
		case in := <-h.inbound:
			// Frames still in flight from a detached socket are dropped.
			if in.client != nil && !h.clients[in.client] {
				h.log.Debug("frame from detached socket dropped", zap.Int64("account_id", in.AccountID))
				continue
			}
			sent, err := h.sender.Send(in.AccountID, in.PartnerID, in.Text)
			if err != nil {
				h.log.Debug("inbound message rejected", zap.Int64("account_id", in.AccountID), zap.Error(err))
				h.push(in.AccountID, Event{Type: "error", PartnerID: in.PartnerID, Error: apperr.Message(err)})
				continue
			}
			h.deliver(delivery{ownerID: in.AccountID, sent: *sent})
		case d := <-h.deliveries:
			h.deliver(d)
		}
	}
}

// DeliverMessage pushes a stored message to the sender's other sockets and,
// when it was mirrored, to the partner's sockets.
func (h *Hub) DeliverMessage(ownerID int64, sent chats.Sent) {
	h.deliveries <- delivery{ownerID: ownerID, sent: sent}
}

// Disconnect closes every socket of accountID.
func (h *Hub) Disconnect(accountID int64) {
	h.disconnect <- accountID
}

func (h *Hub) deliver(d delivery) {
	partnerID := d.sent.Chat.PartnerID

	sent := d.sent.Message
	h.push(d.ownerID, Event{Type: "message", PartnerID: partnerID, Message: &sent})

	if !d.sent.Mirrored {
		return
	}
	received := d.sent.Message
	received.FromOwner = false
	h.push(partnerID, Event{Type: "message", PartnerID: d.ownerID, Message: &received})
}

func (h *Hub) push(accountID int64, event Event) {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		h.log.Error("encode event", zap.Error(err))
		return
	}
	for client := range h.clients {
		if client.accountID != accountID {
			continue
		}
		select {
		case client.send <- msgBytes:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}
