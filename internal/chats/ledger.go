package chats

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pliu/nexuschat/internal/models"
	"github.com/pliu/nexuschat/internal/store"
)

// AccountFinder resolves chat partners. FindByID returns nil, nil for an
// unknown id.
type AccountFinder interface {
	FindByID(id int64) (*models.Account, error)
}

type IDSource interface {
	Next() (int64, error)
}

// Ledger keeps every owner's chats under one record, keyed by owner id.
type Ledger struct {
	mu       sync.Mutex
	store    store.Store
	accounts AccountFinder
	ids      IDSource
	now      func() time.Time
	log      *zap.Logger
}

func NewLedger(s store.Store, accounts AccountFinder, ids IDSource, now func() time.Time, log *zap.Logger) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: s, accounts: accounts, ids: ids, now: now, log: log}
}

func ownerKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (l *Ledger) load(ownerID int64) ([]models.Chat, error) {
	var all map[string][]models.Chat
	if _, err := l.store.Read(store.KeyChats, &all); err != nil {
		return nil, fmt.Errorf("load chats: %w", err)
	}
	if chats := all[ownerKey(ownerID)]; chats != nil {
		return chats, nil
	}
	return []models.Chat{}, nil
}

func (l *Ledger) save(ownerID int64, chats []models.Chat) error {
	var all map[string][]models.Chat
	if _, err := l.store.Read(store.KeyChats, &all); err != nil {
		return fmt.Errorf("load chats: %w", err)
	}
	if all == nil {
		all = make(map[string][]models.Chat)
	}
	all[ownerKey(ownerID)] = chats
	if err := l.store.Write(store.KeyChats, all); err != nil {
		return fmt.Errorf("save chats: %w", err)
	}
	return nil
}

func indexOfPartner(chats []models.Chat, partnerID int64) int {
	for i := range chats {
		if chats[i].PartnerID == partnerID {
			return i
		}
	}
	return -1
}

// ListChats returns the owner's chats in storage order.
func (l *Ledger) ListChats(ownerID int64) ([]models.Chat, error) {
	return l.load(ownerID)
}

// resolve loads the owner's chats and finds the one with partnerID,
// appending a fresh chat (not yet persisted) when there is none.
func (l *Ledger) resolve(ownerID, partnerID int64) ([]models.Chat, int, bool, error) {
	if ownerID == partnerID {
		return nil, -1, false, ErrSelfChat
	}

	chats, err := l.load(ownerID)
	if err != nil {
		return nil, -1, false, err
	}
	if i := indexOfPartner(chats, partnerID); i != -1 {
		return chats, i, false, nil
	}

	partner, err := l.accounts.FindByID(partnerID)
	if err != nil {
		return nil, -1, false, err
	}
	if partner == nil {
		return nil, -1, false, ErrPartnerNotFound
	}

	id, err := l.ids.Next()
	if err != nil {
		return nil, -1, false, err
	}
	chats = append(chats, models.Chat{
		ID:            id,
		PartnerID:     partnerID,
		PartnerHandle: partner.Handle,
		PartnerAvatar: partner.Avatar,
		Messages:      []models.Message{},
	})
	return chats, len(chats) - 1, true, nil
}

// GetOrCreateChat returns the owner's chat with partnerID, creating and
// persisting an empty one first if needed.
func (l *Ledger) GetOrCreateChat(ownerID, partnerID int64) (*models.Chat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	chats, i, created, err := l.resolve(ownerID, partnerID)
	if err != nil {
		return nil, err
	}
	if created {
		if err := l.save(ownerID, chats); err != nil {
			return nil, err
		}
	}
	chat := chats[i]
	return &chat, nil
}

// Sent is the outcome of Send. Mirrored is false when the partner's copy
// could not be written.
type Sent struct {
	Message  models.Message
	Chat     models.Chat
	Mirrored bool
}

// AppendMessage stores text in the owner's chat with partnerID and mirrors
// it into the partner's chat with the owner. See Send.
func (l *Ledger) AppendMessage(ownerID, partnerID int64, text string) (*models.Message, *models.Chat, error) {
	sent, err := l.Send(ownerID, partnerID, text)
	if err != nil {
		return nil, nil, err
	}
	return &sent.Message, &sent.Chat, nil
}

// Send is AppendMessage reporting whether the mirror landed. The two writes
// are separate: once the owner's copy is saved, a failure on the partner's
// side is logged and the message stays one-sided.
func (l *Ledger) Send(ownerID, partnerID int64, text string) (*Sent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	chats, i, _, err := l.resolve(ownerID, partnerID)
	if err != nil {
		return nil, err
	}

	id, err := l.ids.Next()
	if err != nil {
		return nil, err
	}
	msg := models.Message{
		ID:        id,
		Text:      text,
		Timestamp: l.now().UTC(),
		FromOwner: true,
	}
	appendTo(&chats[i], msg)
	if err := l.save(ownerID, chats); err != nil {
		return nil, err
	}

	mirrored := true
	if err := l.mirror(partnerID, ownerID, msg); err != nil {
		mirrored = false
		l.log.Warn("message not mirrored to partner",
			zap.Int64("owner_id", ownerID),
			zap.Int64("partner_id", partnerID),
			zap.Int64("message_id", msg.ID),
			zap.Error(err))
	}

	return &Sent{Message: msg, Chat: chats[i], Mirrored: mirrored}, nil
}

func (l *Ledger) mirror(ownerID, partnerID int64, sent models.Message) error {
	chats, i, _, err := l.resolve(ownerID, partnerID)
	if err != nil {
		return err
	}

	received := sent
	received.FromOwner = false
	appendTo(&chats[i], received)
	chats[i].UnreadCount++
	return l.save(ownerID, chats)
}

func appendTo(chat *models.Chat, msg models.Message) {
	text := msg.Text
	at := msg.Timestamp
	chat.Messages = append(chat.Messages, msg)
	chat.LastMessageText = &text
	chat.LastMessageTime = &at
}

// Messages returns the owner's message sequence with partnerID.
func (l *Ledger) Messages(ownerID, partnerID int64) ([]models.Message, error) {
	chats, err := l.load(ownerID)
	if err != nil {
		return nil, err
	}
	i := indexOfPartner(chats, partnerID)
	if i == -1 {
		return nil, ErrChatNotFound
	}
	return chats[i].Messages, nil
}

// ClearHistory empties the owner's side of the chat only; the partner
// keeps its copy.
func (l *Ledger) ClearHistory(ownerID, partnerID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	chats, err := l.load(ownerID)
	if err != nil {
		return err
	}
	i := indexOfPartner(chats, partnerID)
	if i == -1 {
		return ErrChatNotFound
	}

	chats[i].Messages = []models.Message{}
	chats[i].LastMessageText = nil
	chats[i].LastMessageTime = nil
	return l.save(ownerID, chats)
}

// MarkRead resets the owner's unread counter for the chat with partnerID.
func (l *Ledger) MarkRead(ownerID, partnerID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	chats, err := l.load(ownerID)
	if err != nil {
		return err
	}
	i := indexOfPartner(chats, partnerID)
	if i == -1 {
		return ErrChatNotFound
	}
	if chats[i].UnreadCount == 0 {
		return nil
	}

	chats[i].UnreadCount = 0
	return l.save(ownerID, chats)
}

// SortByRecent orders chats newest message first; chats without messages
// go last, keeping their relative order.
func SortByRecent(chats []models.Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		a, b := chats[i].LastMessageTime, chats[j].LastMessageTime
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
}
