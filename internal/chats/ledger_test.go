package chats

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pliu/nexuschat/internal/accounts"
	"github.com/pliu/nexuschat/internal/models"
	"github.com/pliu/nexuschat/internal/store"
	"github.com/pliu/nexuschat/internal/store/sqlstore"
)

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

// flakyStore fails chat writes once allowChatWrites successful ones have
// gone through.
type flakyStore struct {
	store.Store
	allowChatWrites int
}

func (f *flakyStore) Write(key string, value any) error {
	if key == store.KeyChats {
		if f.allowChatWrites == 0 {
			return errors.New("quota exceeded")
		}
		f.allowChatWrites--
	}
	return f.Store.Write(key, value)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlstore.New("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Write(store.KeyAccounts, []models.Account{
		{ID: 1, Handle: "@alice", Credential: "secret1", Presence: models.PresenceOnline},
		{ID: 2, Handle: "@bob", Credential: "secret1", Presence: models.PresenceOnline, Avatar: "data:image/png;base64,Qk9C"},
	}))
	require.NoError(t, s.Write(store.KeyChats, map[string][]models.Chat{}))
	return s
}

func newTestLedger(t *testing.T, s store.Store) *Ledger {
	t.Helper()
	log := zaptest.NewLogger(t)
	seq := store.NewSequence(s, func() time.Time { return testNow })
	dir := accounts.NewDirectory(s, seq, log)
	return NewLedger(s, dir, seq, func() time.Time { return testNow }, log)
}

func TestListChatsEmpty(t *testing.T) {
	l := newTestLedger(t, newTestStore(t))

	chats, err := l.ListChats(1)
	require.NoError(t, err)
	assert.NotNil(t, chats)
	assert.Empty(t, chats)
}

func TestGetOrCreateChat(t *testing.T) {
	l := newTestLedger(t, newTestStore(t))

	chat, err := l.GetOrCreateChat(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), chat.PartnerID)
	assert.Equal(t, "@bob", chat.PartnerHandle)
	assert.Equal(t, "data:image/png;base64,Qk9C", chat.PartnerAvatar)
	assert.Empty(t, chat.Messages)

	again, err := l.GetOrCreateChat(1, 2)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, again.ID)

	chats, err := l.ListChats(1)
	require.NoError(t, err)
	assert.Len(t, chats, 1)

	// Opening a chat does not create the partner's side.
	chats, err = l.ListChats(2)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestGetOrCreateChatErrors(t *testing.T) {
	l := newTestLedger(t, newTestStore(t))

	_, err := l.GetOrCreateChat(1, 99)
	assert.ErrorIs(t, err, ErrPartnerNotFound)

	_, err = l.GetOrCreateChat(1, 1)
	assert.ErrorIs(t, err, ErrSelfChat)
}

func TestAppendMessageMirrors(t *testing.T) {
	l := newTestLedger(t, newTestStore(t))

	msg, chat, err := l.AppendMessage(1, 2, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.True(t, msg.FromOwner)
	assert.Equal(t, testNow, msg.Timestamp)
	require.Len(t, chat.Messages, 1)

	aliceChats, err := l.ListChats(1)
	require.NoError(t, err)
	require.Len(t, aliceChats, 1)
	mine := aliceChats[0]
	assert.Equal(t, int64(2), mine.PartnerID)
	require.NotNil(t, mine.LastMessageText)
	assert.Equal(t, "hello", *mine.LastMessageText)
	assert.Equal(t, 0, mine.UnreadCount)
	require.Len(t, mine.Messages, 1)
	assert.True(t, mine.Messages[0].FromOwner)

	bobChats, err := l.ListChats(2)
	require.NoError(t, err)
	require.Len(t, bobChats, 1)
	theirs := bobChats[0]
	assert.Equal(t, int64(1), theirs.PartnerID)
	assert.Equal(t, "@alice", theirs.PartnerHandle)
	require.NotNil(t, theirs.LastMessageText)
	assert.Equal(t, "hello", *theirs.LastMessageText)
	assert.Equal(t, 1, theirs.UnreadCount)
	require.Len(t, theirs.Messages, 1)
	assert.False(t, theirs.Messages[0].FromOwner)

	assert.Equal(t, mine.Messages[0].ID, theirs.Messages[0].ID)
	assert.Equal(t, mine.Messages[0].Timestamp, theirs.Messages[0].Timestamp)
	assert.Equal(t, *mine.LastMessageTime, *theirs.LastMessageTime)
}

func TestAppendMessageUnreadCountsEachMessage(t *testing.T) {
	l := newTestLedger(t, newTestStore(t))

	_, _, err := l.AppendMessage(1, 2, "one")
	require.NoError(t, err)
	_, _, err = l.AppendMessage(1, 2, "two")
	require.NoError(t, err)
	_, _, err = l.AppendMessage(2, 1, "back")
	require.NoError(t, err)

	bobChats, err := l.ListChats(2)
	require.NoError(t, err)
	require.Len(t, bobChats, 1)
	assert.Equal(t, 2, bobChats[0].UnreadCount)
	assert.Len(t, bobChats[0].Messages, 3)

	aliceChats, err := l.ListChats(1)
	require.NoError(t, err)
	assert.Equal(t, 1, aliceChats[0].UnreadCount)
	require.Len(t, aliceChats[0].Messages, 3)
	assert.False(t, aliceChats[0].Messages[2].FromOwner)

	ids := map[int64]bool{}
	for _, m := range aliceChats[0].Messages {
		ids[m.ID] = true
	}
	assert.Len(t, ids, 3, "message ids are unique")
}

func TestAppendEmptyMessage(t *testing.T) {
	s := newTestStore(t)
	l := newTestLedger(t, s)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, _, err := l.AppendMessage(1, 2, text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}

	var all map[string][]models.Chat
	_, err := s.Read(store.KeyChats, &all)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAppendMessageUnknownPartner(t *testing.T) {
	l := newTestLedger(t, newTestStore(t))

	_, _, err := l.AppendMessage(1, 99, "hello")
	assert.ErrorIs(t, err, ErrPartnerNotFound)

	chats, err := l.ListChats(1)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestAppendMessageToleratesMissingSender(t *testing.T) {
	l := newTestLedger(t, newTestStore(t))

	// Account 7 does not exist, so bob cannot get a chat with it.
	_, _, err := l.AppendMessage(7, 2, "ghost")
	require.NoError(t, err)

	chats, err := l.ListChats(7)
	require.NoError(t, err)
	assert.Len(t, chats, 1)

	chats, err = l.ListChats(2)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestAppendMessagePartnerWriteFails(t *testing.T) {
	s := &flakyStore{Store: newTestStore(t), allowChatWrites: 1}
	l := newTestLedger(t, s)

	sent, err := l.Send(1, 2, "hello")
	require.NoError(t, err)
	assert.False(t, sent.Mirrored)

	aliceChats, err := l.ListChats(1)
	require.NoError(t, err)
	require.Len(t, aliceChats, 1)
	require.Len(t, aliceChats[0].Messages, 1)
	assert.Equal(t, sent.Message.ID, aliceChats[0].Messages[0].ID)

	bobChats, err := l.ListChats(2)
	require.NoError(t, err)
	assert.Empty(t, bobChats)
}

func TestSendReportsMirror(t *testing.T) {
	l := newTestLedger(t, newTestStore(t))

	sent, err := l.Send(1, 2, "hello")
	require.NoError(t, err)
	assert.True(t, sent.Mirrored)
	assert.Equal(t, int64(2), sent.Chat.PartnerID)
	assert.True(t, sent.Message.FromOwner)

	// No account 7 to mirror to
	sent, err = l.Send(7, 2, "ghost")
	require.NoError(t, err)
	assert.False(t, sent.Mirrored)
}

func TestAppendMessageOwnerWriteFails(t *testing.T) {
	s := &flakyStore{Store: newTestStore(t), allowChatWrites: 0}
	l := newTestLedger(t, s)

	_, _, err := l.AppendMessage(1, 2, "hello")
	assert.Error(t, err)

	chats, err := l.ListChats(2)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestClearHistoryIsOneSided(t *testing.T) {
	l := newTestLedger(t, newTestStore(t))
	_, _, err := l.AppendMessage(1, 2, "hello")
	require.NoError(t, err)

	require.NoError(t, l.ClearHistory(1, 2))

	aliceChats, err := l.ListChats(1)
	require.NoError(t, err)
	require.Len(t, aliceChats, 1)
	assert.Empty(t, aliceChats[0].Messages)
	assert.Nil(t, aliceChats[0].LastMessageText)
	assert.Nil(t, aliceChats[0].LastMessageTime)

	bobChats, err := l.ListChats(2)
	require.NoError(t, err)
	require.Len(t, bobChats, 1)
	assert.Len(t, bobChats[0].Messages, 1)
	require.NotNil(t, bobChats[0].LastMessageText)
	assert.Equal(t, "hello", *bobChats[0].LastMessageText)
	assert.Equal(t, 1, bobChats[0].UnreadCount)
}

func TestClearHistoryUnknownChat(t *testing.T) {
	l := newTestLedger(t, newTestStore(t))
	assert.ErrorIs(t, l.ClearHistory(1, 2), ErrChatNotFound)
}

func TestMarkRead(t *testing.T) {
	l := newTestLedger(t, newTestStore(t))
	_, _, err := l.AppendMessage(1, 2, "hello")
	require.NoError(t, err)

	require.NoError(t, l.MarkRead(2, 1))

	bobChats, err := l.ListChats(2)
	require.NoError(t, err)
	assert.Equal(t, 0, bobChats[0].UnreadCount)

	assert.ErrorIs(t, l.MarkRead(2, 42), ErrChatNotFound)
}

func TestMessages(t *testing.T) {
	l := newTestLedger(t, newTestStore(t))
	_, _, err := l.AppendMessage(1, 2, "hello")
	require.NoError(t, err)

	msgs, err := l.Messages(2, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)

	_, err = l.Messages(1, 42)
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestSortByRecent(t *testing.T) {
	older := testNow.Add(-time.Hour)
	newer := testNow
	chats := []models.Chat{
		{ID: 1},
		{ID: 2, LastMessageTime: &older},
		{ID: 3},
		{ID: 4, LastMessageTime: &newer},
	}

	SortByRecent(chats)

	var order []int64
	for _, c := range chats {
		order = append(order, c.ID)
	}
	assert.Equal(t, []int64{4, 2, 1, 3}, order)
}
