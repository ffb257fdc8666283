package sqlstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pliu/nexuschat/internal/models"
)

var testStore *SQLStore

func SetupTestDB(t *testing.T) {
	var err error
	testStore, err = New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
}

func TeardownTestDB() {
	testStore.db.Close()
}

func TestReadMissingKey(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	var accounts []models.Account
	found, err := testStore.Read("nope", &accounts)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, accounts)
}

func TestRoundTrip(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	text := "hello"
	at := time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC)
	want := map[string][]models.Chat{
		"1": {{
			ID:              10,
			PartnerID:       2,
			PartnerHandle:   "@bob",
			LastMessageText: &text,
			LastMessageTime: &at,
			Messages:        []models.Message{{ID: 11, Text: text, Timestamp: at, FromOwner: true}},
		}},
	}

	require.NoError(t, testStore.Write("chats", want))

	var got map[string][]models.Chat
	found, err := testStore.Read("chats", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, got)
}

func TestWriteOverwrites(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	require.NoError(t, testStore.Write("theme", models.ThemeLight))
	require.NoError(t, testStore.Write("theme", models.ThemeDark))

	var theme models.Theme
	_, err := testStore.Read("theme", &theme)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, theme)
}

func TestReadReturnsIndependentCopies(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	require.NoError(t, testStore.Write("accounts", []models.Account{{ID: 1, Handle: "@alice"}}))

	var first []models.Account
	_, err := testStore.Read("accounts", &first)
	require.NoError(t, err)
	first[0].Handle = "@mallory"

	var second []models.Account
	_, err = testStore.Read("accounts", &second)
	require.NoError(t, err)
	assert.Equal(t, "@alice", second[0].Handle)
}

func TestDelete(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	require.NoError(t, testStore.Write("session", models.Account{ID: 1}))
	require.NoError(t, testStore.Delete("session"))
	require.NoError(t, testStore.Delete("session"))

	var acct models.Account
	found, err := testStore.Read("session", &acct)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDurableAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.db")

	s, err := New("sqlite3", path)
	require.NoError(t, err)
	require.NoError(t, s.Write("theme", models.ThemeDark))
	require.NoError(t, s.Close())

	s, err = New("sqlite3", path)
	require.NoError(t, err)
	defer s.Close()

	var theme models.Theme
	found, err := s.Read("theme", &theme)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.ThemeDark, theme)
}

func TestRebind(t *testing.T) {
	s := &SQLStore{driverName: "postgres"}
	assert.Equal(t, "SELECT body FROM records WHERE name = $1 AND body = $2",
		s.rebind("SELECT body FROM records WHERE name = ? AND body = ?"))

	s = &SQLStore{driverName: "sqlite3"}
	assert.Equal(t, "name = ?", s.rebind("name = ?"))
}
