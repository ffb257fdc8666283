package store

import (
	"fmt"

	"github.com/pliu/nexuschat/internal/models"
)

const demoCredential = "password123"

func demoAccounts() []models.Account {
	return []models.Account{
		{ID: 1, Handle: "@user1", Credential: demoCredential, Presence: models.PresenceOnline},
		{ID: 2, Handle: "@user2", Credential: demoCredential, Presence: models.PresenceOnline},
		{ID: 3, Handle: "@alex", Credential: demoCredential, Presence: models.PresenceAway},
		{ID: 4, Handle: "@maria", Credential: demoCredential, Presence: models.PresenceOffline},
	}
}

// Init seeds the accounts, chats and theme records when they are absent and
// returns the theme the presentation should apply.
func Init(s Store) (models.Theme, error) {
	var accounts []models.Account
	found, err := s.Read(KeyAccounts, &accounts)
	if err != nil {
		return "", fmt.Errorf("read accounts: %w", err)
	}
	if !found {
		if err := s.Write(KeyAccounts, demoAccounts()); err != nil {
			return "", fmt.Errorf("seed accounts: %w", err)
		}
	}

	var chats map[string][]models.Chat
	found, err = s.Read(KeyChats, &chats)
	if err != nil {
		return "", fmt.Errorf("read chats: %w", err)
	}
	if !found {
		if err := s.Write(KeyChats, map[string][]models.Chat{}); err != nil {
			return "", fmt.Errorf("seed chats: %w", err)
		}
	}

	var theme models.Theme
	found, err = s.Read(KeyTheme, &theme)
	if err != nil {
		return "", fmt.Errorf("read theme: %w", err)
	}
	if !found {
		theme = models.ThemeLight
		if err := s.Write(KeyTheme, theme); err != nil {
			return "", fmt.Errorf("seed theme: %w", err)
		}
	}

	return theme, nil
}
