package accounts

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pliu/nexuschat/internal/models"
	"github.com/pliu/nexuschat/internal/store"
)

const (
	minHandleLen     = 3
	maxHandleLen     = 20
	minCredentialLen = 6
	minQueryLen      = 2
)

// IDSource hands out new unique ids.
type IDSource interface {
	Next() (int64, error)
}

// Directory owns the account list and the session pointer.
type Directory struct {
	mu    sync.Mutex
	store store.Store
	ids   IDSource
	log   *zap.Logger
}

func NewDirectory(s store.Store, ids IDSource, log *zap.Logger) *Directory {
	return &Directory{store: s, ids: ids, log: log}
}

func (d *Directory) load() ([]models.Account, error) {
	var accounts []models.Account
	if _, err := d.store.Read(store.KeyAccounts, &accounts); err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	return accounts, nil
}

func (d *Directory) save(accounts []models.Account) error {
	if err := d.store.Write(store.KeyAccounts, accounts); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}

func indexByHandle(accounts []models.Account, handle string) int {
	for i := range accounts {
		if strings.EqualFold(accounts[i].Handle, handle) {
			return i
		}
	}
	return -1
}

func indexByID(accounts []models.Account, id int64) int {
	for i := range accounts {
		if accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func validateHandle(handle string) error {
	if !strings.HasPrefix(handle, "@") {
		return ErrInvalidHandle
	}
	if n := utf8.RuneCountInString(handle); n < minHandleLen || n > maxHandleLen {
		return ErrInvalidHandle
	}
	return nil
}

// Create registers a new account, online by default.
func (d *Directory) Create(handle, credential string) (*models.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	accounts, err := d.load()
	if err != nil {
		return nil, err
	}

	if indexByHandle(accounts, handle) != -1 {
		return nil, ErrDuplicateHandle
	}
	if err := validateHandle(handle); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(credential) < minCredentialLen {
		return nil, ErrWeakCredential
	}

	id, err := d.ids.Next()
	if err != nil {
		return nil, err
	}

	acct := models.Account{
		ID:         id,
		Handle:     handle,
		Credential: credential,
		Presence:   models.PresenceOnline,
	}
	accounts = append(accounts, acct)
	if err := d.save(accounts); err != nil {
		return nil, err
	}

	d.log.Info("account created", zap.Int64("account_id", id), zap.String("handle", handle))
	return &acct, nil
}

// FindByID returns nil without an error when no account has id.
func (d *Directory) FindByID(id int64) (*models.Account, error) {
	accounts, err := d.load()
	if err != nil {
		return nil, err
	}
	if i := indexByID(accounts, id); i != -1 {
		return &accounts[i], nil
	}
	return nil, nil
}

// FindByHandle matches case-insensitively and returns nil without an error
// when nothing matches.
func (d *Directory) FindByHandle(handle string) (*models.Account, error) {
	accounts, err := d.load()
	if err != nil {
		return nil, err
	}
	if i := indexByHandle(accounts, handle); i != -1 {
		return &accounts[i], nil
	}
	return nil, nil
}

// Search returns the accounts whose handle contains query, ignoring case,
// except excludeID. Queries shorter than two characters match nothing.
func (d *Directory) Search(query string, excludeID int64) ([]models.Account, error) {
	if utf8.RuneCountInString(query) < minQueryLen {
		return []models.Account{}, nil
	}

	accounts, err := d.load()
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	found := []models.Account{}
	for _, a := range accounts {
		if a.ID != excludeID && strings.Contains(strings.ToLower(a.Handle), q) {
			found = append(found, a)
		}
	}
	return found, nil
}

// Update merges patch over the account and refreshes the session snapshot
// when the account is the one logged in.
func (d *Directory) Update(id int64, patch models.AccountPatch) (*models.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.update(id, patch)
}

func (d *Directory) update(id int64, patch models.AccountPatch) (*models.Account, error) {
	accounts, err := d.load()
	if err != nil {
		return nil, err
	}

	i := indexByID(accounts, id)
	if i == -1 {
		return nil, ErrNotFound
	}

	if patch.Handle != nil {
		if j := indexByHandle(accounts, *patch.Handle); j != -1 && accounts[j].ID != id {
			return nil, ErrHandleTaken
		}
		if err := validateHandle(*patch.Handle); err != nil {
			return nil, err
		}
	}
	if patch.Credential != nil && utf8.RuneCountInString(*patch.Credential) < minCredentialLen {
		return nil, ErrWeakCredential
	}

	patch.Apply(&accounts[i])
	if err := d.save(accounts); err != nil {
		return nil, err
	}

	updated := accounts[i]
	current, err := d.session()
	if err != nil {
		return nil, err
	}
	if current != nil && current.ID == id {
		if err := d.setSession(updated); err != nil {
			return nil, err
		}
	}
	return &updated, nil
}
