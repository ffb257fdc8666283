package accounts

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pliu/nexuschat/internal/models"
	"github.com/pliu/nexuschat/internal/store"
)

func (d *Directory) session() (*models.Account, error) {
	var acct models.Account
	found, err := d.store.Read(store.KeySession, &acct)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &acct, nil
}

func (d *Directory) setSession(acct models.Account) error {
	if err := d.store.Write(store.KeySession, acct); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SessionAccount returns the snapshot of the logged-in account, or nil when
// nobody is logged in.
func (d *Directory) SessionAccount() (*models.Account, error) {
	return d.session()
}

// Authenticate checks the credential, marks the account online and makes
// it the session account. An account that held the session before is
// marked offline.
func (d *Directory) Authenticate(handle, credential string) (*models.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	accounts, err := d.load()
	if err != nil {
		return nil, err
	}

	i := indexByHandle(accounts, handle)
	if i == -1 {
		return nil, ErrNotFound
	}
	if accounts[i].Credential != credential {
		return nil, ErrWrongCredential
	}

	// A login takes the session over; the previous holder goes offline.
	current, err := d.session()
	if err != nil {
		return nil, err
	}
	if current != nil && current.ID != accounts[i].ID {
		offline := models.PresenceOffline
		if _, err := d.update(current.ID, models.AccountPatch{Presence: &offline}); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		d.log.Info("session replaced", zap.Int64("account_id", current.ID), zap.Int64("by_account_id", accounts[i].ID))
	}

	online := models.PresenceOnline
	acct, err := d.update(accounts[i].ID, models.AccountPatch{Presence: &online})
	if err != nil {
		return nil, err
	}
	if err := d.setSession(*acct); err != nil {
		return nil, err
	}

	d.log.Info("session started", zap.Int64("account_id", acct.ID))
	return acct, nil
}

// Register creates an account and logs it in.
func (d *Directory) Register(handle, credential string) (*models.Account, error) {
	if _, err := d.Create(handle, credential); err != nil {
		return nil, err
	}
	return d.Authenticate(handle, credential)
}

// EndSession marks the session account offline and clears the pointer.
// Calling it without a session is a no-op.
func (d *Directory) EndSession() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, err := d.session()
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}

	offline := models.PresenceOffline
	if _, err := d.update(current.ID, models.AccountPatch{Presence: &offline}); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := d.store.Delete(store.KeySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	d.log.Info("session ended", zap.Int64("account_id", current.ID))
	return nil
}
