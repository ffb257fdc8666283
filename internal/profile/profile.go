package profile

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pliu/nexuschat/internal/apperr"
	"github.com/pliu/nexuschat/internal/models"
	"github.com/pliu/nexuschat/internal/store"
)

const maxImageBytes = 5 << 20

var (
	ErrInvalidTheme = apperr.InvalidArg("theme must be light or dark")
	ErrInvalidImage = apperr.InvalidArg("image must be an image data URL of at most 5 MB")
)

// Accounts is the part of the account directory the profile needs.
type Accounts interface {
	Update(id int64, patch models.AccountPatch) (*models.Account, error)
	SessionAccount() (*models.Account, error)
}

type Service struct {
	accounts Accounts
	store    store.Store
}

func NewService(accounts Accounts, s store.Store) *Service {
	return &Service{accounts: accounts, store: s}
}

func (s *Service) SessionAccount() (*models.Account, error) {
	return s.accounts.SessionAccount()
}

func (s *Service) UpdateProfile(id int64, patch models.AccountPatch) (*models.Account, error) {
	if patch.Avatar != nil {
		if err := validateImage(*patch.Avatar); err != nil {
			return nil, err
		}
	}
	if patch.Banner != nil {
		if err := validateImage(*patch.Banner); err != nil {
			return nil, err
		}
	}
	return s.accounts.Update(id, patch)
}

func (s *Service) UpdateAvatar(id int64, image string) (*models.Account, error) {
	if err := validateImage(image); err != nil {
		return nil, err
	}
	return s.accounts.Update(id, models.AccountPatch{Avatar: &image})
}

func (s *Service) UpdateBanner(id int64, image string) (*models.Account, error) {
	if err := validateImage(image); err != nil {
		return nil, err
	}
	return s.accounts.Update(id, models.AccountPatch{Banner: &image})
}

// Theme returns the stored theme, light when none is stored.
func (s *Service) Theme() (models.Theme, error) {
	var theme models.Theme
	found, err := s.store.Read(store.KeyTheme, &theme)
	if err != nil {
		return "", fmt.Errorf("load theme: %w", err)
	}
	if !found || !theme.Valid() {
		return models.ThemeLight, nil
	}
	return theme, nil
}

func (s *Service) SetTheme(theme models.Theme) error {
	if !theme.Valid() {
		return ErrInvalidTheme
	}
	if err := s.store.Write(store.KeyTheme, theme); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// validateImage accepts "data:image/<type>;base64,<payload>". An empty
// string is allowed and clears the image.
func validateImage(image string) error {
	if image == "" {
		return nil
	}

	header, payload, ok := strings.Cut(image, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return ErrInvalidImage
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxImageBytes+2 {
		return ErrInvalidImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) > maxImageBytes {
		return ErrInvalidImage
	}
	return nil
}
