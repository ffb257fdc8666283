package models

import "time"

type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceAway    Presence = "away"
	PresenceOffline Presence = "offline"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Account is the persisted user record. Credential is stored as entered.
type Account struct {
	ID         int64    `json:"id"`
	Handle     string   `json:"handle"`
	Credential string   `json:"credential"`
	Avatar     string   `json:"avatar,omitempty"`
	Banner     string   `json:"banner,omitempty"`
	Presence   Presence `json:"presence"`
}

// PublicAccount is what the API hands out about an account.
type PublicAccount struct {
	ID       int64    `json:"id"`
	Handle   string   `json:"handle"`
	Avatar   string   `json:"avatar,omitempty"`
	Banner   string   `json:"banner,omitempty"`
	Presence Presence `json:"presence"`
}

func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:       a.ID,
		Handle:   a.Handle,
		Avatar:   a.Avatar,
		Banner:   a.Banner,
		Presence: a.Presence,
	}
}

// AccountPatch lists the fields an update may touch. Nil fields are left
// as they are; an empty Avatar or Banner clears the image.
type AccountPatch struct {
	Handle     *string   `json:"handle,omitempty"`
	Credential *string   `json:"credential,omitempty"`
	Avatar     *string   `json:"avatar,omitempty"`
	Banner     *string   `json:"banner,omitempty"`
	Presence   *Presence `json:"presence,omitempty"`
}

func (p AccountPatch) Apply(a *Account) {
	if p.Handle != nil {
		a.Handle = *p.Handle
	}
	if p.Credential != nil {
		a.Credential = *p.Credential
	}
	if p.Avatar != nil {
		a.Avatar = *p.Avatar
	}
	if p.Banner != nil {
		a.Banner = *p.Banner
	}
	if p.Presence != nil {
		a.Presence = *p.Presence
	}
}

// Chat is one owner's view of the conversation with PartnerID.
type Chat struct {
	ID              int64      `json:"id"`
	PartnerID       int64      `json:"partner_id"`
	PartnerHandle   string     `json:"partner_handle"`
	PartnerAvatar   string     `json:"partner_avatar,omitempty"`
	LastMessageText *string    `json:"last_message_text"`
	LastMessageTime *time.Time `json:"last_message_time"`
	Messages        []Message  `json:"messages"`
	UnreadCount     int        `json:"unread_count"`
}

// Message ids are shared by the two mirrored copies of a sent message.
type Message struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	FromOwner bool      `json:"from_owner"`
}
