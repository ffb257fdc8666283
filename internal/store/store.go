package store

// Keys of the four logical records plus the id counter.
const (
	KeyAccounts = "nexus_users"
	KeyChats    = "nexus_chats"
	KeyTheme    = "nexus_theme"
	KeySession  = "nexus_current_user"
	KeySequence = "nexus_seq"
)

// Store is a synchronous key-value store of JSON documents.
//
// Read decodes the value under key into dst and reports whether the key
// existed; a missing key is not an error. Every Read decodes afresh, so
// callers never share memory with the stored value. Write returns once the
// value is durable.
type Store interface {
	Read(key string, dst any) (bool, error)
	Write(key string, value any) error
	Delete(key string) error
	Close() error
}
