package domain

// Member is a workspace member as reported by the chat platform.
type Member struct {
	ID          string
	Name        string // handle, e.g. "jane.doe"
	DisplayName string
	IsBot       bool
	IsDeleted   bool
	IsAdmin     bool // admins and owners
	HasProfile  bool // has an email on file; system accounts do not
}

// Label returns the name shown in the directory, falling back to the
// handle when no display name is set.
func (m Member) Label() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Name
}

// Human reports whether the member belongs in the birthday directory.
func (m Member) Human() bool {
	return !m.IsBot && !m.IsDeleted && m.HasProfile
}

// Identity is the bot's own identity on the platform. BotID is the
// bot-account identifier that appears on messages the bot authored.
type Identity struct {
	UserID string
	BotID  string
}

// DirectoryEntry joins a live member with the stored birthday, if any.
type DirectoryEntry struct {
	Member   Member
	Birthday *Birthday
}
