package internal

// MessageKind is the classification of a single session message
type MessageKind int

const (
	KindOther MessageKind = iota
	KindUser
	KindAssistant
	KindError
)

// RoleTable lists the role/type synonyms a provider uses for each kind.
// User and Assistant values match either the role or the type field;
// Error values match the type field only.
type RoleTable struct {
	User      []string
	Assistant []string
	Error     []string
}

// DefaultRoleTables holds the synonym tables of the known providers
var DefaultRoleTables = map[Provider]RoleTable{
	ProviderGemini: {
		User:      []string{"user"},
		Assistant: []string{"gemini", "assistant"},
		Error:     []string{"error"},
	},
	ProviderClaude: {
		User:      []string{"user"},
		Assistant: []string{"assistant", "claude"},
		Error:     []string{"error"},
	},
	ProviderCodex: {
		User:      []string{"user"},
		Assistant: []string{"assistant"},
	},
}

// genericRoleTable is used for providers without an entry
var genericRoleTable = RoleTable{
	User:      []string{"user"},
	Assistant: []string{"assistant"},
	Error:     []string{"error"},
}

// Classifier maps provider-specific messages onto MessageKind and derives
// a session Status from the message sequence.
type Classifier struct {
	tables map[Provider]RoleTable
}

// NewClassifier creates a Classifier over the given tables
func NewClassifier(tables map[Provider]RoleTable) *Classifier {
	return &Classifier{tables: tables}
}

// DefaultClassifier returns a Classifier using DefaultRoleTables
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultRoleTables)
}

func (c *Classifier) table(provider Provider) RoleTable {
	if t, ok := c.tables[provider]; ok {
		return t
	}
	return genericRoleTable
}

// Kind classifies one message. Error wins over assistant, assistant over user.
func (c *Classifier) Kind(provider Provider, msg SessionMessage) MessageKind {
	t := c.table(provider)
	switch {
	case contains(t.Error, msg.Type):
		return KindError
	case t.matches(t.Assistant, msg):
		return KindAssistant
	case t.matches(t.User, msg):
		return KindUser
	default:
		return KindOther
	}
}

// IsUser reports whether msg was authored by the user
func (c *Classifier) IsUser(provider Provider, msg SessionMessage) bool {
	t := c.table(provider)
	return t.matches(t.User, msg)
}

// IsAssistant reports whether msg was authored by the agent
func (c *Classifier) IsAssistant(provider Provider, msg SessionMessage) bool {
	t := c.table(provider)
	return t.matches(t.Assistant, msg)
}

func (t RoleTable) matches(values []string, msg SessionMessage) bool {
	return contains(values, msg.Role) || contains(values, msg.Type)
}

// Status derives the session status from the last message
func (c *Classifier) Status(provider Provider, messages []SessionMessage) Status {
	if len(messages) == 0 {
		return StatusUnknown
	}
	switch c.Kind(provider, messages[len(messages)-1]) {
	case KindError:
		return StatusError
	case KindAssistant:
		return StatusCompleted
	default:
		return StatusIdle
	}
}

// FirstUserMessage returns the content of the first user-authored message
func (c *Classifier) FirstUserMessage(provider Provider, messages []SessionMessage) (string, bool) {
	for _, m := range messages {
		if c.IsUser(provider, m) {
			return m.Body(), true
		}
	}
	return "", false
}

// DisplayName picks the stored name, else the first user message
// truncated to 50 characters, else a placeholder.
func (c *Classifier) DisplayName(provider Provider, session *SessionFile) string {
	if session.Name != "" {
		return session.Name
	}
	if prompt, ok := c.FirstUserMessage(provider, session.Messages); ok {
		return TruncateString(prompt, 50)
	}
	return "Unnamed Session"
}

// TruncateString shortens s to maxLen characters, replacing the tail with
// "...". It counts runes so multi-byte characters are never split.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func contains(values []string, v string) bool {
	if v == "" {
		return false
	}
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
