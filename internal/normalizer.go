package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SessionFile is the on-disk shape shared by the file-backed providers.
// Every field is optional; only an invalid JSON document is rejected.
type SessionFile struct {
	Name     string           `json:"name,omitempty"`
	CWD      string           `json:"cwd,omitempty"`
	Messages []SessionMessage `json:"messages,omitempty"`
}

// SessionMessage is one message of a session file
type SessionMessage struct {
	Role      string `json:"role,omitempty"`
	Type      string `json:"type,omitempty"`
	Content   string `json:"content,omitempty"`
	Text      string `json:"text,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Body returns the message content, falling back to the text field
func (m SessionMessage) Body() string {
	if m.Content != "" {
		return m.Content
	}
	return m.Text
}

// ParseSessionFile decodes a session document
func ParseSessionFile(data []byte) (*SessionFile, error) {
	var session SessionFile
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session JSON: %w", err)
	}
	return &session, nil
}

// ReadSessionFile reads and decodes the session file at path
func ReadSessionFile(path string) (*SessionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}
	session, err := ParseSessionFile(data)
	if err != nil {
		return nil, &ParseError{Source: "session", Key: path, Err: err}
	}
	return session, nil
}

// Normalizer converts parsed session files into Agents
type Normalizer struct {
	classifier *Classifier
}

// NewNormalizer creates a new Normalizer
func NewNormalizer(classifier *Classifier) *Normalizer {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	return &Normalizer{classifier: classifier}
}

// Classifier returns the classifier used by the normalizer
func (n *Normalizer) Classifier() *Classifier {
	return n.classifier
}

// NormalizeSession converts a session file found at path inside the
// project-hash directory projectHash into an Agent.
func (n *Normalizer) NormalizeSession(provider Provider, projectHash, path string, session *SessionFile) Agent {
	rawID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	agent := Agent{
		ID:          AgentID(provider, projectHash, rawID),
		Name:        n.classifier.DisplayName(provider, session),
		Provider:    provider,
		Status:      n.classifier.Status(provider, session.Messages),
		ProjectPath: projectHash,
		FilePath:    path,
		RawID:       rawID,
	}

	if session.CWD != "" {
		agent.ProjectPath = session.CWD
		agent.ProjectName = filepath.Base(session.CWD)
	}

	prompt, _ := n.classifier.FirstUserMessage(provider, session.Messages)
	agent.TaskDescription = prompt

	if len(session.Messages) > 0 {
		agent.CreatedAt = session.Messages[0].Timestamp
		agent.LastUpdated = session.Messages[len(session.Messages)-1].Timestamp
	}

	return agent
}

// Conversation returns the user and assistant messages of a session with
// their roles normalized to "user" and "assistant".
func (n *Normalizer) Conversation(provider Provider, session *SessionFile) []ConversationMessage {
	conversation := make([]ConversationMessage, 0, len(session.Messages))
	for _, m := range session.Messages {
		var role string
		switch {
		case n.classifier.IsUser(provider, m):
			role = "user"
		case n.classifier.IsAssistant(provider, m):
			role = "assistant"
		default:
			continue
		}
		conversation = append(conversation, ConversationMessage{
			Role:      role,
			Content:   m.Body(),
			Timestamp: m.Timestamp,
		})
	}
	return conversation
}
