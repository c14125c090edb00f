package internal

// CreateTestAgent creates an agent with the fields the listing relies on
func CreateTestAgent(provider Provider, rawID, lastUpdated string) Agent {
	return Agent{
		ID:          AgentID(provider, "", rawID),
		Name:        "Agent " + rawID,
		Provider:    provider,
		Status:      StatusRunning,
		ProjectPath: "/work/" + rawID,
		ProjectName: rawID,
		LastUpdated: lastUpdated,
		CreatedAt:   lastUpdated,
		RawID:       rawID,
	}
}

// CreateTestAgentDetail creates a detail record with a short conversation
// and one changed file
func CreateTestAgentDetail(provider Provider, rawID string) *AgentDetail {
	return &AgentDetail{
		Agent: CreateTestAgent(provider, rawID, "2025-01-02T10:05:00Z"),
		Conversation: []ConversationMessage{
			{Role: "user", Content: "Hello, how are you?", Timestamp: "2025-01-02T10:00:00Z"},
			{Role: "assistant", Content: "I'm doing well, thank you!", Timestamp: "2025-01-02T10:05:00Z"},
		},
		FilesChanged: []FileChange{
			{Path: "main.go", ChangeType: "modified", Additions: IntPtr(3), Deletions: IntPtr(1)},
		},
	}
}
