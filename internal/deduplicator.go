package internal

// Deduplicator removes agents reported more than once, e.g. when the same
// session directory is reachable through two configured roots.
type Deduplicator struct{}

// NewDeduplicator creates a new Deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Deduplicate keeps the first agent for every id, preserving order
func (d *Deduplicator) Deduplicate(agents []Agent) []Agent {
	seen := make(map[string]bool, len(agents))
	unique := make([]Agent, 0, len(agents))

	for _, agent := range agents {
		if seen[agent.ID] {
			continue
		}
		seen[agent.ID] = true
		unique = append(unique, agent)
	}

	return unique
}
