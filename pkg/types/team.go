package types

import "time"

// Team is an ordered collection of agent configs persisted under one name.
// The agent order is the broadcast order.
type Team struct {
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Agents    []AgentConfig `json:"agents"`
}

// AgentByID returns the config with the given id, or false.
func (t *Team) AgentByID(id string) (AgentConfig, bool) {
	for _, a := range t.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentConfig{}, false
}

