package types

// HubStats summarizes the open workspaces
type HubStats struct {
	Workspaces   int            `json:"workspaces"`
	Users        int            `json:"users"`
	Cards        int            `json:"cards"`
	PendingSaves int            `json:"pending_saves"`
	Modes        map[string]int `json:"modes"`
}
