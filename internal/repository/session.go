package repository

// SessionState is the serializable list of open buffers of an editing session
type SessionState struct {
	Open   []string `json:"open"`             // absolute file paths in open order
	Active string   `json:"active,omitempty"` // absolute path of the focused buffer
}

// SessionStateRepository persists the open/active buffer list between runs
type SessionStateRepository interface {
	Load() (SessionState, error)
	Save(state SessionState) error
}
