package expression

import "time"

// Evaluation is the text and value derived from the forest.
// Result is nil when there is nothing to show.
type Evaluation struct {
	Expression string `json:"expression"`
	Result     any    `json:"result"`
	Error      string `json:"errMsg"`
}

// State is a point-in-time view of an editor.
type State struct {
	Forest     Forest     `json:"blocks"`
	Evaluation Evaluation `json:"evaluation"`
	Constants  []string   `json:"constants"`
	MathLoaded bool       `json:"mathLoaded"`
}

// Workspace is a persisted editor instance.
type Workspace struct {
	ID         string     `json:"id" db:"id"`
	OwnerID    string     `json:"owner_id" db:"owner_id"`
	Name       string     `json:"name" db:"name"`
	Settings   Settings   `json:"settings" db:"settings"`
	Forest     Forest     `json:"blocks" db:"forest"`
	Evaluation Evaluation `json:"evaluation" db:"evaluation"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// Apply copies editor state into the workspace.
func (w *Workspace) Apply(settings Settings, state State) {
	w.Settings = settings
	w.Forest = state.Forest
	w.Evaluation = state.Evaluation
}
