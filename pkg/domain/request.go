package domain

// Action is the wire name of an inbound UI action.
type Action string

const (
	ActionRefreshData      Action = "refresh_data"
	ActionUpdateParam      Action = "update_param"
	ActionUpdateAttributes Action = "update_attributes"
	ActionToggleFavorite   Action = "toggle_favorite"
	ActionCreateParam      Action = "create_param"
	ActionDeleteParam      Action = "delete_param"
)

// Actions lists every inbound action in wire order.
var Actions = []Action{
	ActionRefreshData,
	ActionUpdateParam,
	ActionUpdateAttributes,
	ActionToggleFavorite,
	ActionCreateParam,
	ActionDeleteParam,
}

// Request is an inbound UI action.
// The set of implementations is closed: only the types in this file satisfy it.
type Request interface {
	Action() Action
	// Writes reports whether the action mutates host state and is therefore gated.
	Writes() bool
	isRequest()
}

// RefreshData asks for a full resync. It is never gated.
type RefreshData struct{}

// UpdateParam replaces the expression of an existing parameter.
type UpdateParam struct {
	Name  string `json:"name" mapstructure:"name"`
	Value string `json:"value" mapstructure:"value"` // New expression
}

// UpdateAttributes renames a parameter and sets its comment.
type UpdateAttributes struct {
	OldName string `json:"old_name" mapstructure:"old_name"`
	NewName string `json:"new_name" mapstructure:"new_name"`
	Comment string `json:"comment" mapstructure:"comment"`
}

// ToggleFavorite flips the favorite flag of a parameter.
type ToggleFavorite struct {
	Name string `json:"name" mapstructure:"name"`
}

// CreateParam creates a new user parameter.
type CreateParam struct {
	Name       string `json:"name" mapstructure:"name"`
	Unit       string `json:"unit" mapstructure:"unit"`
	Expression string `json:"expression" mapstructure:"expression"`
	Comment    string `json:"comment" mapstructure:"comment"`
}

// DeleteParam deletes a user parameter.
type DeleteParam struct {
	Name string `json:"name" mapstructure:"name"`
}

func (RefreshData) Action() Action      { return ActionRefreshData }
func (UpdateParam) Action() Action      { return ActionUpdateParam }
func (UpdateAttributes) Action() Action { return ActionUpdateAttributes }
func (ToggleFavorite) Action() Action   { return ActionToggleFavorite }
func (CreateParam) Action() Action      { return ActionCreateParam }
func (DeleteParam) Action() Action      { return ActionDeleteParam }

func (RefreshData) Writes() bool      { return false }
func (UpdateParam) Writes() bool      { return true }
func (UpdateAttributes) Writes() bool { return true }
func (ToggleFavorite) Writes() bool   { return true }
func (CreateParam) Writes() bool      { return true }
func (DeleteParam) Writes() bool      { return true }

func (RefreshData) isRequest()      {}
func (UpdateParam) isRequest()      {}
func (UpdateAttributes) isRequest() {}
func (ToggleFavorite) isRequest()   {}
func (CreateParam) isRequest()      {}
func (DeleteParam) isRequest()      {}
