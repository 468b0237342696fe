package memory

// ParameterSpec describes one parameter of a document.
type ParameterSpec struct {
	Name       string `yaml:"name" json:"name"`
	Expression string `yaml:"expression" json:"expression"`
	Unit       string `yaml:"unit" json:"unit"`
	Comment    string `yaml:"comment,omitempty" json:"comment,omitempty"`
	Favorite   bool   `yaml:"favorite,omitempty" json:"favorite,omitempty"`
}

// DocumentSpec describes a document: its user parameters and the
// parameters derived from model features, which share the namespace.
type DocumentSpec struct {
	Name string `yaml:"name" json:"name"`
	// NoFavorites emulates hosts that have no concept of favorite parameters.
	NoFavorites     bool            `yaml:"no_favorites,omitempty" json:"no_favorites,omitempty"`
	Parameters      []ParameterSpec `yaml:"parameters" json:"parameters"`
	ModelParameters []ParameterSpec `yaml:"model_parameters,omitempty" json:"model_parameters,omitempty"`
}

// HostSpec is the full state of the reference host.
type HostSpec struct {
	ActiveCommand  string         `yaml:"active_command,omitempty" json:"active_command,omitempty"`
	ActiveDocument string         `yaml:"active_document,omitempty" json:"active_document,omitempty"`
	Documents      []DocumentSpec `yaml:"documents" json:"documents"`
}
