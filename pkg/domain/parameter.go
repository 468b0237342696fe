package domain

import "regexp"

// Parameter is a user parameter as read from the host.
// The core never keeps a Parameter between requests; the host owns the data.
type Parameter struct {
	Name       string  `json:"name"`
	Expression string  `json:"expression"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Comment    string  `json:"comment"`
	IsFavorite bool    `json:"isFavorite"`
}

// Snapshot is the parameter table of the active document, in host enumeration order.
type Snapshot struct {
	DocName    string      `json:"doc_name"`
	Parameters []Parameter `json:"parameters"`
}

// Find returns the parameter with the given name, if present.
func (s *Snapshot) Find(name string) (Parameter, bool) {
	if s == nil {
		return Parameter{}, false
	}
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// ScanFailure is the update_ui payload sent when the table cannot be read.
type ScanFailure struct {
	Error string `json:"error"`
}

var versionSuffix = regexp.MustCompile(`\s+v\d+$`)

// CleanDocumentName strips the trailing " v<N>" version suffix hosts append to document names.
func CleanDocumentName(name string) string {
	return versionSuffix.ReplaceAllString(name, "")
}
