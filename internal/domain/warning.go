package domain

import "fmt"

// Stage names the pipeline step that recorded a warning.
type Stage string

const (
	StageExtraction Stage = "extraction"
	StageLowering   Stage = "lowering"
	StageEmission   Stage = "emission"
)

// Warning is a non-fatal diagnostic. Warnings are accumulated and returned with
// results, never raised.
type Warning struct {
	Stage   Stage  `json:"stage"`
	Schema  string `json:"schema"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// String renders the warning as "<stage>: <schema><path>: <message>".
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s%s: %s", w.Stage, w.Schema, w.Path, w.Message)
}
