package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level structure of a schedule import file. The
// same shape is accepted as JSON or YAML.
type ImportSchema struct {
	Project      ProjectImport      `json:"project" yaml:"project"`
	Nodes        []NodeImport       `json:"nodes" yaml:"nodes"`
	Dependencies []DependencyImport `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// ProjectImport defines the project-level fields in the import file.
type ProjectImport struct {
	ShortID   string `json:"short_id" yaml:"short_id"`
	Name      string `json:"name" yaml:"name"`
	StartDate string `json:"start_date" yaml:"start_date"`
}

// NodeImport defines a WBS node. Parents must appear before their children.
// Order 0 takes the next free position among the siblings.
type NodeImport struct {
	Ref             string          `json:"ref" yaml:"ref"`
	ParentRef       *string         `json:"parent_ref,omitempty" yaml:"parent_ref,omitempty"`
	Name            string          `json:"name" yaml:"name"`
	Order           int             `json:"order,omitempty" yaml:"order,omitempty"`
	Weight          *float64        `json:"weight,omitempty" yaml:"weight,omitempty"`
	PercentComplete float64         `json:"percent_complete,omitempty" yaml:"percent_complete,omitempty"`
	PlannedStart    *string         `json:"planned_start,omitempty" yaml:"planned_start,omitempty"`
	DurationDays    int             `json:"duration_days,omitempty" yaml:"duration_days,omitempty"`
	PlannedCost     float64         `json:"planned_cost,omitempty" yaml:"planned_cost,omitempty"`
	Quantity        float64         `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	QuantityDone    float64         `json:"quantity_done,omitempty" yaml:"quantity_done,omitempty"`
	Milestone       bool            `json:"milestone,omitempty" yaml:"milestone,omitempty"`
	Inspection      bool            `json:"inspection,omitempty" yaml:"inspection,omitempty"`
	DateLocked      bool            `json:"date_locked,omitempty" yaml:"date_locked,omitempty"`
	ManualDates     bool            `json:"manual_dates,omitempty" yaml:"manual_dates,omitempty"`
	Subtasks        []SubtaskImport `json:"subtasks,omitempty" yaml:"subtasks,omitempty"`
}

// SubtaskImport defines a subtask of a leaf node.
type SubtaskImport struct {
	Name         string   `json:"name" yaml:"name"`
	Weight       *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	Quantity     float64  `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	QuantityDone float64  `json:"quantity_done,omitempty" yaml:"quantity_done,omitempty"`
	Status       string   `json:"status,omitempty" yaml:"status,omitempty"`
}

// DependencyImport defines a precedence edge between two nodes. Type
// defaults to FS.
type DependencyImport struct {
	PredecessorRef string `json:"predecessor_ref" yaml:"predecessor_ref"`
	SuccessorRef   string `json:"successor_ref" yaml:"successor_ref"`
	Type           string `json:"type,omitempty" yaml:"type,omitempty"`
	LagDays        int    `json:"lag_days,omitempty" yaml:"lag_days,omitempty"`
}

// LoadImportSchema reads and parses an import file. Files ending in .yaml or
// .yml are read as YAML, everything else as JSON.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON decodes a JSON import document.
func ParseJSON(data []byte) (*ImportSchema, error) {
	var schema ImportSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}

// ParseYAML decodes a YAML import document. Unknown keys are rejected.
func ParseYAML(data []byte) (*ImportSchema, error) {
	var schema ImportSchema
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
