package domain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Column is one board lane a task can be grouped under.
type Column struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Terminal bool   `json:"terminal,omitempty" yaml:"terminal"`
}

// ArchivePolicy controls how archiving interacts with columns.
type ArchivePolicy struct {
	RequireTerminalColumn bool `json:"requireTerminalColumn" yaml:"requireTerminalColumn"`
}

// BoardConfig represents the user configurable board layout.
type BoardConfig struct {
	Columns []Column      `json:"columns" yaml:"columns"`
	Archive ArchivePolicy `json:"archive" yaml:"archive"`
}

// DefaultBoard is used when no board file is configured.
func DefaultBoard() BoardConfig {
	return BoardConfig{Columns: []Column{
		{ID: "todo", Title: "To Do"},
		{ID: "in-progress", Title: "In Progress"},
		{ID: "done", Title: "Done", Terminal: true},
	}}
}

// LoadBoard reads a YAML board file.
func LoadBoard(path string) (BoardConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BoardConfig{}, fmt.Errorf("read board config: %w", err)
	}
	return ParseBoard(raw)
}

// ParseBoard decodes and validates a YAML board definition.
func ParseBoard(raw []byte) (BoardConfig, error) {
	var cfg BoardConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return BoardConfig{}, fmt.Errorf("parse board config: %w", err)
	}
	if len(cfg.Columns) == 0 {
		return BoardConfig{}, fmt.Errorf("board config: at least one column is required")
	}
	seen := make(map[string]struct{}, len(cfg.Columns))
	for i, col := range cfg.Columns {
		id := strings.TrimSpace(col.ID)
		if id == "" {
			return BoardConfig{}, fmt.Errorf("board config: column %d has no id", i)
		}
		if _, dup := seen[id]; dup {
			return BoardConfig{}, fmt.Errorf("board config: duplicate column %q", id)
		}
		seen[id] = struct{}{}
		cfg.Columns[i].ID = id
		if cfg.Columns[i].Title == "" {
			cfg.Columns[i].Title = id
		}
	}
	return cfg, nil
}

// HasColumn reports whether id is a configured column. An empty column set
// accepts any value.
func (b BoardConfig) HasColumn(id string) bool {
	if len(b.Columns) == 0 {
		return id != ""
	}
	for _, c := range b.Columns {
		if c.ID == id {
			return true
		}
	}
	return false
}

// IsTerminal reports whether id is a terminal column such as "done".
func (b BoardConfig) IsTerminal(id string) bool {
	for _, c := range b.Columns {
		if c.ID == id {
			return c.Terminal
		}
	}
	return false
}

// DefaultColumn is the column new tasks land in.
func (b BoardConfig) DefaultColumn() string {
	if len(b.Columns) == 0 {
		return "todo"
	}
	return b.Columns[0].ID
}
