// Package export writes stored session results as JSON or YAML.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/typemeter/internal/metrics"
	"github.com/verte-zerg/typemeter/internal/model"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Record is the exported shape of one finished session.
type Record struct {
	ID        string `json:"id" yaml:"id"`
	StartedAt string `json:"startedAt" yaml:"startedAt"`
	EndedAt   string `json:"endedAt" yaml:"endedAt"`
	Mode      string `json:"mode" yaml:"mode"`
	Lang      string `json:"lang" yaml:"lang"`
	Content   string `json:"content" yaml:"content"`
	TargetLen int    `json:"targetLength" yaml:"targetLength"`
	XP        int    `json:"xp" yaml:"xp"`
	metrics.Result `yaml:",inline"`
}

// NewRecord converts a stored session into its exported form.
func NewRecord(rec model.SessionRecord) Record {
	return Record{
		ID:        rec.UUID,
		StartedAt: rec.StartedAt.UTC().Format(time.RFC3339),
		EndedAt:   rec.EndedAt.UTC().Format(time.RFC3339),
		Mode:      rec.Mode,
		Lang:      rec.Lang,
		Content:   rec.Content,
		TargetLen: rec.TargetLen,
		XP:        rec.XP,
		Result:    rec.Result,
	}
}

// ParseFormat normalizes a format name.
func ParseFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use json or yaml)", name)
	}
}

// Write encodes sessions to w in the given format.
func Write(w io.Writer, format string, sessions []model.SessionRecord) error {
	records := make([]Record, len(sessions))
	for i, s := range sessions {
		records[i] = NewRecord(s)
	}
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(records); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
