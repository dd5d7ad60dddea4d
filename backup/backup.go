/*
Package backup exports and restores the full cycle history.

FORMAT:
  A versioned document holding every cycle. Dates are ISO days; an ongoing
  cycle has no end_date (omitted, never "0" or "").

    version: 1
    exported_at: 2025-03-01T08:00:00Z
    cycles:
      - id: 2
        start_date: "2025-02-01"
      - id: 1
        start_date: "2025-01-03"
        end_date: "2025-01-08"

  JSON carries the same fields.

RESTORE:
  Decode, validate every record, then ReplaceAll in one transaction. A
  single bad record aborts the restore and leaves existing data untouched.
*/
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lunarlog/cycle-engine/cycle"
)

// CurrentVersion is the document version written by Export.
const CurrentVersion = 1

// Format selects the encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	// ErrUnknownFormat is returned for formats other than json and yaml.
	ErrUnknownFormat = errors.New("unknown backup format")

	// ErrUnsupportedVersion is returned for documents newer than CurrentVersion.
	ErrUnsupportedVersion = errors.New("unsupported backup version")
)

// ParseFormat accepts "json", "yaml" or "yml" (case-insensitive). Empty
// means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Document is the serialised backup.
type Document struct {
	Version    int       `json:"version" yaml:"version"`
	ExportedAt time.Time `json:"exported_at" yaml:"exported_at"`
	Cycles     []Record  `json:"cycles" yaml:"cycles"`
}

// Record is one cycle in a backup.
type Record struct {
	ID        int64   `json:"id" yaml:"id"`
	StartDate string  `json:"start_date" yaml:"start_date"`
	EndDate   *string `json:"end_date,omitempty" yaml:"end_date,omitempty"`
}

// Lister is the read side needed by Export.
type Lister interface {
	ListAll(ctx context.Context) ([]cycle.Cycle, error)
}

// Replacer is the write side needed by Import.
type Replacer interface {
	ReplaceAll(ctx context.Context, cycles []cycle.Cycle) error
}

// =============================================================================
// EXPORT
// =============================================================================

// Export serialises every cycle from src.
func Export(ctx context.Context, src Lister, format Format, now time.Time) ([]byte, error) {
	cycles, err := src.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return Encode(NewDocument(cycles, now), format)
}

// NewDocument builds a Document from cycles.
func NewDocument(cycles []cycle.Cycle, now time.Time) Document {
	doc := Document{
		Version:    CurrentVersion,
		ExportedAt: now.UTC().Truncate(time.Second),
		Cycles:     make([]Record, 0, len(cycles)),
	}
	for _, c := range cycles {
		r := Record{ID: c.ID, StartDate: c.StartDate.String()}
		if c.EndDate != nil {
			end := c.EndDate.String()
			r.EndDate = &end
		}
		doc.Cycles = append(doc.Cycles, r)
	}
	return doc
}

// Encode writes doc in the given format.
func Encode(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// =============================================================================
// IMPORT
// =============================================================================

// Decode parses a document and converts it to cycles.
func Decode(data []byte, format Format) ([]cycle.Cycle, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}

	if doc.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	return doc.ToCycles()
}

// ToCycles converts and validates every record.
func (d Document) ToCycles() ([]cycle.Cycle, error) {
	cycles := make([]cycle.Cycle, 0, len(d.Cycles))
	for i, r := range d.Cycles {
		start, err := cycle.ParseDay(r.StartDate)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w: %v", i, cycle.ErrInvalidCycle, err)
		}
		c := cycle.Cycle{ID: r.ID, StartDate: start}
		if r.EndDate != nil {
			end, err := cycle.ParseDay(*r.EndDate)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w: %v", i, cycle.ErrInvalidCycle, err)
			}
			c.EndDate = &end
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		cycles = append(cycles, c)
	}
	return cycles, nil
}

// Import decodes data and atomically replaces the contents of dst.
func Import(ctx context.Context, dst Replacer, data []byte, format Format) (int, error) {
	cycles, err := Decode(data, format)
	if err != nil {
		return 0, err
	}
	if err := dst.ReplaceAll(ctx, cycles); err != nil {
		return 0, fmt.Errorf("restore: %w", err)
	}
	return len(cycles), nil
}
