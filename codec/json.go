package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/phanxgames/junctionbox"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

type jsonDocument struct {
	Junctions []jsonJunction `json:"junctions"`
	Events    []jsonEvent    `json:"events,omitempty"`
}

type jsonJunction struct {
	Order   int     `json:"order"`
	Label   string  `json:"label"`
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Angle   float64 `json:"angle"`
	Toggle  bool    `json:"toggle,omitempty"`
}

type jsonEvent struct {
	Type    junctionbox.EventType `json:"type"`
	ID      int                   `json:"id"`
	X       float64               `json:"x"`
	Y       float64               `json:"y"`
	DelayMs float64               `json:"delayMs"`
}

// Parse imports a document from JSON
func (c *JSONCodec) Parse(r io.Reader) (junctionbox.Document, error) {
	var jd jsonDocument
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&jd); err != nil {
		return junctionbox.Document{}, fmt.Errorf("failed to parse JSON: %w", err)
	}

	var doc junctionbox.Document
	for _, j := range jd.Junctions {
		doc.Junctions = append(doc.Junctions, junctionbox.JunctionRecord(j))
	}
	for _, e := range jd.Events {
		doc.Events = append(doc.Events, junctionbox.EventRecord{
			Type: e.Type, ID: e.ID, X: e.X, Y: e.Y, Delay: fromMillis(e.DelayMs),
		})
	}
	return doc, nil
}

// Export exports a document to JSON
func (c *JSONCodec) Export(doc junctionbox.Document, w io.Writer) error {
	jd := jsonDocument{Junctions: make([]jsonJunction, 0, len(doc.Junctions))}
	for _, j := range doc.Junctions {
		jd.Junctions = append(jd.Junctions, jsonJunction(j))
	}
	for _, e := range doc.Events {
		jd.Events = append(jd.Events, jsonEvent{
			Type: e.Type, ID: e.ID, X: e.X, Y: e.Y, DelayMs: toMillis(e.Delay),
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(jd); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
