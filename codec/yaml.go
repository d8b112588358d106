package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/phanxgames/junctionbox"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlDocument represents the YAML structure for a document
type yamlDocument struct {
	Junctions []yamlJunction `yaml:"junctions"`
	Events    []yamlEvent    `yaml:"events,omitempty"`
}

type yamlJunction struct {
	Order   int     `yaml:"order"`
	Label   string  `yaml:"label"`
	CenterX float64 `yaml:"center_x"`
	CenterY float64 `yaml:"center_y"`
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	Angle   float64 `yaml:"angle"`
	Toggle  bool    `yaml:"toggle,omitempty"`
}

type yamlEvent struct {
	Type    junctionbox.EventType `yaml:"type"`
	ID      int                   `yaml:"id"`
	X       float64               `yaml:"x"`
	Y       float64               `yaml:"y"`
	DelayMs float64               `yaml:"delay_ms"`
}

// Parse imports a document from YAML
func (c *YAMLCodec) Parse(r io.Reader) (junctionbox.Document, error) {
	var yd yamlDocument
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yd); err != nil {
		return junctionbox.Document{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	var doc junctionbox.Document
	for _, yj := range yd.Junctions {
		doc.Junctions = append(doc.Junctions, junctionbox.JunctionRecord{
			Order:   yj.Order,
			Label:   yj.Label,
			CenterX: yj.CenterX,
			CenterY: yj.CenterY,
			Width:   yj.Width,
			Height:  yj.Height,
			Angle:   yj.Angle,
			Toggle:  yj.Toggle,
		})
	}
	for _, ye := range yd.Events {
		doc.Events = append(doc.Events, junctionbox.EventRecord{
			Type:  ye.Type,
			ID:    ye.ID,
			X:     ye.X,
			Y:     ye.Y,
			Delay: fromMillis(ye.DelayMs),
		})
	}
	return doc, nil
}

// Export exports a document to YAML
func (c *YAMLCodec) Export(doc junctionbox.Document, w io.Writer) error {
	yd := yamlDocument{
		Junctions: make([]yamlJunction, 0, len(doc.Junctions)),
		Events:    make([]yamlEvent, 0, len(doc.Events)),
	}
	for _, j := range doc.Junctions {
		yd.Junctions = append(yd.Junctions, yamlJunction{
			Order:   j.Order,
			Label:   j.Label,
			CenterX: j.CenterX,
			CenterY: j.CenterY,
			Width:   j.Width,
			Height:  j.Height,
			Angle:   j.Angle,
			Toggle:  j.Toggle,
		})
	}
	for _, e := range doc.Events {
		yd.Events = append(yd.Events, yamlEvent{
			Type:    e.Type,
			ID:      e.ID,
			X:       e.X,
			Y:       e.Y,
			DelayMs: toMillis(e.Delay),
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yd); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}
