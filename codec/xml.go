package codec

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/phanxgames/junctionbox"
)

// XMLCodec reads and writes the legacy XML layout: a <junctionbox> root with
// <junction> elements and an <eventQueue> of <event> elements carrying
// integer type codes and millisecond delays.
type XMLCodec struct{}

// NewXMLCodec creates a new XML codec
func NewXMLCodec() *XMLCodec {
	return &XMLCodec{}
}

// Format returns the codec format identifier
func (c *XMLCodec) Format() string {
	return "xml"
}

type xmlDocument struct {
	XMLName   xml.Name      `xml:"junctionbox"`
	Junctions []xmlJunction `xml:"junction"`
	Queue     *xmlQueue     `xml:"eventQueue"`
}

type xmlJunction struct {
	Order   int     `xml:"order"`
	Label   string  `xml:"label"`
	CenterX float64 `xml:"centerX"`
	CenterY float64 `xml:"centerY"`
	Width   float64 `xml:"width"`
	Height  float64 `xml:"height"`
	Angle   float64 `xml:"angle"`
	Toggle  bool    `xml:"toggle"`
}

type xmlQueue struct {
	Events []xmlEvent `xml:"event"`
}

type xmlEvent struct {
	Type  int     `xml:"type"`
	ID    int     `xml:"id"`
	X     float64 `xml:"x"`
	Y     float64 `xml:"y"`
	Delay int64   `xml:"delay"`
}

// Parse imports a document from the legacy XML layout
func (c *XMLCodec) Parse(r io.Reader) (junctionbox.Document, error) {
	var xd xmlDocument
	if err := xml.NewDecoder(r).Decode(&xd); err != nil {
		return junctionbox.Document{}, fmt.Errorf("failed to parse XML: %w", err)
	}

	var doc junctionbox.Document
	for _, j := range xd.Junctions {
		doc.Junctions = append(doc.Junctions, junctionbox.JunctionRecord(j))
	}
	if xd.Queue == nil {
		return doc, nil
	}
	for i, e := range xd.Queue.Events {
		if e.Type < int(junctionbox.EventAdd) || e.Type > int(junctionbox.EventRemove) {
			return junctionbox.Document{}, fmt.Errorf("failed to parse XML: event %d: unknown type %d", i, e.Type)
		}
		doc.Events = append(doc.Events, junctionbox.EventRecord{
			Type:  junctionbox.EventType(e.Type),
			ID:    e.ID,
			X:     e.X,
			Y:     e.Y,
			Delay: time.Duration(e.Delay) * time.Millisecond,
		})
	}
	return doc, nil
}

// Export exports a document to the legacy XML layout. Delays are rounded to
// whole milliseconds.
func (c *XMLCodec) Export(doc junctionbox.Document, w io.Writer) error {
	xd := xmlDocument{}
	for _, j := range doc.Junctions {
		xd.Junctions = append(xd.Junctions, xmlJunction(j))
	}
	if len(doc.Events) > 0 {
		xd.Queue = &xmlQueue{}
		for _, e := range doc.Events {
			xd.Queue.Events = append(xd.Queue.Events, xmlEvent{
				Type:  int(e.Type),
				ID:    e.ID,
				X:     e.X,
				Y:     e.Y,
				Delay: int64(math.Round(toMillis(e.Delay))),
			})
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to encode XML: %w", err)
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(xd); err != nil {
		return fmt.Errorf("failed to encode XML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to encode XML: %w", err)
	}
	return nil
}
