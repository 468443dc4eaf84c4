package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// MarkServiced returns a copy of reg with at added to the service history of
// the first component called name. reg itself is left untouched.
func MarkServiced(reg Reader, name string, at time.Time) (*Registry, error) {
	var (
		components []Component
		found      bool
	)
	for c := range reg.Components() {
		if !found && c.name == name {
			c = NewComponent(c.name, c.interval, append(c.Serviced(), at)...)
			found = true
		}
		components = append(components, c)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, name)
	}
	return &Registry{components: components}, nil
}

type encodedComponent struct {
	Name     string      `json:"name"`
	Interval string      `json:"interval"`
	Serviced []time.Time `json:"serviced"`
}

// Encode writes reg in the document format Load reads.
func Encode(w io.Writer, reg Reader) error {
	docs := make([]encodedComponent, 0, reg.Len())
	for c := range reg.Components() {
		docs = append(docs, encodedComponent{
			Name:     c.name,
			Interval: FormatInterval(c.interval),
			Serviced: c.Serviced(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	return nil
}
