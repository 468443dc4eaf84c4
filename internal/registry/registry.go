// Package registry loads the hand-maintained list of tracked components and
// their service history.
//
// The document is a JSON array:
//
//	[
//	  {
//	    "name": "Fox 36 lower leg service",
//	    "interval": "50h",
//	    "serviced": ["2024-01-01T00:00:00Z"]
//	  }
//	]
//
// Intervals are unit-suffixed terms such as "50h", "30days" or "1week 2d".
// Service dates are RFC 3339.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goodtune/svcint/internal/faults"
	str2duration "github.com/xhit/go-str2duration/v2"
)

var (
	// ErrInvalidDocument wraps every decoding and validation failure.
	ErrInvalidDocument = errors.New("invalid registry document")
	// ErrUnknownComponent is returned when a name is not in the registry.
	ErrUnknownComponent = errors.New("unknown component")
)

// Reader is the read-only view of a registry. Nothing that computes service
// intervals needs more than this.
type Reader interface {
	Components() iter.Seq[Component]
	Lookup(name string) (Component, bool)
	Len() int
}

// Component is a tracked part.
type Component struct {
	name     string
	interval time.Duration
	serviced []time.Time
}

// NewComponent builds a component. Service dates are normalized to UTC,
// sorted and deduplicated by instant.
func NewComponent(name string, interval time.Duration, serviced ...time.Time) Component {
	dates := make([]time.Time, 0, len(serviced))
	for _, ts := range serviced {
		dates = append(dates, ts.UTC())
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	dates = slices.CompactFunc(dates, func(a, b time.Time) bool { return a.Equal(b) })
	return Component{name: name, interval: interval, serviced: dates}
}

// Name of the component as written in the registry.
func (c Component) Name() string { return c.name }

// Interval is the usage time allowed between services.
func (c Component) Interval() time.Duration { return c.interval }

// Serviced returns the distinct service dates, oldest first.
func (c Component) Serviced() []time.Time { return slices.Clone(c.serviced) }

// LastServiced returns the most recent service date. ok is false for a
// component that has never been serviced.
func (c Component) LastServiced() (last time.Time, ok bool) {
	if len(c.serviced) == 0 {
		return time.Time{}, false
	}
	return c.serviced[len(c.serviced)-1], true
}

// Registry is an ordered list of components in document order.
type Registry struct {
	components []Component
}

// New builds a registry from components.
func New(components ...Component) *Registry {
	return &Registry{components: slices.Clone(components)}
}

// Components iterates in document order.
func (r *Registry) Components() iter.Seq[Component] {
	return func(yield func(Component) bool) {
		if r == nil {
			return
		}
		for _, c := range r.components {
			if !yield(c) {
				return
			}
		}
	}
}

// Lookup returns the first component with the given name.
func (r *Registry) Lookup(name string) (Component, bool) {
	for c := range r.Components() {
		if c.name == name {
			return c, true
		}
	}
	return Component{}, false
}

// Len returns the number of components.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.components)
}

type componentDoc struct {
	Name     *string      `json:"name"`
	Interval *string      `json:"interval"`
	Serviced *[]time.Time `json:"serviced"`
}

// Load decodes a registry document. Decoding is all or nothing: a missing
// field, an empty name, an unparseable or negative interval, or a service
// date without a zone rejects the whole document. Extra keys are ignored.
func Load(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, faults.IO("", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))

	var docs []componentDoc
	if err := dec.Decode(&docs); err != nil {
		return nil, invalid("%v", err)
	}
	if dec.More() {
		return nil, invalid("unexpected data after component list")
	}
	if docs == nil {
		return nil, invalid("document must be a list of components")
	}

	components := make([]Component, 0, len(docs))
	for i, doc := range docs {
		c, err := doc.component()
		if err != nil {
			return nil, invalid("component %d: %v", i+1, err)
		}
		components = append(components, c)
	}
	return &Registry{components: components}, nil
}

func (d componentDoc) component() (Component, error) {
	switch {
	case d.Name == nil:
		return Component{}, errors.New("missing field \"name\"")
	case d.Interval == nil:
		return Component{}, errors.New("missing field \"interval\"")
	case d.Serviced == nil:
		return Component{}, errors.New("missing field \"serviced\"")
	case strings.TrimSpace(*d.Name) == "":
		return Component{}, errors.New("name must not be empty")
	}

	interval, err := ParseInterval(*d.Interval)
	if err != nil {
		return Component{}, fmt.Errorf("%s: %w", *d.Name, err)
	}
	return NewComponent(*d.Name, interval, *d.Serviced...), nil
}

// ParseInterval decodes a unit-suffixed duration such as "500h", "30d",
// "1w 2d" or "2weeks". Months count as 30.44 days and years as 365.25 days.
// Negative values are rejected.
func ParseInterval(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, errors.New("interval must not be empty")
	}
	if strings.HasPrefix(strings.TrimSpace(s), "-") {
		return 0, fmt.Errorf("invalid interval %q: must not be negative", s)
	}
	if !intervalPattern.MatchString(s) {
		return 0, fmt.Errorf("invalid interval %q", s)
	}

	var b strings.Builder
	for _, term := range intervalTerm.FindAllStringSubmatch(s, -1) {
		value, unit := term[1], term[2]
		if secs, ok := calendarUnits[unit]; ok {
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil || n > math.MaxInt64/uint64(time.Second)/secs {
				return 0, fmt.Errorf("invalid interval %q: %s out of range", s, term[0])
			}
			b.WriteString(strconv.FormatUint(n*secs, 10) + "s")
			continue
		}
		short, ok := unitAliases[unit]
		if !ok {
			return 0, fmt.Errorf("invalid interval %q: unknown unit %q", s, unit)
		}
		b.WriteString(value + short)
	}

	d, err := str2duration.ParseDuration(b.String())
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid interval %q: must not be negative", s)
	}
	return d, nil
}

var (
	intervalPattern = regexp.MustCompile(`^\s*(?:\d+(?:\.\d+)?\s*[A-Za-z]+\s*)+$`)
	intervalTerm    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([A-Za-z]+)`)
)

// unitAliases maps long unit names onto str2duration's suffixes.
var unitAliases = map[string]string{
	"ns": "ns", "nsec": "ns", "nanos": "ns",
	"us": "us", "usec": "us", "micros": "us",
	"ms": "ms", "msec": "ms", "millis": "ms",
	"s": "s", "sec": "s", "secs": "s", "second": "s", "seconds": "s",
	"m": "m", "min": "m", "mins": "m", "minute": "m", "minutes": "m",
	"h": "h", "hr": "h", "hrs": "h", "hour": "h", "hours": "h",
	"d": "d", "day": "d", "days": "d",
	"w": "w", "week": "w", "weeks": "w",
}

// calendarUnits have no str2duration suffix and are expanded to seconds.
var calendarUnits = map[string]uint64{
	"M": 2_630_016, "month": 2_630_016, "months": 2_630_016,
	"y": 31_557_600, "year": 31_557_600, "years": 31_557_600,
}

// FormatInterval renders d in the form accepted by ParseInterval. Whole hours
// stay in hours, since service intervals are usually quoted that way.
func FormatInterval(d time.Duration) string {
	switch {
	case d == 0:
		return "0s"
	case d%time.Hour == 0:
		return strconv.FormatInt(int64(d/time.Hour), 10) + "h"
	default:
		return str2duration.String(d)
	}
}

func invalid(format string, args ...any) error {
	return faults.Structural(fmt.Errorf("%w: "+format, append([]any{ErrInvalidDocument}, args...)...))
}
