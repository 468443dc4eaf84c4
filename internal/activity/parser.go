package activity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/goodtune/svcint/internal/faults"
)

const (
	// ColumnDate holds the activity start, formatted as DateLayout.
	ColumnDate = "Date"
	// ColumnTime holds the elapsed HH:MM:SS duration.
	ColumnTime = "Time"

	// DateLayout is the zone-less timestamp format of the export.
	DateLayout = "2006-01-02 15:04:05"
)

var (
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyLog is returned for a stream with no header row.
	ErrEmptyLog = errors.New("activity log has no header row")
	// ErrInvalidDate is returned for timestamps not matching DateLayout.
	ErrInvalidDate = errors.New("date was not in YYYY-MM-DD HH:MM:SS format")
	// ErrShortRow is returned for rows missing the required fields.
	ErrShortRow = errors.New("row is missing required fields")
)

// Policy decides what Parse does with a malformed row.
type Policy int

const (
	// PolicySkip drops malformed rows and reports them alongside the log.
	PolicySkip Policy = iota
	// PolicyFail aborts on the first malformed row.
	PolicyFail
)

// ParsePolicy maps a configuration value ("skip" or "fail") to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return PolicySkip, nil
	case "fail":
		return PolicyFail, nil
	default:
		return PolicySkip, fmt.Errorf("invalid error policy: %s (must be skip or fail)", s)
	}
}

func (p Policy) String() string {
	if p == PolicyFail {
		return "fail"
	}
	return "skip"
}

// Parse reads a whole activity export.
//
// A missing header or required column, or a read failure, returns a nil Log
// and a structural or IO error. Under PolicySkip every malformed row is
// returned in rowErrs and the rest of the rows form the Log; under PolicyFail
// the first malformed row is returned as err.
func Parse(r io.Reader, policy Policy) (log *Log, rowErrs []*faults.Error, err error) {
	var records []Record
	for rec, err := range Records(r) {
		if err == nil {
			records = append(records, rec)
			continue
		}
		var fe *faults.Error
		if policy == PolicySkip && errors.As(err, &fe) && fe.Kind == faults.KindMalformedRow {
			rowErrs = append(rowErrs, fe)
			continue
		}
		return nil, nil, err
	}
	return &Log{records: records}, rowErrs, nil
}

// Records lazily decodes an activity export. Malformed rows are yielded as
// *faults.Error values of KindMalformedRow and decoding continues; a structural
// or IO failure is yielded once and ends the sequence.
func Records(r io.Reader) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		d, err := newDecoder(r)
		if err != nil {
			yield(Record{}, err)
			return
		}
		for {
			rec, err := d.next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) {
				return
			}
			if err != nil && !faults.Is(err, faults.KindMalformedRow) {
				return
			}
		}
	}
}

type decoder struct {
	rd      *csv.Reader
	dateIdx int
	timeIdx int
	width   int
	row     int
}

func newDecoder(r io.Reader) (*decoder, error) {
	rd := csv.NewReader(r)
	rd.FieldsPerRecord = -1

	header, err := rd.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, faults.Structural(ErrEmptyLog)
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, faults.Structural(fmt.Errorf("read header: %w", err))
		}
		return nil, faults.IO("", err)
	}

	d := &decoder{rd: rd, dateIdx: -1, timeIdx: -1}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		switch strings.TrimSpace(name) {
		case ColumnDate:
			if d.dateIdx < 0 {
				d.dateIdx = i
			}
		case ColumnTime:
			if d.timeIdx < 0 {
				d.timeIdx = i
			}
		}
	}

	var missing []string
	if d.dateIdx < 0 {
		missing = append(missing, ColumnDate)
	}
	if d.timeIdx < 0 {
		missing = append(missing, ColumnTime)
	}
	if len(missing) > 0 {
		return nil, faults.Structural(fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", ")))
	}

	d.width = max(d.dateIdx, d.timeIdx) + 1
	return d, nil
}

// next returns the next record or row error, and io.EOF at end of input.
func (d *decoder) next() (Record, error) {
	fields, err := d.rd.Read()
	if errors.Is(err, io.EOF) {
		return Record{}, io.EOF
	}
	d.row++
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return Record{}, faults.MalformedRow(d.row, pe.StartLine, pe.Err)
		}
		return Record{}, faults.IO("", err)
	}

	line, _ := d.rd.FieldPos(0)
	rec, err := d.decode(fields)
	if err != nil {
		return Record{}, faults.MalformedRow(d.row, line, err)
	}
	return rec, nil
}

func (d *decoder) decode(fields []string) (Record, error) {
	if len(fields) < d.width {
		return Record{}, fmt.Errorf("%w: got %d fields, want at least %d", ErrShortRow, len(fields), d.width)
	}

	ts, err := ParseTimestamp(fields[d.dateIdx])
	if err != nil {
		return Record{}, err
	}
	dur, err := ParseClock(strings.TrimSpace(fields[d.timeIdx]))
	if err != nil {
		return Record{}, err
	}
	return Record{Timestamp: ts, Duration: dur}, nil
}

// ParseTimestamp decodes a DateLayout value as a UTC instant.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	ts, err := time.ParseInLocation(DateLayout, s, time.UTC)
	// time.Parse accepts a fractional second the layout does not name
	if err != nil || ts.Format(DateLayout) != s {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return ts, nil
}
