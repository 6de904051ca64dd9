// Package projection converts CSV text to an editable record/column view and back.
package projection

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// AutoWidth is the width given to every derived column
const AutoWidth = "auto"

// undefinedPlaceholder is what the editing surface shows for a cell with no value
const undefinedPlaceholder = "undefined"

// Errors returned by parsing and editing
var (
	ErrMalformed     = errors.New("malformed csv")
	ErrUnknownColumn = errors.New("unknown column")
	ErrColumnExists  = errors.New("column already exists")
	ErrEmptyColumn   = errors.New("column name is empty")
	ErrOutOfRange    = errors.New("row out of range")
)

// Record is one data row: field name to cell value, in column insertion order
type Record struct {
	*orderedmap.OrderedMap[string, string]
}

// NewRecord returns an empty record
func NewRecord() Record {
	return Record{OrderedMap: orderedmap.New[string, string]()}
}

// Value returns the cell for field, or "" when absent
func (r Record) Value(field string) string {
	if r.OrderedMap == nil {
		return ""
	}
	v, _ := r.Get(field)
	return v
}

// Has reports whether the record carries field
func (r Record) Has(field string) bool {
	if r.OrderedMap == nil {
		return false
	}
	_, ok := r.Get(field)
	return ok
}

// Keys returns the field names in insertion order
func (r Record) Keys() []string {
	if r.OrderedMap == nil {
		return nil
	}
	keys := make([]string, 0, r.Len())
	for p := r.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Clone returns an independent copy
func (r Record) Clone() Record {
	out := NewRecord()
	if r.OrderedMap == nil {
		return out
	}
	for p := r.Oldest(); p != nil; p = p.Next() {
		out.Set(p.Key, p.Value)
	}
	return out
}

// MarshalJSON encodes the record as an object keeping field order
func (r Record) MarshalJSON() ([]byte, error) {
	if r.OrderedMap == nil {
		return []byte("{}"), nil
	}
	return r.OrderedMap.MarshalJSON()
}

// UnmarshalJSON decodes an object keeping field order
func (r *Record) UnmarshalJSON(data []byte) error {
	om := orderedmap.New[string, string]()
	if err := om.UnmarshalJSON(data); err != nil {
		return err
	}
	r.OrderedMap = om
	return nil
}

// Column describes one displayed column
type Column struct {
	Field string `json:"field"`
	Title string `json:"title"`
	Width string `json:"width"`
}

// NewColumn returns a column whose title is its field name
func NewColumn(field string) Column {
	return Column{Field: field, Title: field, Width: AutoWidth}
}

// Projection is the editable view of one CSV document
type Projection struct {
	Records []Record `json:"records"`
	Columns []Column `json:"columns"`
}

// Empty returns a projection with no records and no columns
func Empty() Projection {
	return Projection{Records: []Record{}, Columns: []Column{}}
}

// IsEmpty reports whether the projection holds no records
func (p Projection) IsEmpty() bool {
	return len(p.Records) == 0
}

// Fields returns the column field names in display order
func (p Projection) Fields() []string {
	fields := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		fields[i] = c.Field
	}
	return fields
}

// ColumnIndex returns the display position of field, or -1
func (p Projection) ColumnIndex(field string) int {
	for i, c := range p.Columns {
		if c.Field == field {
			return i
		}
	}
	return -1
}

// Clone deep-copies records and columns
func (p Projection) Clone() Projection {
	out := Projection{
		Records: cloneRecords(p.Records),
		Columns: make([]Column, len(p.Columns)),
	}
	copy(out.Columns, p.Columns)
	return out
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// Parse decodes comma-delimited text whose first row is the header. Rows
// shorter than the header are padded with empty cells. A document without
// data rows yields an empty projection.
func Parse(text string) (Projection, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return Empty(), nil
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Empty(), nil
		}
		return Projection{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		if _, dup := seen[name]; dup {
			return Projection{}, fmt.Errorf("%w: duplicate header %q", ErrMalformed, name)
		}
		seen[name] = struct{}{}
	}

	records := []Record{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Projection{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(row) > len(header) {
			line, _ := reader.FieldPos(0)
			return Projection{}, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrMalformed, line, len(row), len(header))
		}

		record := NewRecord()
		for i, name := range header {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			record.Set(name, value)
		}
		records = append(records, record)
	}

	return build(records, nil, nil), nil
}

// ApplyRecordsTransform runs fn on a copy of the records laid out in column
// order, as if the projection had been serialized and parsed again. fn returns
// the new records and the skip-keys to leave out of column derivation.
func ApplyRecordsTransform(p Projection, fn func([]Record) ([]Record, []string)) ([]Record, []string) {
	records := normalize(p)
	if fn == nil {
		return records, nil
	}
	return fn(records)
}

// normalize copies every record with exactly the projection's fields in display order
func normalize(p Projection) []Record {
	if len(p.Columns) == 0 {
		return cloneRecords(p.Records)
	}
	out := make([]Record, len(p.Records))
	for i, r := range p.Records {
		record := NewRecord()
		for _, c := range p.Columns {
			v := r.Value(c.Field)
			if v == undefinedPlaceholder {
				v = ""
			}
			record.Set(c.Field, v)
		}
		out[i] = record
	}
	return out
}

// DeriveColumns lists the fields of the first record in key order, minus skipKeys
func DeriveColumns(records []Record, skipKeys []string) []Column {
	columns := []Column{}
	if len(records) == 0 {
		return columns
	}

	skip := make(map[string]struct{}, len(skipKeys))
	for _, k := range skipKeys {
		skip[k] = struct{}{}
	}
	for _, key := range records[0].Keys() {
		if _, ok := skip[key]; ok {
			continue
		}
		columns = append(columns, NewColumn(key))
	}
	return columns
}

// ApplyColumnsTransform runs fn on the derived columns
func ApplyColumnsTransform(columns []Column, fn func([]Column) []Column) []Column {
	if fn == nil {
		return columns
	}
	return fn(columns)
}

// Edit applies a records transform and a columns transform as one step
func Edit(p Projection, recordsFn func([]Record) ([]Record, []string), columnsFn func([]Column) []Column) Projection {
	records, skipKeys := ApplyRecordsTransform(p, recordsFn)
	return build(records, skipKeys, columnsFn)
}

func build(records []Record, skipKeys []string, columnsFn func([]Column) []Column) Projection {
	if len(records) == 0 {
		return Empty()
	}
	columns := ApplyColumnsTransform(DeriveColumns(records, skipKeys), columnsFn)
	return Projection{Records: records, Columns: columns}
}

// Serialize encodes the projection in column order. The "undefined"
// placeholder becomes an empty cell and trailing empty cells are dropped from
// each data row; a row of only empty cells keeps one separator so it survives
// a re-parse. There is no trailing newline.
func Serialize(p Projection) string {
	if len(p.Records) == 0 && len(p.Columns) == 0 {
		return ""
	}

	columns := p.Columns
	if len(columns) == 0 {
		columns = DeriveColumns(p.Records, nil)
	}

	lines := make([]string, 0, len(p.Records)+1)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Field
	}
	lines = append(lines, encodeRow(header))

	for _, r := range p.Records {
		cells := make([]string, len(columns))
		for i, c := range columns {
			v := r.Value(c.Field)
			if v == undefinedPlaceholder {
				v = ""
			}
			cells[i] = v
		}
		lines = append(lines, encodeRow(trimTrailingEmpty(cells)))
	}

	return strings.Join(lines, "\n")
}

func trimTrailingEmpty(cells []string) []string {
	keep := len(cells)
	for keep > 0 && cells[keep-1] == "" {
		keep--
	}
	if keep > 0 {
		return cells[:keep]
	}
	if len(cells) >= 2 {
		return cells[:2]
	}
	return cells
}

// encodeRow quotes one row with encoding/csv and strips the line terminator
func encodeRow(cells []string) string {
	if len(cells) == 1 && cells[0] == "" {
		// A bare empty line would be skipped by the reader
		return `""`
	}
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	// Writes to a strings.Builder cannot fail
	_ = w.Write(cells)
	w.Flush()
	return strings.TrimSuffix(sb.String(), "\n")
}

// TrimTrailingSeparators removes one trailing comma from every line
func TrimTrailingSeparators(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, ",")
	}
	return strings.Join(lines, "\n")
}
