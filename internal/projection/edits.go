package projection

import (
	"fmt"
)

// NewColumnName returns the name given to the k-th inserted column (k starts at 1)
func NewColumnName(k int) string {
	return fmt.Sprintf("New Column (%d)", k)
}

func clamp(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}

// emptyRecord returns a record holding an empty cell for every column
func emptyRecord(columns []Column) Record {
	r := NewRecord()
	for _, c := range columns {
		r.Set(c.Field, "")
	}
	return r
}

// AddRows inserts n empty rows before record index at (clamped to the record count)
func AddRows(p Projection, at, n int) Projection {
	if n <= 0 || len(p.Columns) == 0 {
		return p.Clone()
	}
	return Edit(p, func(records []Record) ([]Record, []string) {
		at := clamp(at, 0, len(records))
		out := make([]Record, 0, len(records)+n)
		out = append(out, records[:at]...)
		for i := 0; i < n; i++ {
			out = append(out, emptyRecord(p.Columns))
		}
		out = append(out, records[at:]...)
		return out, nil
	}, nil)
}

// AddColumns inserts n empty columns right after column index after. New
// columns are named "New Column (k)" in ascending k, skipping names in use.
func AddColumns(p Projection, after, n int) Projection {
	if n <= 0 {
		return p.Clone()
	}

	names := make([]string, 0, n)
	for k := 1; len(names) < n; k++ {
		name := NewColumnName(k)
		if p.ColumnIndex(name) < 0 {
			names = append(names, name)
		}
	}

	return Edit(p,
		func(records []Record) ([]Record, []string) {
			for _, r := range records {
				for _, name := range names {
					r.Set(name, "")
				}
			}
			return records, names
		},
		func(columns []Column) []Column {
			at := clamp(after+1, 0, len(columns))
			out := make([]Column, 0, len(columns)+len(names))
			out = append(out, columns[:at]...)
			for _, name := range names {
				out = append(out, NewColumn(name))
			}
			return append(out, columns[at:]...)
		},
	)
}

// DeleteRows removes n records starting at record index start
func DeleteRows(p Projection, start, n int) Projection {
	if n <= 0 {
		return p.Clone()
	}
	return Edit(p, func(records []Record) ([]Record, []string) {
		start := clamp(start, 0, len(records))
		end := clamp(start+n, start, len(records))
		out := make([]Record, 0, len(records)-(end-start))
		out = append(out, records[:start]...)
		return append(out, records[end:]...), nil
	}, nil)
}

// DeleteColumns drops the named fields from every record; unknown names are ignored
func DeleteColumns(p Projection, names []string) Projection {
	return Edit(p, func(records []Record) ([]Record, []string) {
		for _, r := range records {
			for _, name := range names {
				r.Delete(name)
			}
		}
		return records, nil
	}, nil)
}

// RenameColumn renames field oldName to newName, keeping its display position
func RenameColumn(p Projection, oldName, newName string) (Projection, error) {
	if newName == "" {
		return Projection{}, ErrEmptyColumn
	}
	pos := p.ColumnIndex(oldName)
	if pos < 0 {
		return Projection{}, fmt.Errorf("%w: %q", ErrUnknownColumn, oldName)
	}
	if newName == oldName {
		return p.Clone(), nil
	}
	if p.ColumnIndex(newName) >= 0 {
		return Projection{}, fmt.Errorf("%w: %q", ErrColumnExists, newName)
	}

	return Edit(p,
		func(records []Record) ([]Record, []string) {
			for _, r := range records {
				r.Set(newName, r.Value(oldName))
				r.Delete(oldName)
			}
			return records, []string{newName}
		},
		func(columns []Column) []Column {
			at := clamp(pos, 0, len(columns))
			out := make([]Column, 0, len(columns)+1)
			out = append(out, columns[:at]...)
			out = append(out, NewColumn(newName))
			return append(out, columns[at:]...)
		},
	), nil
}

// SetCell sets one cell; row is a record index and field a column name
func SetCell(p Projection, row int, field, value string) (Projection, error) {
	if row < 0 || row >= len(p.Records) {
		return Projection{}, fmt.Errorf("%w: %d of %d", ErrOutOfRange, row, len(p.Records))
	}
	if p.ColumnIndex(field) < 0 {
		return Projection{}, fmt.Errorf("%w: %q", ErrUnknownColumn, field)
	}

	out := p.Clone()
	out.Records[row].Set(field, value)
	return out, nil
}

// ColumnAt returns the field displayed at column index col
func ColumnAt(p Projection, col int) (string, bool) {
	if col < 0 || col >= len(p.Columns) {
		return "", false
	}
	return p.Columns[col].Field, true
}
