package projection

import (
	"errors"
	"reflect"
	"testing"
)

func TestAddColumns(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		after        int
		count        int
		expectFields []string
	}{
		{
			name:         "two after first",
			input:        "a\n1",
			after:        0,
			count:        2,
			expectFields: []string{"a", "New Column (1)", "New Column (2)"},
		},
		{
			name:         "in the middle",
			input:        "a,b,c\n1,2,3",
			after:        1,
			count:        1,
			expectFields: []string{"a", "b", "New Column (1)", "c"},
		},
		{
			name:         "before first",
			input:        "a,b\n1,2",
			after:        -1,
			count:        1,
			expectFields: []string{"New Column (1)", "a", "b"},
		},
		{
			name:         "past the end appends",
			input:        "a,b\n1,2",
			after:        10,
			count:        1,
			expectFields: []string{"a", "b", "New Column (1)"},
		},
		{
			name:         "names in use are skipped",
			input:        "a,New Column (1)\n1,2",
			after:        1,
			count:        2,
			expectFields: []string{"a", "New Column (1)", "New Column (2)", "New Column (3)"},
		},
		{
			name:         "no records stays empty",
			input:        "a,b\n",
			after:        0,
			count:        1,
			expectFields: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustParse(t, tt.input)
			out := AddColumns(p, tt.after, tt.count)
			if got := out.Fields(); !reflect.DeepEqual(got, tt.expectFields) {
				t.Errorf("Expected fields %v, got %v", tt.expectFields, got)
			}
			for _, r := range out.Records {
				for _, f := range tt.expectFields {
					if !r.Has(f) {
						t.Errorf("Record is missing field %q", f)
					}
				}
			}
		})
	}
}

func TestAddColumnsScenario(t *testing.T) {
	p := mustParse(t, "a\n1")
	out := AddColumns(p, 0, 2)

	if got := out.Records[0].Keys(); !reflect.DeepEqual(got, []string{"a", "New Column (1)", "New Column (2)"}) {
		t.Errorf("Unexpected record keys: %v", got)
	}
	if got := rowValues(out, 0); !reflect.DeepEqual(got, []string{"1", "", ""}) {
		t.Errorf("Unexpected record values: %v", got)
	}
	if Serialize(out) != "a,New Column (1),New Column (2)\n1" {
		t.Errorf("Unexpected serialization: %q", Serialize(out))
	}
	if len(p.Columns) != 1 {
		t.Errorf("Source projection was mutated")
	}
}

func TestAddRows(t *testing.T) {
	tests := []struct {
		name     string
		at       int
		count    int
		expected string
	}{
		{name: "front", at: 0, count: 1, expected: "a,b\n,\n1,2\n3,4"},
		{name: "middle two", at: 1, count: 2, expected: "a,b\n1,2\n,\n,\n3,4"},
		{name: "end", at: 2, count: 1, expected: "a,b\n1,2\n3,4\n,"},
		{name: "beyond end clamps", at: 9, count: 1, expected: "a,b\n1,2\n3,4\n,"},
		{name: "zero count", at: 0, count: 0, expected: "a,b\n1,2\n3,4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustParse(t, "a,b\n1,2\n3,4")
			out := AddRows(p, tt.at, tt.count)
			if got := Serialize(out); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDeleteRows(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		count    int
		expected string
	}{
		{name: "first", start: 0, count: 1, expected: "a\n2\n3"},
		{name: "middle range", start: 1, count: 2, expected: "a\n1"},
		{name: "overlong range", start: 2, count: 10, expected: "a\n1\n2"},
		{name: "all rows", start: 0, count: 3, expected: ""},
		{name: "out of range start", start: 7, count: 1, expected: "a\n1\n2\n3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustParse(t, "a\n1\n2\n3")
			out := DeleteRows(p, tt.start, tt.count)
			if got := Serialize(out); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDeleteColumns(t *testing.T) {
	p := mustParse(t, "a,b,c\n1,2,3")

	out := DeleteColumns(p, []string{"b", "missing"})
	if got := out.Fields(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("Unexpected fields: %v", got)
	}
	if Serialize(out) != "a,c\n1,3" {
		t.Errorf("Unexpected serialization: %q", Serialize(out))
	}

	all := DeleteColumns(p, []string{"a", "b", "c"})
	if got := all.Fields(); len(got) != 0 {
		t.Errorf("Expected no columns, got %v", got)
	}
}

func TestRenameColumn(t *testing.T) {
	tests := []struct {
		name         string
		oldName      string
		newName      string
		expectError  error
		expectFields []string
	}{
		{name: "keeps position", oldName: "b", newName: "beta", expectFields: []string{"a", "beta", "c"}},
		{name: "first column", oldName: "a", newName: "alpha", expectFields: []string{"alpha", "b", "c"}},
		{name: "same name", oldName: "b", newName: "b", expectFields: []string{"a", "b", "c"}},
		{name: "existing name", oldName: "b", newName: "c", expectError: ErrColumnExists},
		{name: "unknown column", oldName: "z", newName: "y", expectError: ErrUnknownColumn},
		{name: "empty name", oldName: "a", newName: "", expectError: ErrEmptyColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustParse(t, "a,b,c\n1,2,3")
			out, err := RenameColumn(p, tt.oldName, tt.newName)
			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("Expected %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := out.Fields(); !reflect.DeepEqual(got, tt.expectFields) {
				t.Errorf("Expected fields %v, got %v", tt.expectFields, got)
			}
			if got := rowValues(out, 0); !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
				t.Errorf("Values moved with rename: %v", got)
			}
		})
	}
}

func TestRenameThenEditKeepsPosition(t *testing.T) {
	p := mustParse(t, "a,b,c\n1,2,3")
	renamed, err := RenameColumn(p, "a", "first")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// The renamed key sits last in each record; later edits must follow column order.
	out := AddRows(renamed, 1, 1)
	if got := out.Fields(); !reflect.DeepEqual(got, []string{"first", "b", "c"}) {
		t.Errorf("Column order lost after a follow-up edit: %v", got)
	}
	if Serialize(out) != "first,b,c\n1,2,3\n," {
		t.Errorf("Unexpected serialization: %q", Serialize(out))
	}
}

func TestSetCell(t *testing.T) {
	p := mustParse(t, "a,b\n1,2")

	out, err := SetCell(p, 0, "b", "x")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Records[0].Value("b") != "x" || p.Records[0].Value("b") != "2" {
		t.Errorf("SetCell did not copy on write")
	}

	if _, err := SetCell(p, 3, "a", "x"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange, got %v", err)
	}
	if _, err := SetCell(p, 0, "zz", "x"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("Expected ErrUnknownColumn, got %v", err)
	}

	if f, ok := ColumnAt(p, 1); !ok || f != "b" {
		t.Errorf("Expected column b at index 1")
	}
	if _, ok := ColumnAt(p, 2); ok {
		t.Errorf("Expected no column at index 2")
	}
}
