package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates the cell value union.
type ValueKind int8

const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
)

// Value is one table cell. Rows arrive schema-flexible (the loaders read
// whatever columns the file has), so cells carry a small tagged union rather
// than static fields.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

// StringValue builds a string cell.
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// NumberValue builds a numeric cell.
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Num: n} }

// BoolValue builds a boolean cell.
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// NullValue is the empty cell.
var NullValue = Value{Kind: ValueNull}

// IsEmpty reports whether the cell is null or a blank string.
func (v Value) IsEmpty() bool {
	return v.Kind == ValueNull || (v.Kind == ValueString && strings.TrimSpace(v.Str) == "")
}

// Text renders the cell as a string for URI minting and literal emission.
// Numbers that are whole render without a decimal point so that numeric and
// string primary keys mint identical URIs.
func (v Value) Text() string {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		if v.Num == float64(int64(v.Num)) {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	}
	return ""
}

// Row is a schema-flexible record: column name to cell value.
type Row map[string]Value

// Text returns the row's cell rendered as a string ("" when absent or empty).
func (r Row) Text(column string) string {
	v, ok := r[column]
	if !ok {
		return ""
	}
	return v.Text()
}

// Table is one in-memory source table plus its schema metadata.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// TableSchema is per-table metadata supplied by the loader or the registry.
type TableSchema struct {
	PrimaryKey  string
	LabelColumn string
}

// String returns a short description for logging.
func (t *Table) String() string {
	return fmt.Sprintf("%s (%d rows, %d columns)", t.Name, len(t.Rows), len(t.Columns))
}
