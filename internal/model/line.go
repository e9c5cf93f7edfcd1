package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// InjectSamples is the function name of an injection line.
const InjectSamples = "Inject Samples"

// Kind tags the type of a method line column value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindDouble
	KindDecimal
	KindDateTime
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindDecimal:
		return "decimal"
	case KindDateTime:
		return "datetime"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// Value is a typed column value. The kind is resolved once when the line is
// fetched from the instrument and decides how incoming text is coerced.
type Value struct {
	Kind    Kind
	Int     int64
	Double  float64
	Decimal string
	Time    time.Time
	Bool    bool
	Str     string
}

func NullValue() Value            { return Value{Kind: KindNull} }
func IntValue(v int64) Value      { return Value{Kind: KindInt, Int: v} }
func DoubleValue(v float64) Value { return Value{Kind: KindDouble, Double: v} }
func StringValue(v string) Value  { return Value{Kind: KindString, Str: v} }
func BoolValue(v bool) Value      { return Value{Kind: KindBool, Bool: v} }

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindDouble:
		return strconv.FormatFloat(v.Double, 'f', -1, 64)
	case KindDecimal:
		return v.Decimal
	case KindDateTime:
		return v.Time.Format(time.RFC3339)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindString:
		return v.Str
	default:
		return ""
	}
}

// dateTimeLayouts are tried in order when coercing text to a date.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// Coerce converts text to a value of the given kind. A null kind has no type
// information, so the text is carried as a string.
func Coerce(kind Kind, text string) (Value, error) {
	s := strings.TrimSpace(text)
	switch kind {
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// Integers sent as "2.0" are accepted when integral.
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != float64(int64(f)) {
				return Value{}, fmt.Errorf("'%s' is not an integer", text)
			}
			n = int64(f)
		}
		return IntValue(n), nil
	case KindDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("'%s' is not a number", text)
		}
		return DoubleValue(f), nil
	case KindDecimal:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return Value{}, fmt.Errorf("'%s' is not a decimal", text)
		}
		return Value{Kind: KindDecimal, Decimal: s}, nil
	case KindDateTime:
		for _, layout := range dateTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Value{Kind: KindDateTime, Time: t}, nil
			}
		}
		return Value{}, fmt.Errorf("'%s' is not a date", text)
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("'%s' is not a boolean", text)
		}
		return BoolValue(b), nil
	default:
		return StringValue(text), nil
	}
}

// Column is a non-standard method line field.
type Column struct {
	Name  string
	Value Value
}

// Handle is an opaque reference to the instrument's own copy of a line. The
// core never inspects it, it only carries it across clones so vendor fields
// survive a save.
type Handle interface {
	CloneHandle() Handle
}

// MethodLine is one line of a sample set method.
type MethodLine struct {
	Vial                    string
	InjVol                  *float64
	NumOfInjs               *int
	Label                   string
	SampleName              string
	Level                   string
	Function                string
	MethodSetOrReportMethod string
	LabelReference          string
	Processing              string
	RunTime                 *float64
	DataStart               *float64
	NextInjDelay            *float64
	Columns                 []Column
	Origin                  Handle
}

// IsInjection reports whether the line injects a sample.
func (l MethodLine) IsInjection() bool {
	return l.InjVol != nil && *l.InjVol >= 0
}

// Clone deep-copies the line including its columns and origin handle.
func (l MethodLine) Clone() MethodLine {
	c := l
	c.InjVol = cloneFloat(l.InjVol)
	c.NumOfInjs = cloneInt(l.NumOfInjs)
	c.RunTime = cloneFloat(l.RunTime)
	c.DataStart = cloneFloat(l.DataStart)
	c.NextInjDelay = cloneFloat(l.NextInjDelay)
	if l.Columns != nil {
		c.Columns = make([]Column, len(l.Columns))
		copy(c.Columns, l.Columns)
	}
	if l.Origin != nil {
		c.Origin = l.Origin.CloneHandle()
	}
	return c
}

// Column returns the index of the named non-standard column, or -1.
func (l MethodLine) Column(name string) int {
	for i, c := range l.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CountInjections returns the number of lines whose function is InjectSamples.
func CountInjections(lines []MethodLine) int {
	n := 0
	for _, l := range lines {
		if l.Function == InjectSamples {
			n++
		}
	}
	return n
}

// MethodDetails identifies a stored sample set method.
type MethodDetails struct {
	ID       int
	Name     string
	Comments string
}
