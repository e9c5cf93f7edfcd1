// Package merge builds the line set of a sample set method from a template
// method and the sample lines of a job.
package merge

import (
	"fmt"
	"sort"

	"github.com/msageha/stfd/internal/model"
)

// FunctionNotFoundError means an incoming line names a function that no
// template line has.
type FunctionNotFoundError struct {
	Function string
	Template string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("SSM line with function name '%s' does not exist in empower for %s. At least one line from base SSM with equal function name is required.", e.Function, e.Template)
}

// CoercionError means an incoming value does not fit the type of the field
// it overwrites.
type CoercionError struct {
	LineNumber int
	Field      string
	Err        error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("sample line %d field %s: %v", e.LineNumber, e.Field, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

type orderedLine struct {
	number int
	line   model.SampleLine
}

// Merge keeps the template's leading and trailing non-injection lines and
// replaces everything between them with one clone per incoming line. Each
// clone starts from the first template line with the same function. The
// result depends only on the inputs.
func Merge(templateName string, template []model.MethodLine, incoming []model.SampleLine) ([]model.MethodLine, error) {
	ordered := make([]orderedLine, 0, len(incoming))
	for _, l := range incoming {
		n, err := l.LineNumber()
		if err != nil {
			return nil, fmt.Errorf("sample line: %w", err)
		}
		ordered = append(ordered, orderedLine{number: n, line: l})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].number < ordered[j].number
	})

	out := make([]model.MethodLine, 0, len(template)+len(incoming))

	next := 0
	for ; next < len(template); next++ {
		if template[next].IsInjection() {
			break
		}
		out = append(out, template[next].Clone())
	}

	for _, o := range ordered {
		fn := o.line.Function()
		base, ok := firstWithFunction(template, fn)
		if !ok {
			return nil, &FunctionNotFoundError{Function: fn, Template: templateName}
		}
		line := base.Clone()
		if err := overlay(&line, o); err != nil {
			return nil, err
		}
		out = append(out, line)
	}

	for ; next < len(template); next++ {
		if !template[next].IsInjection() {
			out = append(out, template[next].Clone())
		}
	}
	return out, nil
}

func firstWithFunction(lines []model.MethodLine, fn string) (model.MethodLine, bool) {
	for _, l := range lines {
		if l.Function == fn {
			return l, true
		}
	}
	return model.MethodLine{}, false
}

func overlay(line *model.MethodLine, o orderedLine) error {
	for _, f := range o.line {
		if f.Key == model.KeyLineNumber {
			continue
		}
		text, present := model.RawText(f.Value)
		if err := setField(line, f.Key, text, present); err != nil {
			return &CoercionError{LineNumber: o.number, Field: f.Key, Err: err}
		}
	}
	return nil
}

func setField(line *model.MethodLine, key, text string, present bool) error {
	switch key {
	case model.KeyVial:
		line.Vial = text
	case model.KeyLabel:
		line.Label = text
	case model.KeySampleName:
		line.SampleName = text
	case model.KeyLevel:
		line.Level = text
	case model.KeyFunction:
		line.Function = text
	case model.KeyMethodSetOrReportMethod:
		line.MethodSetOrReportMethod = text
	case model.KeyLabelReference:
		line.LabelReference = text
	case model.KeyProcessing:
		line.Processing = text
	case model.KeyInjVol:
		return setFloat(&line.InjVol, text, present)
	case model.KeyRunTime:
		return setFloat(&line.RunTime, text, present)
	case model.KeyDataStart:
		return setFloat(&line.DataStart, text, present)
	case model.KeyNextInjDelay:
		return setFloat(&line.NextInjDelay, text, present)
	case model.KeyNumOfInjs:
		if !present || text == "" {
			line.NumOfInjs = nil
			return nil
		}
		v, err := model.Coerce(model.KindInt, text)
		if err != nil {
			return err
		}
		n := int(v.Int)
		line.NumOfInjs = &n
	default:
		return setColumn(line, key, text, present)
	}
	return nil
}

func setFloat(dst **float64, text string, present bool) error {
	if !present || text == "" {
		*dst = nil
		return nil
	}
	v, err := model.Coerce(model.KindDouble, text)
	if err != nil {
		return err
	}
	f := v.Double
	*dst = &f
	return nil
}

// setColumn writes a non-standard column, coercing to the kind the template
// column already carries. New columns and untyped ones take the text as is.
func setColumn(line *model.MethodLine, key, text string, present bool) error {
	i := line.Column(key)
	if i < 0 {
		line.Columns = append(line.Columns, model.Column{Name: key, Value: model.StringValue(text)})
		return nil
	}
	kind := line.Columns[i].Value.Kind
	if !present || (text == "" && kind != model.KindString) {
		if kind == model.KindNull {
			line.Columns[i].Value = model.StringValue("")
		} else {
			line.Columns[i].Value = model.NullValue()
		}
		return nil
	}
	v, err := model.Coerce(kind, text)
	if err != nil {
		return err
	}
	line.Columns[i].Value = v
	return nil
}
