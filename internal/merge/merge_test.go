package merge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/stfd/internal/model"
)

type handle struct{ tag string }

func (h *handle) CloneHandle() model.Handle { c := *h; return &c }

func ptr[T any](v T) *T { return &v }

func nonInj(vial, fn string) model.MethodLine {
	return model.MethodLine{Vial: vial, Function: fn}
}

func inj(vial, fn string) model.MethodLine {
	return model.MethodLine{
		Vial:      vial,
		Function:  fn,
		InjVol:    ptr(10.0),
		NumOfInjs: ptr(1),
		Columns: []model.Column{
			{Name: "Dilution", Value: model.IntValue(1)},
			{Name: "Note", Value: model.NullValue()},
		},
		Origin: &handle{tag: vial},
	}
}

func samples(t *testing.T, raws ...string) []model.SampleLine {
	t.Helper()
	out := make([]model.SampleLine, len(raws))
	for i, r := range raws {
		require.NoError(t, json.Unmarshal([]byte(r), &out[i]))
	}
	return out
}

func vials(lines []model.MethodLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Vial
	}
	return out
}

func TestMergeReplacesInjectionBlock(t *testing.T) {
	template := []model.MethodLine{
		nonInj("cond1", "Equilibrate"),
		nonInj("cond2", "Condition Column"),
		inj("t1", "F1"),
		inj("t2", "F1"),
		nonInj("wash", "Equilibrate"),
	}
	incoming := samples(t,
		`{"LineNumber":1,"Function":"F1","Vial":"A1"}`,
		`{"LineNumber":2,"Function":"F1","Vial":"A2"}`,
	)

	out, err := Merge("Base", template, incoming)
	require.NoError(t, err)
	assert.Equal(t, []string{"cond1", "cond2", "A1", "A2", "wash"}, vials(out))

	// Injection lines are clones of the first F1 template line.
	for _, l := range out[2:4] {
		assert.True(t, l.IsInjection())
		assert.Equal(t, 10.0, *l.InjVol)
		assert.Equal(t, "t1", l.Origin.(*handle).tag)
	}
	assert.Equal(t, template[0], out[0])
	assert.Equal(t, template[4], out[4])
}

func TestMergeDoesNotAliasTemplate(t *testing.T) {
	template := []model.MethodLine{inj("t1", "F1")}
	out, err := Merge("Base", template, samples(t, `{"LineNumber":1,"Function":"F1","Vial":"A1","InjVol":5,"Dilution":"4"}`))
	require.NoError(t, err)

	assert.Equal(t, 5.0, *out[0].InjVol)
	assert.Equal(t, 10.0, *template[0].InjVol)
	assert.Equal(t, int64(4), out[0].Columns[0].Value.Int)
	assert.Equal(t, int64(1), template[0].Columns[0].Value.Int)
	assert.NotSame(t, template[0].Origin, out[0].Origin)
}

func TestMergeSortsByLineNumber(t *testing.T) {
	template := []model.MethodLine{inj("t", "F1")}
	incoming := samples(t,
		`{"LineNumber":"3","Function":"F1","Vial":"C"}`,
		`{"LineNumber":1,"Function":"F1","Vial":"A"}`,
		`{"LineNumber":2,"Function":"F1","Vial":"B"}`,
	)
	out, err := Merge("Base", template, incoming)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, vials(out))
}

func TestMergeFunctionNotFound(t *testing.T) {
	template := []model.MethodLine{nonInj("c", "Equilibrate"), inj("t", "F1")}
	_, err := Merge("Base", template, samples(t, `{"LineNumber":1,"Function":"F2","Vial":"A"}`))

	var fnf *FunctionNotFoundError
	require.ErrorAs(t, err, &fnf)
	assert.Equal(t, "F2", fnf.Function)
	assert.Equal(t, "Base", fnf.Template)
	assert.Contains(t, err.Error(), "'F2'")
}

func TestMergeMatchesNonInjectionFunction(t *testing.T) {
	template := []model.MethodLine{nonInj("c", "Equilibrate"), inj("t", "F1")}
	out, err := Merge("Base", template, samples(t, `{"LineNumber":1,"Function":"Equilibrate","Vial":"X"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "X"}, vials(out))
}

func TestMergeTemplateWithoutInjections(t *testing.T) {
	template := []model.MethodLine{nonInj("a", "F1"), nonInj("b", "Equilibrate")}
	out, err := Merge("Base", template, samples(t, `{"LineNumber":1,"Function":"F1","Vial":"X"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "X"}, vials(out))
}

func TestMergeTemplateStartingWithInjection(t *testing.T) {
	template := []model.MethodLine{inj("t", "F1"), nonInj("wash", "Equilibrate")}
	out, err := Merge("Base", template, samples(t, `{"LineNumber":1,"Function":"F1","Vial":"X"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "wash"}, vials(out))
}

func TestMergeIsDeterministic(t *testing.T) {
	template := []model.MethodLine{nonInj("c", "E"), inj("t", "F1"), nonInj("w", "E")}
	incoming := samples(t, `{"LineNumber":2,"Function":"F1","Vial":"B"}`, `{"LineNumber":1,"Function":"F1","Vial":"A"}`)
	a, err := Merge("Base", template, incoming)
	require.NoError(t, err)
	b, err := Merge("Base", template, incoming)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMergeOverlayFields(t *testing.T) {
	template := []model.MethodLine{inj("t", "F1")}
	out, err := Merge("Base", template, samples(t,
		`{"LineNumber":1,"Function":"F1","Vial":7,"NumOfInjs":3,"RunTime":"12.5","Label":null,"Note":"hello","Extra":12,"Dilution":null}`,
	))
	require.NoError(t, err)
	l := out[0]

	assert.Equal(t, "7", l.Vial)
	assert.Equal(t, 3, *l.NumOfInjs)
	assert.Equal(t, 12.5, *l.RunTime)
	assert.Equal(t, "", l.Label)

	note := l.Columns[l.Column("Note")].Value
	assert.Equal(t, model.KindString, note.Kind)
	assert.Equal(t, "hello", note.Str)

	extra := l.Columns[l.Column("Extra")].Value
	assert.Equal(t, model.StringValue("12"), extra)

	assert.Equal(t, model.KindNull, l.Columns[l.Column("Dilution")].Value.Kind)
	assert.Equal(t, -1, l.Column(model.KeyLineNumber))
}

func TestMergeCoercionError(t *testing.T) {
	template := []model.MethodLine{inj("t", "F1")}
	_, err := Merge("Base", template, samples(t, `{"LineNumber":4,"Function":"F1","Vial":"A","Dilution":"lots"}`))

	var ce *CoercionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 4, ce.LineNumber)
	assert.Equal(t, "Dilution", ce.Field)

	_, err = Merge("Base", template, samples(t, `{"LineNumber":1,"Function":"F1","Vial":"A","InjVol":"ten"}`))
	assert.ErrorAs(t, err, &ce)
}
