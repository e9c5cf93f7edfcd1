package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/stfd/internal/model"
)

func sampleLines(t *testing.T, raws ...string) []model.SampleLine {
	t.Helper()
	out := make([]model.SampleLine, len(raws))
	for i, r := range raws {
		require.NoError(t, json.Unmarshal([]byte(r), &out[i]))
	}
	return out
}

func TestDecide(t *testing.T) {
	queue := []model.QueueEntry{
		{JobID: 2, Name: "Y", Project: "Lab"},
		{JobID: 1, Name: "X", Project: "Lab"},
		{JobID: 3, Name: "W", Project: "Other"},
	}

	tests := []struct {
		name    string
		job     model.JobSpec
		project string
		want    RouteKind
		wantID  int
		wantPos int
	}{
		{name: "new job ignores queue", job: model.JobSpec{Name: "X", IsNew: true}, project: "Lab", want: RouteCreateNew},
		{name: "first by job id is running", job: model.JobSpec{Name: "X"}, project: "Lab", want: RouteRunning, wantID: 1},
		{name: "later entry is queued", job: model.JobSpec{Name: "Y"}, project: "Lab", want: RouteQueued, wantID: 2, wantPos: 1},
		{name: "absent is completed", job: model.JobSpec{Name: "Z"}, project: "Lab", want: RouteCompleted},
		{name: "other project entry is not ours", job: model.JobSpec{Name: "W"}, project: "Lab", want: RouteCompleted},
		{name: "project must match", job: model.JobSpec{Name: "W"}, project: "Other", want: RouteQueued, wantID: 3, wantPos: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Decide(&tt.job, tt.project, queue)
			assert.Equal(t, tt.want, r.Kind)
			assert.Equal(t, tt.wantID, r.Entry.JobID)
			assert.Equal(t, tt.wantPos, r.Position)
		})
	}
	assert.Equal(t, 2, queue[0].JobID, "snapshot is not reordered")
}

func TestRouteKindString(t *testing.T) {
	assert.Equal(t, "create_new", RouteCreateNew.String())
	assert.Equal(t, "update_running", RouteRunning.String())
	assert.Equal(t, "update_queued", RouteQueued.String())
	assert.Equal(t, "update_completed", RouteCompleted.String())
	assert.Equal(t, "unknown", RouteKind(42).String())
}

func TestLastInjectionIndex(t *testing.T) {
	assert.Equal(t, -1, LastInjectionIndex(nil))
	lines := []model.MethodLine{
		{Function: "Equilibrate"},
		{Function: model.InjectSamples},
		{Function: "Equilibrate"},
		{Function: model.InjectSamples},
		{Function: "Condition Column"},
	}
	assert.Equal(t, 3, LastInjectionIndex(lines))
	assert.Equal(t, -1, LastInjectionIndex(lines[:1]))
}

func TestTrimToPending(t *testing.T) {
	s := sampleLines(t,
		`{"LineNumber":4,"Function":"Inject Samples","Vial":"A4"}`,
		`{"LineNumber":1,"Function":"Equilibrate","Vial":"W"}`,
		`{"LineNumber":2,"Function":"Inject Samples","Vial":"A2"}`,
		`{"LineNumber":3,"Function":"Inject Samples","Vial":"A3"}`,
	)
	assert.Equal(t, 3, CountInjectionSamples(s))

	got := TrimToPending(s, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "A3", got[0].Vial())
	assert.Equal(t, "A4", got[1].Vial())
	assert.Equal(t, "A4", s[0].Vial(), "input is not modified")

	assert.Len(t, TrimToPending(s, 10), 3)
	assert.Nil(t, TrimToPending(s, 0))
	assert.Nil(t, TrimToPending(s, -1))
}
