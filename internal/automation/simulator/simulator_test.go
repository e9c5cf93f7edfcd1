package simulator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/stfd/internal/automation"
	"github.com/msageha/stfd/internal/model"
)

func ptr[T any](v T) *T { return &v }

func lab(t *testing.T) *System {
	t.Helper()
	s := New()
	s.AddUser("svc", "pw")
	s.AddSystem("NODE1", "HPLC")
	s.AddMethod("Lab", "Base", "base", []model.MethodLine{
		{Vial: "C", Function: "Equilibrate"},
		{Vial: "T1", Function: model.InjectSamples, InjVol: ptr(5.0)},
	})
	return s
}

func TestProjectSession(t *testing.T) {
	s := lab(t)
	p := s.NewProject()

	_, err := p.MethodByName("Base")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	assert.ErrorIs(t, p.Login(automation.Login{Project: "Lab", Username: "svc", Password: "bad"}), ErrBadCredentials)
	assert.ErrorIs(t, p.Login(automation.Login{Project: "Nope", Username: "svc", Password: "pw"}), ErrNoSuchProject)
	require.NoError(t, p.Login(automation.Login{Project: "Lab", Username: "svc", Password: "pw"}))
	assert.Equal(t, "Lab", s.ActiveProject())

	d, err := p.MethodByName("Base")
	require.NoError(t, err)
	require.NotNil(t, d)
	missing, err := p.MethodByName("Other")
	require.NoError(t, err)
	assert.Nil(t, missing)

	lines, err := p.SampleLines(d.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	lines[0].Vial = "changed"
	_, stored, _ := s.Method("Lab", "Base")
	assert.Equal(t, "C", stored[0].Vial, "fetched lines are copies")

	require.NoError(t, p.SaveMethodAndLines(model.MethodDetails{Name: "X", Comments: "c"}, lines))
	saved, savedLines, ok := s.Method("Lab", "X")
	require.True(t, ok)
	assert.NotEqual(t, d.ID, saved.ID)
	assert.Equal(t, "changed", savedLines[0].Vial)

	p.SetAuditComment("audit")
	assert.Equal(t, []string{"audit"}, s.AuditComments())
}

func TestInstrumentQueue(t *testing.T) {
	s := lab(t)
	p := s.NewProject()
	require.NoError(t, p.Login(automation.Login{Project: "Lab", Username: "svc", Password: "pw"}))
	inst := s.NewInstrument()

	_, err := inst.QueueEntries()
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, automation.WaitForConnection(context.Background(), inst, "NODE1", "HPLC", time.Second))
	require.NoError(t, inst.Run("Base", "Base", model.RunOnly))
	require.NoError(t, inst.Run("Base", "Base", model.RunOnly))
	assert.Error(t, inst.Run("Missing", "Missing", model.RunOnly))

	q, err := inst.QueueEntries()
	require.NoError(t, err)
	require.Len(t, q, 2)
	assert.Equal(t, "Lab", q[0].Project)

	s.SetCursor(4)
	idx, ok, err := inst.CurrentLineIndex()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, idx)

	require.NoError(t, inst.ReplaceCurrentJob("X"))
	require.NoError(t, inst.RemoveFromQueue(q[1].JobID))
	assert.Error(t, inst.RemoveFromQueue(99))
	assert.Equal(t, []model.QueueEntry{{JobID: q[0].JobID, Name: "X", Project: "Lab"}}, s.Queue())

	require.NoError(t, inst.RemoveFromQueue(q[0].JobID))
	_, ok, err = inst.CurrentLineIndex()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnknownSystemDoesNotConnect(t *testing.T) {
	s := lab(t)
	err := automation.WaitForConnection(context.Background(), s.NewInstrument(), "NODE9", "HPLC", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HPLC@NODE9: connection not succeeded")
}

func TestFaultInjection(t *testing.T) {
	s := lab(t)
	boom := errors.New("boom")
	s.Fail(OpLogin, boom)
	p := s.NewProject()
	assert.ErrorIs(t, p.Login(automation.Login{Project: "Lab", Username: "svc", Password: "pw"}), boom)

	s.Fail(OpLogin, nil)
	require.NoError(t, p.Login(automation.Login{Project: "Lab", Username: "svc", Password: "pw"}))
	assert.Equal(t, []string{"login Lab", "login Lab"}, s.Calls())
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	seed := `users:
  svc: pw
systems:
  - node: NODE1
    system: HPLC
projects:
  Lab:
    - name: Base
      comments: base method
      lines:
        - vial: C
          function: Equilibrate
        - vial: T1
          function: Inject Samples
          inj_vol: 10
          num_of_injs: 1
          columns:
            Dilution: "1"
queue:
  - project: Lab
    name: Base
cursor: 1
`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0644))

	s, err := Load(path)
	require.NoError(t, err)

	d, lines, ok := s.Method("Lab", "Base")
	require.True(t, ok)
	assert.Equal(t, "base method", d.Comments)
	require.Len(t, lines, 2)
	assert.True(t, lines[1].IsInjection())
	assert.Equal(t, 1, *lines[1].NumOfInjs)
	assert.Equal(t, []model.Column{{Name: "Dilution", Value: model.StringValue("1")}}, lines[1].Columns)
	assert.Len(t, s.Queue(), 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
