package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/robosim/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult() *dynamo.Result {
	trace := func(vx float64, n int) []dynamo.Sample {
		out := make([]dynamo.Sample, n)
		for i := range out {
			t := float64(i) * 0.01
			out[i] = dynamo.Sample{
				Time:     t,
				Snapshot: dynamo.Snapshot{Pose: dynamo.Pose2D{X: vx * t, Heading: 0.25}, Speed: vx},
				Command:  dynamo.Velocity2D{VX: vx, Angular: -0.5},
				Arrived:  i == n-1,
			}
		}
		return out
	}
	return &dynamo.Result{
		Traces: map[string][]dynamo.Sample{
			"alpha": trace(0.5, 3),
			"beta":  trace(0.25, 2),
		},
		Metrics: map[string]map[string]float64{
			"alpha": {"path_length": 1.5},
			"beta":  {"path_length": 0.5},
		},
		Teams:      map[string]int{"alpha": 0, "beta": 1},
		Duration:   0.03,
		StepsTaken: 3,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runID, err := st.Save(RunMetadata{
		Name:       "duel",
		Seed:       42,
		Dt:         0.01,
		Integrator: "rk4",
		Robots:     []RobotInfo{{Name: "beta", Kind: "galipeur"}},
	}, testResult())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "duel_"))

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, int64(42), meta.Seed)
	assert.Equal(t, 3, meta.Steps)
	assert.InDelta(t, 0.03, meta.Duration, 1e-12)
	assert.Equal(t, 1.5, meta.Metrics["alpha"]["path_length"])
	assert.Equal(t, []RobotInfo{
		{Name: "beta", Team: 1, Kind: "galipeur"},
		{Name: "alpha", Team: 0},
	}, meta.Robots)

	trace, err := st.LoadTrace(runID, "alpha")
	require.NoError(t, err)
	require.Len(t, trace, 3)
	assert.InDelta(t, 0.02, trace[2].Time, 1e-9)
	assert.InDelta(t, 0.01, trace[2].Snapshot.Pose.X, 1e-6)
	assert.InDelta(t, 0.25, trace[2].Snapshot.Pose.Heading, 1e-6)
	assert.InDelta(t, 0.5, trace[2].Command.VX, 1e-6)
	assert.InDelta(t, -0.5, trace[2].Command.Angular, 1e-6)
	assert.True(t, trace[2].Arrived)
	assert.False(t, trace[0].Arrived)
}

func TestStore_UniqueIDs(t *testing.T) {
	st := New(t.TempDir())
	a, err := st.Save(RunMetadata{Name: "x"}, testResult())
	require.NoError(t, err)
	b, err := st.Save(RunMetadata{Name: "x"}, testResult())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	for i := 0; i < 3; i++ {
		_, err := st.Save(RunMetadata{Name: "run"}, testResult())
		require.NoError(t, err)
	}
	// unreadable directories are skipped
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "garbage"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	for i := 1; i < len(runs); i++ {
		assert.False(t, runs[i].Timestamp.After(runs[i-1].Timestamp), "newest first")
	}
}

func TestStoreList_MissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStore_NotFound(t *testing.T) {
	st := New(t.TempDir())

	_, err := st.Load("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)

	runID, err := st.Save(RunMetadata{}, testResult())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "run_"))
	_, err = st.LoadTrace(runID, "gamma")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_RejectsPathNames(t *testing.T) {
	st := New(t.TempDir())
	res := testResult()
	res.Traces["../evil"] = nil

	_, err := st.Save(RunMetadata{}, res)
	assert.Error(t, err)

	_, err = st.Load("../etc")
	assert.Error(t, err)
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{Name: "export", Dt: 0.01}, testResult())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, st.ExportJSON(&buf, runID))

	var data ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, runID, data.Metadata.ID)
	assert.Len(t, data.Traces, 2)
	assert.Len(t, data.Traces["alpha"], 3)
	assert.Len(t, data.Traces["beta"], 2)
	assert.True(t, data.Traces["beta"][1].Arrived)
}

func TestReadTrace_Malformed(t *testing.T) {
	bad := "time,x,y,heading,vx,vy,angular,arrived\n0,a,0,0,0,0,0,false\n"
	_, err := ReadTrace(strings.NewReader(bad))
	assert.Error(t, err)

	empty, err := ReadTrace(strings.NewReader(strings.Join(traceHeader, ",") + "\n"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWriteTrace_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrace(&buf, nil))
	assert.Equal(t, "time,x,y,heading,vx,vy,angular,arrived\n", buf.String())
}
