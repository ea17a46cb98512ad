package trace

import (
	"bytes"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pleimann/gesture-pad/internal/gesture"
	"github.com/pleimann/gesture-pad/internal/pointer"
)

const quarterTurnScript = `
name: quarter turn
input: touch
steps:
  - {time: 0.00, op: create, pointer: 0, x: 300, y: 200}
  - {time: 0.00, op: create, pointer: 1, x: 100, y: 200}
  - {time: 0.01, op: down, pointer: 0}
  - {time: 0.01, op: down, pointer: 1}
  - {time: 0.05, op: move, pointer: 0, x: 330, y: 200}
  - {time: 0.05, op: move, pointer: 1, x: 70, y: 200}
  - {time: 0.10, op: move, pointer: 0, x: 292, y: 292}
  - {time: 0.10, op: move, pointer: 1, x: 108, y: 108}
  - {time: 0.15, op: move, pointer: 0, x: 200, y: 330}
  - {time: 0.15, op: move, pointer: 1, x: 200, y: 70}
  - {time: 0.20, op: up, pointer: 0}
  - {time: 0.20, op: up, pointer: 1}
  - {time: 0.21, op: remove, pointer: 0}
  - {time: 0.21, op: remove, pointer: 1}
`

func TestParseScript(t *testing.T) {
	s, err := ParseScript([]byte(quarterTurnScript))
	require.NoError(t, err)

	assert.Equal(t, "quarter turn", s.Name)
	assert.Len(t, s.Steps, 14)
	assert.Equal(t, OpMove, s.Steps[4].Op)
	assert.Equal(t, pointer.V2(330, 200), s.Steps[4].Position())
	assert.InDelta(t, 0.21, s.Duration(), 1e-9)
}

func TestScriptValidate(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		input string
		err   string
	}{
		{
			name:  "time goes backwards",
			steps: []Step{{Time: 1, Op: OpCreate}, {Time: 0.5, Op: OpDown}},
			err:   "before previous step",
		},
		{
			name:  "use before create",
			steps: []Step{{Op: OpDown, Pointer: 3}},
			err:   "used before create",
		},
		{
			name:  "created twice",
			steps: []Step{{Op: OpCreate}, {Op: OpCreate}},
			err:   "created twice",
		},
		{
			name:  "reused after remove",
			steps: []Step{{Op: OpCreate}, {Op: OpRemove}, {Op: OpCreate}},
			err:   "created twice",
		},
		{
			name:  "unknown op",
			steps: []Step{{Op: "hover"}},
			err:   "unknown op",
		},
		{
			name:  "bad step input",
			steps: []Step{{Op: OpCreate}, {Op: OpDown, Input: "stylus"}},
			err:   "unknown input type",
		},
		{
			name:  "bad script input",
			input: "stylus",
			err:   "script input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Script{Input: tt.input, Steps: tt.steps}
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestScriptSaveAndLoad(t *testing.T) {
	s, err := ParseScript([]byte(quarterTurnScript))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "turn.yaml")
	require.NoError(t, s.Save(path))

	loaded, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestLoadScriptMissing(t *testing.T) {
	_, err := LoadScript(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPlayDrivesRotation(t *testing.T) {
	s, err := ParseScript([]byte(quarterTurnScript))
	require.NoError(t, err)

	ps := pointer.NewSystem()
	gs := gesture.NewSystem()
	gs.Attach(ps)
	rotation := gesture.NewRotationGesture(pointer.InputTouch, 1)
	gs.AddGesture(rotation)

	var ended []gesture.RotationInfo
	rotation.Ended().Connect(func(info gesture.RotationInfo) { ended = append(ended, info) })

	var timestamps []float64
	ps.PointerMoved().Connect(func(ev pointer.MovedEvent) { timestamps = append(timestamps, ev.Timestamp) })

	var elapsed float32
	require.NoError(t, s.Play(ps, func(dt float32) {
		elapsed += dt
		gs.OnUpdate(dt)
	}))

	require.Len(t, ended, 1)
	// Pointer 0 turns from +X towards +Y, clockwise on screen.
	assert.InDelta(t, -math32.Pi/2, ended[0].Rotation, 0.02)
	assert.InDelta(t, 0.21, elapsed, 1e-5)
	assert.Equal(t, []float64{0.05, 0.05, 0.10, 0.10, 0.15, 0.15}, timestamps)
	assert.Empty(t, ps.ActivePointers())
}

func TestPlayRejectsInvalidScript(t *testing.T) {
	s := &Script{Steps: []Step{{Op: OpMove}}}
	assert.Error(t, s.Play(pointer.NewSystem(), nil))
}

func TestRecorderRoundTrip(t *testing.T) {
	original, err := ParseScript([]byte(quarterTurnScript))
	require.NoError(t, err)

	ps := pointer.NewSystem()
	gs := gesture.NewSystem()
	gs.Attach(ps)
	rotation := gesture.NewRotationGesture(pointer.InputTouch, 1)
	tap := gesture.NewTapGesture(1, 1, pointer.InputTouch, 1)
	gs.AddGesture(rotation)
	gs.AddGesture(tap)

	rec := NewRecorder(ps)
	rec.WatchRotation(rotation)
	rec.WatchTap(tap)
	require.NoError(t, original.Play(ps, nil))
	rec.Close()

	recorded := rec.Script()
	require.NoError(t, recorded.Validate())

	var ops []string
	for _, step := range recorded.Steps {
		ops = append(ops, string(step.Op))
	}
	// Removes are not observable and creates are emitted at first sight.
	assert.Equal(t, []string{
		"create", "down", "create", "down",
		"move", "move", "move", "move", "move", "move",
		"up", "up",
	}, ops)
	assert.Equal(t, float64(0), recorded.Steps[0].Time)
	assert.Equal(t, pointer.V2(300, 200), recorded.Steps[0].Position())

	notes := rec.Notes()
	require.Len(t, notes, 2)
	assert.True(t, strings.HasPrefix(notes[0].Text, "rotation started"), notes[0].Text)
	assert.Equal(t, "rotation ended, -90.0°", notes[1].Text)

	// Replaying the recording produces the same rotation.
	replay := pointer.NewSystem()
	gs2 := gesture.NewSystem()
	gs2.Attach(replay)
	rotation2 := gesture.NewRotationGesture(pointer.InputTouch, 1)
	gs2.AddGesture(rotation2)
	var ended []gesture.RotationInfo
	rotation2.Ended().Connect(func(info gesture.RotationInfo) { ended = append(ended, info) })
	require.NoError(t, recorded.Play(replay, nil))
	require.Len(t, ended, 1)
	assert.InDelta(t, -math32.Pi/2, ended[0].Rotation, 0.02)
}

func TestRecorderTapNote(t *testing.T) {
	ps := pointer.NewSystem()
	now := 10.0
	ps.SetClock(func() float64 { return now })
	rec := NewRecorder(ps)
	gs := gesture.NewSystem()
	gs.Attach(ps)
	tap := gesture.NewTapGesture(1, 1, pointer.InputTouch, 1)
	gs.AddGesture(tap)
	rec.WatchTap(tap)

	id := ps.AddPointerCreateEvent(pointer.V2(5, 5))
	ps.AddPointerDownEvent(id, pointer.InputTouch)
	ps.ProcessQueuedInput()
	now = 10.05
	ps.AddPointerUpEvent(id, pointer.InputTouch)
	ps.ProcessQueuedInput()

	notes := rec.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "tap 1x1 at (5, 5)", notes[0].Text)
	assert.InDelta(t, 0.05, notes[0].Time, 1e-9)
}

func TestRendererDrawLine(t *testing.T) {
	r := NewRenderer(10, 10)
	r.Clear()
	r.DrawLine(0, 0, 9, 9, 255)

	for i := 0; i < 10; i++ {
		if got := r.Pixel(i, i); got != 255 {
			t.Errorf("Pixel(%d, %d) = %d, want 255", i, i, got)
		}
	}
	if got := r.Pixel(9, 0); got != 0 {
		t.Errorf("Pixel(9, 0) = %d, want 0", got)
	}
}

func TestRendererDrawRect(t *testing.T) {
	r := NewRenderer(8, 8)
	r.DrawRect(0, 0, 8, 8)

	if r.Pixel(0, 0) != 255 || r.Pixel(7, 7) != 255 || r.Pixel(7, 0) != 255 {
		t.Error("rectangle corners not set")
	}
	if r.Pixel(3, 3) != 0 {
		t.Error("rectangle interior should be empty")
	}
}

func TestRendererDrawText(t *testing.T) {
	r := NewRenderer(64, 16)
	r.DrawText(0, 12, "A")

	lit := 0
	for y := 0; y < 16; y++ {
		for x := 0; x < 8; x++ {
			if r.Pixel(x, y) > 0 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("DrawText() did not set any pixels")
	}
}

func TestRenderScriptWritesPNG(t *testing.T) {
	s, err := ParseScript([]byte(quarterTurnScript))
	require.NoError(t, err)

	r := NewRenderer(320, 240)
	r.RenderScript(s, []Note{{Time: 0.2, Text: "rotation ended"}})

	var buf bytes.Buffer
	require.NoError(t, r.WritePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())

	lit := 0
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			if r.Pixel(x, y) > 0 {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 100)
}

func TestRenderEmptyScript(t *testing.T) {
	r := NewRenderer(64, 64)
	assert.NotPanics(t, func() { r.RenderScript(&Script{}, nil) })
}
