package watchdog

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zoeyai/zoomwatch/pkg/config"
	"github.com/zoeyai/zoomwatch/pkg/focus"
	"github.com/zoeyai/zoomwatch/pkg/handler"
	"github.com/zoeyai/zoomwatch/pkg/search"
	"github.com/zoeyai/zoomwatch/pkg/uia"
	"github.com/zoeyai/zoomwatch/pkg/uia/uiatest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	interval = 10 * time.Second
	retry    = 7 * time.Second
	settle   = 500 * time.Millisecond
)

func testOptions(maxIterations int) Options {
	return Options{
		WindowPattern: regexp.MustCompile(".*Zoom Meeting.*"),
		ProcessName:   "Zoom",
		Interval:      interval,
		RetryDelay:    retry,
		SettleDelay:   settle,
		MaxIterations: maxIterations,
		RestoreFocus:  true,
	}
}

type stubHandler struct {
	name    string
	results []bool
	panics  bool
	calls   int
	envs    []*handler.Env
	hook    func(env *handler.Env)
}

func (s *stubHandler) Name() string { return s.name }

func (s *stubHandler) Handle(env *handler.Env) bool {
	s.calls++
	s.envs = append(s.envs, env)
	if s.hook != nil {
		s.hook(env)
	}
	if s.panics {
		panic("boom")
	}
	if len(s.results) == 0 {
		return false
	}
	if s.calls-1 < len(s.results) {
		return s.results[s.calls-1]
	}
	return s.results[len(s.results)-1]
}

type sleepLog struct {
	ds          []time.Duration
	cancelAfter int
	cancel      context.CancelFunc
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.ds = append(s.ds, d)
	if s.cancelAfter > 0 && len(s.ds) >= s.cancelAfter {
		s.cancel()
	}
	return ctx.Err()
}

func (s *sleepLog) count(d time.Duration) int {
	n := 0
	for _, x := range s.ds {
		if x == d {
			n++
		}
	}
	return n
}

type fakeTracker struct {
	snap     focus.Snapshot
	err      error
	restores []focus.Snapshot
	restErr  error
	captures int
}

func (f *fakeTracker) Capture() (focus.Snapshot, error) {
	f.captures++
	return f.snap, f.err
}

func (f *fakeTracker) Restore(s focus.Snapshot) error {
	f.restores = append(f.restores, s)
	return f.restErr
}

func meetingDesktop() *uiatest.Desktop {
	return uiatest.NewDesktop(uiatest.Window("Chat"), uiatest.Window("Zoom Meeting 40-Minutes"))
}

func stubs(results ...[]bool) ([]handler.Handler, []*stubHandler) {
	names := []string{"poll", "recording", "audio"}
	var hs []handler.Handler
	var ss []*stubHandler
	for i, r := range results {
		s := &stubHandler{name: names[i%len(names)], results: r}
		hs = append(hs, s)
		ss = append(ss, s)
	}
	return hs, ss
}

func TestAllHandledStopsAfterOneIteration(t *testing.T) {
	hs, ss := stubs([]bool{true}, []bool{true}, []bool{true})
	sl := &sleepLog{}
	w := New(meetingDesktop(), hs, testOptions(500), WithSleeper(sl.sleep))

	res := w.Run(context.Background())

	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, AllHandled, res.Reason)
	assert.Equal(t, Done, w.State())
	for _, s := range ss {
		assert.Equal(t, 1, s.calls, s.name)
		assert.Equal(t, 1, res.Handled[s.name], s.name)
	}
	assert.Equal(t, []time.Duration{settle, settle, settle}, sl.ds)
}

func TestAllHandledMustBeSameIteration(t *testing.T) {
	hs, _ := stubs([]bool{true, false, true}, []bool{false, true, true}, []bool{true})
	sl := &sleepLog{}
	w := New(meetingDesktop(), hs, testOptions(500), WithSleeper(sl.sleep))

	res := w.Run(context.Background())

	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, AllHandled, res.Reason)
	assert.Equal(t, 2, sl.count(interval))
}

func TestCeiling(t *testing.T) {
	hs, ss := stubs([]bool{false}, []bool{false}, []bool{false})
	sl := &sleepLog{}
	w := New(meetingDesktop(), hs, testOptions(3), WithSleeper(sl.sleep))

	res := w.Run(context.Background())

	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, Ceiling, res.Reason)
	for _, s := range ss {
		assert.Equal(t, 3, s.calls)
	}
	assert.Equal(t, 9, sl.count(settle))
	assert.Equal(t, 2, sl.count(interval), "no interval sleep after the final iteration")
}

func TestWindowMissing(t *testing.T) {
	hs, ss := stubs([]bool{true}, []bool{true}, []bool{true})
	sl := &sleepLog{}
	var checked []string
	d := uiatest.NewDesktop(uiatest.Window("Chat"))
	w := New(d, hs, testOptions(2),
		WithSleeper(sl.sleep),
		WithProcessCheck(func(name string) bool { checked = append(checked, name); return false }),
	)

	res := w.Run(context.Background())

	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, Ceiling, res.Reason)
	assert.Equal(t, []time.Duration{retry, retry}, sl.ds)
	assert.Equal(t, []string{"Zoom", "Zoom"}, checked)
	assert.Zero(t, ss[0].calls)
	assert.Equal(t, 2, d.Calls(), "main window is re-resolved every iteration")
}

func TestWindowAppearsLater(t *testing.T) {
	hs, _ := stubs([]bool{true}, []bool{true}, []bool{true})
	d := uiatest.NewDesktop()
	sl := &sleepLog{}
	w := New(d, hs, testOptions(10), WithSleeper(func(ctx context.Context, dur time.Duration) error {
		if dur == retry {
			d.SetWindows(uiatest.Window("Zoom Meeting"))
		}
		return sl.sleep(ctx, dur)
	}))

	res := w.Run(context.Background())

	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, AllHandled, res.Reason)
}

func TestDesktopErrorIsRetried(t *testing.T) {
	hs, _ := stubs([]bool{true})
	d := meetingDesktop()
	d.Err = errors.New("bridge: COM error")
	sl := &sleepLog{}
	w := New(d, hs, testOptions(1), WithSleeper(sl.sleep), WithProcessCheck(func(string) bool { return true }))

	res := w.Run(context.Background())

	assert.Equal(t, Ceiling, res.Reason)
	assert.Equal(t, []time.Duration{retry}, sl.ds)
}

func TestCancel(t *testing.T) {
	hs, _ := stubs([]bool{false}, []bool{false}, []bool{false})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sl := &sleepLog{cancelAfter: 5, cancel: cancel}
	w := New(meetingDesktop(), hs, testOptions(500), WithSleeper(sl.sleep))

	res := w.Run(ctx)

	assert.Equal(t, Canceled, res.Reason)
	assert.Equal(t, 2, res.Iterations)
	assert.Len(t, sl.ds, 5)
}

func TestCanceledBeforeStart(t *testing.T) {
	hs, ss := stubs([]bool{true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := New(meetingDesktop(), hs, testOptions(500))

	res := w.Run(ctx)

	assert.Equal(t, Canceled, res.Reason)
	assert.Zero(t, res.Iterations)
	assert.Zero(t, ss[0].calls)
}

func TestFocusRestoredAfterEachSuccess(t *testing.T) {
	hs, _ := stubs([]bool{true}, []bool{false}, []bool{true})
	tr := &fakeTracker{snap: focus.Snapshot{PID: 77, Title: "Editor"}}
	w := New(meetingDesktop(), hs, testOptions(1), WithSleeper((&sleepLog{}).sleep), WithFocusTracker(tr))

	w.Run(context.Background())

	assert.Equal(t, 1, tr.captures)
	assert.Equal(t, []focus.Snapshot{tr.snap, tr.snap}, tr.restores)
}

func TestFocusRestoreFailuresAreTolerated(t *testing.T) {
	for _, restErr := range []error{focus.ErrGone, errors.New("denied")} {
		hs, _ := stubs([]bool{true}, []bool{true}, []bool{true})
		tr := &fakeTracker{snap: focus.Snapshot{PID: 77}, restErr: restErr}
		w := New(meetingDesktop(), hs, testOptions(5), WithSleeper((&sleepLog{}).sleep), WithFocusTracker(tr))

		res := w.Run(context.Background())

		assert.Equal(t, AllHandled, res.Reason)
		assert.Len(t, tr.restores, 3)
	}
}

func TestFocusCaptureFailureSkipsRestore(t *testing.T) {
	hs, _ := stubs([]bool{true})
	tr := &fakeTracker{err: errors.New("no foreground window")}
	w := New(meetingDesktop(), hs, testOptions(1), WithSleeper((&sleepLog{}).sleep), WithFocusTracker(tr))

	w.Run(context.Background())

	assert.Empty(t, tr.restores)
}

func TestRestoreFocusDisabled(t *testing.T) {
	hs, _ := stubs([]bool{true})
	tr := &fakeTracker{snap: focus.Snapshot{PID: 1}}
	opts := testOptions(1)
	opts.RestoreFocus = false
	w := New(meetingDesktop(), hs, opts, WithSleeper((&sleepLog{}).sleep), WithFocusTracker(tr))

	w.Run(context.Background())

	assert.Zero(t, tr.captures)
	assert.Empty(t, tr.restores)
}

func TestPanickingHandlerCountsAsFailure(t *testing.T) {
	hs, ss := stubs([]bool{true}, []bool{true}, []bool{true})
	ss[0].panics = true
	w := New(meetingDesktop(), hs, testOptions(2), WithSleeper((&sleepLog{}).sleep))

	res := w.Run(context.Background())

	assert.Equal(t, Ceiling, res.Reason)
	assert.Equal(t, 2, ss[1].calls, "later handlers still run")
	assert.Zero(t, res.Handled["poll"])
	assert.Equal(t, 2, res.Handled["recording"])
}

func TestHandlerEnv(t *testing.T) {
	hs, ss := stubs([]bool{true})
	w := New(meetingDesktop(), hs, testOptions(1), WithSleeper((&sleepLog{}).sleep))

	w.Run(context.Background())

	require.Len(t, ss[0].envs, 1)
	env := ss[0].envs[0]
	assert.Equal(t, "Zoom Meeting 40-Minutes", env.Main.Name())
	wins, err := env.Desktop.Windows()
	require.NoError(t, err)
	assert.Len(t, wins, 2)
}

func TestWindowsRefreshedBeforeEachHandler(t *testing.T) {
	hs, ss := stubs([]bool{true}, []bool{true}, []bool{true})
	d := meetingDesktop()
	w := New(d, hs, testOptions(1), WithSleeper((&sleepLog{}).sleep))

	w.Run(context.Background())

	assert.Equal(t, 4, d.Calls(), "one lookup for the iteration and one per handler")
	assert.NotSame(t, ss[0].envs[0], ss[1].envs[0])
}

func TestMainWindowGoneMidIteration(t *testing.T) {
	hs, ss := stubs([]bool{true}, []bool{true}, []bool{true})
	d := meetingDesktop()
	ss[0].hook = func(*handler.Env) { d.SetWindows(uiatest.Window("Chat")) }
	w := New(d, hs, testOptions(1), WithSleeper((&sleepLog{}).sleep))

	res := w.Run(context.Background())

	assert.Equal(t, Ceiling, res.Reason)
	assert.Equal(t, 1, res.Handled["poll"])
	assert.Zero(t, ss[1].calls)
	assert.Zero(t, ss[2].calls)
}

// 每个处理器看到的是等待界面稳定之后重新读取的子树
func TestSubtreeDumpedAgainForEachHandler(t *testing.T) {
	dumps := 0
	run := func(_ context.Context, script string) (string, error) {
		if strings.Contains(script, "MAX_DEPTH =") {
			dumps++
			return `{"root": {"name": "Zoom Meeting", "path": [], "children": []}}`, nil
		}
		return `{"windows": [{"handle": 1, "title": "Zoom Meeting"}]}`, nil
	}
	bridge := uia.NewBridgeWithRunner(run, nil)

	hs, ss := stubs([]bool{true}, []bool{true}, []bool{true})
	for _, s := range ss {
		s.hook = func(env *handler.Env) {
			_, err := env.Main.Children()
			assert.NoError(t, err)
		}
	}
	w := New(bridge, hs, testOptions(1), WithSleeper((&sleepLog{}).sleep))

	res := w.Run(context.Background())

	assert.Equal(t, AllHandled, res.Reason)
	assert.Equal(t, 3, dumps)
}

func TestNoHandlersNeverAllHandled(t *testing.T) {
	w := New(meetingDesktop(), nil, testOptions(2), WithSleeper((&sleepLog{}).sleep))

	res := w.Run(context.Background())

	assert.Equal(t, Ceiling, res.Reason)
}

// 使用真实处理器和内存中的无障碍树
func TestRealHandlersOneIteration(t *testing.T) {
	main := uiatest.Window("Zoom Meeting",
		uiatest.Pane("video", uiatest.Group("tiles").Broken()),
		uiatest.Pane("recording notice",
			uiatest.Text("This meeting is being recorded"),
			uiatest.Button("OK"),
		),
		uiatest.Pane("Not hearing anything?", uiatest.Button("Close")),
	)
	poll := uiatest.Window("Poll",
		uiatest.Radio("Yes"),
		uiatest.Radio("No"),
		uiatest.Button("Submit"),
	)
	d := uiatest.NewDesktop(main, poll)

	cfg := config.DefaultWatchConfig()
	cfg.PollChoice = 2
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	tr := &fakeTracker{snap: focus.Snapshot{PID: 3}}

	w := New(d, handler.Defaults(cfg), *opts, WithSleeper((&sleepLog{}).sleep), WithFocusTracker(tr))
	res := w.Run(context.Background())

	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, AllHandled, res.Reason)
	assert.Equal(t, []uiatest.Action{
		{Kind: uiatest.ActionFocus, Name: "Poll"},
		{Kind: uiatest.ActionSelect, Name: "No"},
		{Kind: uiatest.ActionClick, Name: "Submit"},
		{Kind: uiatest.ActionClick, Name: "OK"},
		{Kind: uiatest.ActionClick, Name: "Close"},
	}, d.Actions())
	assert.Len(t, tr.restores, 3)
}

// 弹窗在被点击后消失，之后的迭代不会重复点击
func TestRealHandlersPopupDismissedOnce(t *testing.T) {
	notice := uiatest.Pane("notice", uiatest.Text("This meeting is being recorded"), uiatest.Button("OK"))
	main := uiatest.Window("Zoom Meeting", notice)
	notice.Kids[1].OnClick = func() { main.Remove(notice) }
	d := uiatest.NewDesktop(main)

	never := &stubHandler{name: "audio"}
	hs := []handler.Handler{handler.NewRecording(search.DefaultMaxDepth), never}
	w := New(d, hs, testOptions(4), WithSleeper((&sleepLog{}).sleep))
	res := w.Run(context.Background())

	assert.Equal(t, Ceiling, res.Reason)
	assert.Equal(t, 4, res.Iterations)
	assert.Equal(t, 1, res.Handled["recording"])
	assert.Equal(t, 1, d.Count(uiatest.ActionClick))
	assert.Empty(t, main.Kids)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultWatchConfig()
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)

	assert.True(t, opts.WindowPattern.MatchString("Zoom Meeting"))
	assert.False(t, opts.WindowPattern.MatchString("Zoom Workplace"))
	assert.Equal(t, 500, opts.MaxIterations)
	assert.Equal(t, 10*time.Second, opts.Interval)
	assert.True(t, opts.RestoreFocus)

	cfg.MaxIterations = 0
	_, err = OptionsFromConfig(cfg)
	assert.Error(t, err)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
	assert.NoError(t, sleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRunWithRealSleeper(t *testing.T) {
	hs, _ := stubs([]bool{false})
	opts := testOptions(3)
	opts.Interval = time.Millisecond
	opts.SettleDelay = time.Millisecond

	res := New(meetingDesktop(), hs, opts).Run(context.Background())

	assert.Equal(t, Ceiling, res.Reason)
	assert.Equal(t, 3, res.Iterations)
}

var _ uia.Desktop = staticDesktop(nil)
