package crash

import (
	"runtime"
	"strings"
	"testing"
)

func TestCaptureIndicesAndBound(t *testing.T) {
	c := newStackCapturer(3)
	frames := c.capture(0)

	if len(frames) == 0 || len(frames) > 3 {
		t.Fatalf("len(frames) = %d, want 1..3", len(frames))
	}
	for i, f := range frames {
		if f.Index != i {
			t.Fatalf("frames[%d].Index = %d", i, f.Index)
		}
	}
	if !strings.HasSuffix(frames[0].Symbol, "TestCaptureIndicesAndBound") {
		t.Fatalf("frames[0].Symbol = %q, want the calling test", frames[0].Symbol)
	}
	if frames[0].Offset == 0 {
		t.Fatal("frames[0].Offset = 0, want the distance from the function entry")
	}
}

func TestNewStackCapturerClampsMax(t *testing.T) {
	if c := newStackCapturer(0); c.max != MaxFrames {
		t.Fatalf("max = %d, want %d", c.max, MaxFrames)
	}
	if c := newStackCapturer(10000); c.max != maxFramesLimit {
		t.Fatalf("max = %d, want %d", c.max, maxFramesLimit)
	}
}

var testFaultTarget *int

//go:noinline
func faultForTest() {
	*testFaultTarget = 7
}

func TestCaptureStartsAtFaultingFrame(t *testing.T) {
	c := newStackCapturer(MaxFrames)

	var frames []Frame
	func() {
		defer func() {
			frames = c.capture(0)
			recover()
		}()
		faultForTest()
	}()

	if len(frames) == 0 {
		t.Fatal("no frames captured")
	}
	if !strings.HasSuffix(frames[0].Symbol, ".faultForTest") {
		t.Fatalf("frames[0].Symbol = %q, want faultForTest", frames[0].Symbol)
	}
}

func TestTrimPanic(t *testing.T) {
	frames := []Frame{
		{Symbol: "crash.(*Handler).report"},
		{Symbol: "crash.(*Handler).Guard"},
		{Symbol: "runtime.gopanic"},
		{Symbol: "runtime.panicmem"},
		{Symbol: "runtime.sigpanic"},
		{Symbol: "game.(*Entity).Think"},
		{},
		{Symbol: "main.main"},
	}
	got := trimPanic(frames)
	if len(got) != 3 || got[0].Symbol != "game.(*Entity).Think" {
		t.Fatalf("trimPanic = %+v, want to start at game.(*Entity).Think", got)
	}

	plain := []Frame{{Symbol: "a"}, {Symbol: "b"}}
	if got := trimPanic(plain); len(got) != 2 {
		t.Fatalf("trimPanic without panic dropped frames: %+v", got)
	}
}

func TestTrimHandler(t *testing.T) {
	own := "github.com/customfortress/crashd/internal/crash.(*interceptor)."

	bare := []Frame{
		{Symbol: own + "run"},
		{Symbol: own + "deliver"},
		{Symbol: "runtime.goexit"},
	}
	if got := trimHandler(bare); len(got) != 0 {
		t.Fatalf("trimHandler = %+v, want no frames", got)
	}

	called := []Frame{
		{Symbol: own + "run"},
		{Symbol: own + "deliver"},
		{Symbol: "game.(*Server).Frame"},
		{Symbol: "runtime.goexit"},
	}
	if got := trimHandler(called); len(got) != 2 || got[0].Symbol != "game.(*Server).Frame" {
		t.Fatalf("trimHandler = %+v, want to start at game.(*Server).Frame", got)
	}

	plain := []Frame{{Symbol: "main.main"}, {Symbol: "runtime.main"}}
	if got := trimHandler(plain); len(got) != 2 {
		t.Fatalf("trimHandler dropped caller frames: %+v", got)
	}
}

func TestResolveDemangles(t *testing.T) {
	c := &stackCapturer{}
	if got := c.resolve(frameFor("_ZN4Game5ThinkEv")).Symbol; got != "Game::Think()" {
		t.Fatalf("Symbol = %q, want Game::Think()", got)
	}
	if got := c.resolve(frameFor("main.main")).Symbol; got != "main.main" {
		t.Fatalf("Symbol = %q, want main.main unchanged", got)
	}
	if f := c.resolve(frameFor("")); f.Resolved() {
		t.Fatal("frame without a function reported as resolved")
	}
}

func frameFor(fn string) runtime.Frame {
	return runtime.Frame{Function: fn, PC: 0x1010, Entry: 0x1000}
}
