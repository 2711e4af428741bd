package tuitest

import (
	"bytes"
	"testing"
)

func TestStripANSI(t *testing.T) {
	in := "\x1b[1;31mPaper\x1b[0m \x1b]11;rgb:0000/0000/0000\x07title\x0f"
	if got := StripANSI(in); got != "Paper title" {
		t.Fatalf("unexpected plain text %q", got)
	}
}

func TestSplitFrames(t *testing.T) {
	raw := "\x1b[2J\x1b[HPaper 1  \r\nresult 1/2\x1b[2J\x1b[H\x1b[32mPaper 2\x1b[0m\r\n\r\n"
	frames := splitFrames(raw)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].Plain != "Paper 1\nresult 1/2" {
		t.Fatalf("unexpected first frame %q", frames[0].Plain)
	}
	if frames[1].Plain != "Paper 2" || frames[1].Index != 1 {
		t.Fatalf("unexpected second frame %+v", frames[1])
	}
}

func TestResponderAnswersSplitQuery(t *testing.T) {
	var out bytes.Buffer
	r := newResponder(&out)
	r.Observe([]byte("hello\x1b["))
	if out.Len() != 0 {
		t.Fatalf("unexpected early reply %q", out.String())
	}
	r.Observe([]byte("6n\x1b]11;?\x07"))
	if got := out.String(); got != "\x1b[1;1R\x1b]11;rgb:0000/0000/0000\x07" {
		t.Fatalf("unexpected replies %q", got)
	}
}

func TestRecordingHelpers(t *testing.T) {
	var nilRec *Recording
	if nilRec.Plain() != "" {
		t.Fatal("nil recording should be empty")
	}
	if _, ok := nilRec.LastFrame(); ok {
		t.Fatal("nil recording has no frames")
	}
	rec := &Recording{Raw: []byte("\x1b[2J\x1b[Hone\x1b[2J\x1b[Htwo\r\n")}
	rec.Frames = splitFrames(string(rec.Raw))
	last, ok := rec.LastFrame()
	if !ok || last.Plain != "two" {
		t.Fatalf("unexpected last frame %+v", last)
	}
	if got := rec.Plain(); got != "onetwo\n" {
		t.Fatalf("unexpected plain stream %q", got)
	}
}

func TestWithTerm(t *testing.T) {
	env := withTerm([]string{"TERM=dumb"})
	if env[len(env)-1] != "TERM=xterm-256color" {
		t.Fatalf("expected TERM override, got %v", env)
	}
	env = withTerm([]string{"TERM=screen"})
	if len(env) != 1 {
		t.Fatalf("existing TERM should be kept, got %v", env)
	}
}
