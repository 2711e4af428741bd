package tuitest

import (
	"bytes"
	"io"
)

// terminalQueries maps the queries bubbletea and termenv send on startup to
// the replies a real terminal would give. Without replies the program
// stalls waiting on them.
var terminalQueries = []struct {
	query []byte
	reply []byte
}{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

const (
	pendingLimit = 256
	pendingKeep  = 64
)

// responder answers terminal queries found in the output stream.
type responder struct {
	w       io.Writer
	pending []byte
}

func newResponder(w io.Writer) *responder {
	return &responder{w: w, pending: make([]byte, 0, pendingLimit)}
}

func (r *responder) Observe(chunk []byte) {
	r.pending = append(r.pending, chunk...)
	for r.answerOne() {
	}
	// A query may straddle two reads, so keep a short tail.
	if len(r.pending) > pendingLimit {
		r.pending = r.pending[len(r.pending)-pendingKeep:]
	}
}

func (r *responder) answerOne() bool {
	for _, q := range terminalQueries {
		idx := bytes.Index(r.pending, q.query)
		if idx < 0 {
			continue
		}
		r.pending = r.pending[idx+len(q.query):]
		_, _ = r.w.Write(q.reply)
		return true
	}
	return false
}
