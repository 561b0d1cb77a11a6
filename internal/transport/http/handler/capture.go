package handler

import (
	"io"
	"net/http"
	"strings"
)

// limitedCapture buffers up to limit bytes of whatever is written
// through it and silently discards the rest. It never fails a write,
// so it is safe on the tee side of a client-facing copy.
type limitedCapture struct {
	limit int
	buf   []byte
}

func newLimitedCapture(limit int) *limitedCapture {
	return &limitedCapture{limit: limit}
}

func (lc *limitedCapture) Write(p []byte) (int, error) {
	remain := lc.limit - len(lc.buf)
	if remain > 0 {
		if len(p) < remain {
			remain = len(p)
		}
		lc.buf = append(lc.buf, p[:remain]...)
	}
	return len(p), nil
}

func (lc *limitedCapture) Bytes() []byte { return lc.buf }

// flushWriter flushes after every write so streamed chunks reach the
// client without buffering delay.
type flushWriter struct {
	w  io.Writer
	fl http.Flusher
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	fw.fl.Flush()
	return n, err
}

// isHopByHopHeader reports whether a response header must not be
// forwarded across the proxy boundary.
func isHopByHopHeader(k string) bool {
	switch strings.ToLower(strings.TrimSpace(k)) {
	case "connection", "keep-alive", "proxy-authenticate", "proxy-authorization",
		"te", "trailer", "transfer-encoding", "upgrade":
		return true
	default:
		return false
	}
}
