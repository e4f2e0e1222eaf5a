package ui

import (
	"context"
	"io"
)

// logPane forwards log output to a view from its own goroutine. A full buffer
// drops lines instead of blocking the logger.
type logPane struct {
	out   io.Writer
	lines chan []byte
}

func newLogPane(out io.Writer) *logPane {
	return &logPane{
		out:   out,
		lines: make(chan []byte, 256),
	}
}

func (p *logPane) Write(b []byte) (int, error) {
	line := make([]byte, len(b))
	copy(line, b)

	select {
	case p.lines <- line:
	default:
	}
	return len(b), nil
}

func (p *logPane) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case line := <-p.lines:
			p.out.Write(line)
		}
	}
}
