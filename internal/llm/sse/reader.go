package sse

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// doneSentinel is the conventional payload marking the end of an
// OpenAI-style event stream.
const doneSentinel = "[DONE]"

// Event is one parsed "data:" line.
type Event struct {
	// Index is this event's position in the stream, starting at 0.
	Index int
	// Data is the raw payload after the "data:" prefix, trimmed.
	Data string
}

// OnEvent is invoked once per parsed event. Returning a non-nil error
// stops reading and is propagated out of Read.
type OnEvent func(Event) error

// Read scans r line by line, emitting one Event per non-empty "data:"
// line to onEvent. Lines that are not a data line (blank separators,
// "event:"/"id:"/comment lines) are skipped. Reading stops at EOF, at the
// "[DONE]" sentinel, on ctx cancellation, or when onEvent returns an
// error.
func Read(ctx context.Context, r io.Reader, onEvent OnEvent) error {
	scanner := bufio.NewScanner(r)
	index := 0

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, ok := parseDataLine(scanner.Text())
		if !ok {
			continue
		}
		if data == doneSentinel {
			return nil
		}

		if err := onEvent(Event{Index: index, Data: data}); err != nil {
			return err
		}
		index++
	}
	return scanner.Err()
}

func parseDataLine(line string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimRight(line, "\r"), "data:")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", false
	}
	return rest, true
}
