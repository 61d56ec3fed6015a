package sse

import (
	"bufio"
	"io"
	"strings"
)

// Event is one server-sent event
type Event struct {
	Event string
	Data  string
}

// Parse reads events from r and calls fn for each one. A non-nil error from
// fn stops parsing and is returned.
func Parse(r io.Reader, fn func(Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 512*1024)

	var name string
	var data []string

	flush := func() error {
		if len(data) == 0 {
			name = ""
			return nil
		}
		ev := Event{Event: strings.TrimSpace(name), Data: strings.Join(data, "\n")}
		name = ""
		data = data[:0]
		return fn(ev)
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return flush()
}
