package stream

import (
	"bufio"
	"io"
	"strings"
)

// Event is one dispatched Server-Sent Event.
type Event struct {
	Type  string // "event" field, empty for the default message type
	ID    string // Last "id" field seen in the stream
	Retry string // Raw "retry" field, not acted on
	Data  string // "data" lines joined with "\n"
}

// Scanner reads events from a text/event-stream body.
//
// Blocks are separated by blank lines; comment lines (leading ":") and unknown fields are skipped.
type Scanner struct {
	reader *bufio.Reader
	lastID string
	event  Event
	err    error
}

// NewScanner creates a Scanner over r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{reader: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances to the next event carrying data. It returns false at EOF or on error; see [Scanner.Err].
//
// A trailing event without its blank line is discarded at EOF.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}

	var (
		data    []string
		hasData bool
		typ     string
		retry   string
	)

	emit := func() {
		s.event = Event{Type: typ, ID: s.lastID, Retry: retry, Data: strings.Join(data, "\n")}
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && line == "" {
			// An event is only dispatched by its terminating blank line.
			s.err = err
			return false
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasData {
				emit()
				return true
			}
			typ, retry = "", ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if ok {
			value = strings.TrimPrefix(value, " ")
		}

		switch field {
		case "data":
			data = append(data, value)
			hasData = true
		case "event":
			typ = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				s.lastID = value
			}
		case "retry":
			retry = value
		}
	}
}

// Event returns the event parsed by the last successful [Scanner.Next].
func (s *Scanner) Event() Event {
	return s.event
}

// Err returns the error that stopped the scanner, or nil after a clean EOF.
func (s *Scanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
