package stream

import (
	"errors"
	"strings"
	"testing"
)

func TestScanner(t *testing.T) {
	t.Run("Basic Events", func(t *testing.T) {
		input := "event: progress\ndata: {\"step\":1}\n\ndata: plain\n\n"
		scanner := NewScanner(strings.NewReader(input))

		if !scanner.Next() {
			t.Fatal("expected first event")
		}
		event := scanner.Event()
		if event.Type != "progress" {
			t.Errorf("event.Type = %q, want progress", event.Type)
		}
		if event.Data != `{"step":1}` {
			t.Errorf("event.Data = %q", event.Data)
		}

		if !scanner.Next() {
			t.Fatal("expected second event")
		}
		event = scanner.Event()
		if event.Type != "" {
			t.Errorf("event.Type = %q, want empty", event.Type)
		}
		if event.Data != "plain" {
			t.Errorf("event.Data = %q, want plain", event.Data)
		}

		if scanner.Next() {
			t.Error("expected no more events")
		}
		if err := scanner.Err(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Multiple Data Lines", func(t *testing.T) {
		scanner := NewScanner(strings.NewReader("data: one\ndata: two\ndata:three\n\n"))

		if !scanner.Next() {
			t.Fatal("expected event")
		}
		if got := scanner.Event().Data; got != "one\ntwo\nthree" {
			t.Errorf("event.Data = %q", got)
		}
	})

	t.Run("Comments And Unknown Fields", func(t *testing.T) {
		scanner := NewScanner(strings.NewReader(": keepalive\nfoo: bar\ndata: x\n\n"))

		if !scanner.Next() {
			t.Fatal("expected event")
		}
		if got := scanner.Event().Data; got != "x" {
			t.Errorf("event.Data = %q, want x", got)
		}
	})

	t.Run("CRLF Line Endings", func(t *testing.T) {
		scanner := NewScanner(strings.NewReader("data: a\r\n\r\ndata: b\r\n\r\n"))

		var got []string
		for scanner.Next() {
			got = append(got, scanner.Event().Data)
		}
		if strings.Join(got, ",") != "a,b" {
			t.Errorf("got %v, want [a b]", got)
		}
	})

	t.Run("Unterminated Final Event Is Discarded", func(t *testing.T) {
		scanner := NewScanner(strings.NewReader("data: first\n\ndata: last\n"))

		var got []string
		for scanner.Next() {
			got = append(got, scanner.Event().Data)
		}
		if strings.Join(got, ",") != "first" {
			t.Errorf("got %v", got)
		}
		if err := scanner.Err(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Blocks Without Data Are Skipped", func(t *testing.T) {
		scanner := NewScanner(strings.NewReader("event: ping\n\ndata: real\n\n"))

		if !scanner.Next() {
			t.Fatal("expected event")
		}
		event := scanner.Event()
		if event.Type != "" || event.Data != "real" {
			t.Errorf("unexpected event %+v", event)
		}
	})

	t.Run("Last Event ID Carries Over", func(t *testing.T) {
		scanner := NewScanner(strings.NewReader("id: 7\ndata: a\n\ndata: b\n\n"))

		scanner.Next()
		if scanner.Event().ID != "7" {
			t.Errorf("expected id 7, got %q", scanner.Event().ID)
		}
		scanner.Next()
		if scanner.Event().ID != "7" {
			t.Errorf("expected id to carry over, got %q", scanner.Event().ID)
		}
	})

	t.Run("Read Error", func(t *testing.T) {
		scanner := NewScanner(&failingReader{})

		if scanner.Next() {
			t.Fatal("expected no event")
		}
		if err := scanner.Err(); err == nil || err.Error() != "read failed" {
			t.Errorf("expected read failed, got %v", err)
		}
	})
}

type failingReader struct{}

func (f *failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("read failed")
}
