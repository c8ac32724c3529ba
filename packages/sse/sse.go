// Package sse reads server-sent events from the response of a declared call.
//
// Declare the operation with stream enabled so the body reaches the caller
// unread, then hand the returned *http.Response to Read or Collect. Events
// are dispatched as they arrive.
package sse

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/decorest/packages/core/metadata"
	"github.com/abdul-hamid-achik/decorest/packages/http"
)

const MediaType = "text/event-stream"

// ErrStop may be returned by a Handler to end reading without an error.
var ErrStop = errors.New("stop reading events")

type Event struct {
	ID    string
	Type  string
	Data  string
	Retry time.Duration
}

// Decoder parses events from a byte stream.
type Decoder struct {
	scanner *bufio.Scanner
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{scanner: bufio.NewScanner(r)}
}

// Next returns the next complete event, or io.EOF once the stream ends. A
// trailing event without a blank line is still returned.
func (d *Decoder) Next() (Event, error) {
	var event Event
	var dataLines []string

	for d.scanner.Scan() {
		line := d.scanner.Text()

		if line == "" {
			if len(dataLines) > 0 {
				event.Data = strings.Join(dataLines, "\n")
				return event, nil
			}
			event = Event{}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if found {
			value = strings.TrimPrefix(value, " ")
		}

		switch field {
		case "event":
			event.Type = value
		case "data":
			dataLines = append(dataLines, value)
		case "id":
			event.ID = value
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil {
				event.Retry = time.Duration(ms) * time.Millisecond
			}
		}
	}

	if err := d.scanner.Err(); err != nil {
		return Event{}, err
	}
	if len(dataLines) > 0 {
		event.Data = strings.Join(dataLines, "\n")
		return event, nil
	}
	return Event{}, io.EOF
}

// Handler receives each event in order.
type Handler func(event Event) error

// Read feeds the events of resp to handler until the stream ends, ctx is done
// or handler fails. The response body is closed on return.
func Read(ctx context.Context, resp *http.Response, handler Handler) error {
	defer resp.Close()

	if mt := resp.MediaType(); mt != MediaType {
		return fmt.Errorf("unexpected content type: %s (expected %s)", resp.ContentType(), MediaType)
	}

	dec := NewDecoder(resp.Reader())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		event, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event stream: %w", err)
		}
		if err := handler(event); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

// Collect reads up to max events from resp. A max of zero or less reads the
// whole stream.
func Collect(ctx context.Context, resp *http.Response, max int) ([]Event, error) {
	events := make([]Event, 0)
	err := Read(ctx, resp, func(e Event) error {
		events = append(events, e)
		if max > 0 && len(events) >= max {
			return ErrStop
		}
		return nil
	})
	return events, err
}

// Collector returns a status handler that turns an event stream response into
// its first max events.
func Collector(max int) metadata.Handler {
	return func(resp *http.Response) (any, error) {
		return Collect(context.Background(), resp, max)
	}
}
