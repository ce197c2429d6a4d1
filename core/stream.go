package core

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// StreamEventKind discriminates stream events.
type StreamEventKind int

const (
	// StreamData carries one message payload.
	StreamData StreamEventKind = iota
	// StreamDone marks normal completion; the channel closes after it.
	StreamDone
	// StreamError carries a terminal transport failure; the channel
	// closes after it.
	StreamError
)

// StreamEvent is one element of the push feed.
type StreamEvent struct {
	Kind StreamEventKind
	// Data is the decoded JSON payload of a data event.
	Data json.RawMessage
	// Raw holds the original text when the payload was not valid JSON.
	// Such payloads pass through unchanged instead of failing the stream.
	Raw string
	// Err is set on StreamError events, always as an *APIError.
	Err error
}

// Stream is a finite, non-restartable server-push sequence. It ends with
// a done event, an error event, or Close; the events channel is closed in
// every case and nothing is delivered afterwards.
type Stream struct {
	events chan StreamEvent
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// Events returns the event channel. Read it until it closes.
func (s *Stream) Events() <-chan StreamEvent {
	return s.events
}

// Close tears the connection down. No events are delivered after Close,
// even if they were already received from the wire. Close is idempotent.
func (s *Stream) Close() {
	s.once.Do(s.cancel)
}

// OpenStream issues a streaming POST to the endpoint and returns the push
// feed carried on its response body. The payload must already mark itself
// as a streaming request; using the response of the triggering POST as
// the push connection guarantees every data event is observed before the
// completion signal. Streams carry no timeout: they live until done,
// error, Close, or ctx cancellation.
func (c *Client) OpenStream(ctx context.Context, endpoint string, payload []byte, opts RequestOptions) (*Stream, error) {
	base := c.cfg.BaseURL
	if opts.BaseURL != "" {
		base = opts.BaseURL
	}
	resolved := joinEndpoint(base, c.cfg.VersionPrefix, endpoint)

	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resolved, bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, Classify(err)
	}
	c.applyHeaders(req, opts, "application/json", false)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		cancel()
		return nil, Classify(err)
	}

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		_, nerr := c.normalize(resp, body, false)
		if nerr == nil {
			nerr = &APIError{Status: resp.StatusCode, Code: CodeHTTPError, Message: http.StatusText(resp.StatusCode), Err: ErrHTTP}
		}
		return nil, Classify(nerr)
	}

	s := &Stream{
		// Unbuffered: an event is either handed to the reader or dropped
		// on close, never queued past it.
		events: make(chan StreamEvent),
		ctx:    ctx,
		cancel: cancel,
	}
	go s.consume(resp.Body)
	return s, nil
}

// consume reads SSE lines until completion, error, or cancellation.
func (s *Stream) consume(body io.ReadCloser) {
	defer close(s.events)
	defer body.Close()
	defer s.cancel()

	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF || s.ctx.Err() != nil {
				return
			}
			s.emit(StreamEvent{Kind: StreamError, Err: Classify(err)})
			return
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		if !gjson.Valid(payload) {
			if !s.emit(StreamEvent{Kind: StreamData, Raw: payload}) {
				return
			}
			continue
		}
		if gjson.Get(payload, "type").String() == "done" {
			s.emit(StreamEvent{Kind: StreamDone})
			return
		}
		if !s.emit(StreamEvent{Kind: StreamData, Data: json.RawMessage(payload)}) {
			return
		}
	}
}

// emit delivers an event unless the stream has been closed.
func (s *Stream) emit(ev StreamEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}
