package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/agenthands/agentflow/internal/model"
)

// RetryPolicy shapes the reconnect backoff: the delay starts at
// InitialDelay, grows geometrically by Factor after each failed attempt,
// caps at MaxDelay, and resets to InitialDelay on a successful connect.
type RetryPolicy struct {
	InitialDelay time.Duration
	Factor       float64
	MaxDelay     time.Duration
}

// DefaultRetryPolicy returns the stock backoff parameters.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialDelay: time.Second,
		Factor:       1.5,
		MaxDelay:     30 * time.Second,
	}
}

// Handlers receives decoded events. Nil handlers are skipped. All
// callbacks run on the subscription goroutine, one at a time, to
// completion.
type Handlers struct {
	OnAdd      func(model.Agent)
	OnRemove   func(id string)
	OnUpdate   func(model.Agent)
	OnStatus   func(StatusEvent)
	OnProgress func(ProgressEvent)
	OnDecision func(DecisionEvent)
	OnError    func(error)
}

// Client consumes the agent graph event stream and keeps itself connected.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Retry      RetryPolicy
}

// NewClient creates a stream client for the given backend base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		Retry:      DefaultRetryPolicy(),
	}
}

// Subscription is a handle on one long-lived stream consumer.
type Subscription struct {
	cancel  context.CancelFunc
	stopped atomic.Bool
	done    chan struct{}
}

// Close stops the subscription: the in-flight request is aborted and no
// further reconnect attempts are made. Callbacks already running finish
// naturally.
func (s *Subscription) Close() {
	s.stopped.Store(true)
	s.cancel()
}

// Done is closed once the consumer goroutine has fully exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Subscribe opens the stream for ownerID and dispatches events to h until
// Close is called or ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context, ownerID string, h Handlers) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	go c.run(ctx, ownerID, h, sub)
	return sub
}

func (c *Client) run(ctx context.Context, ownerID string, h Handlers, sub *Subscription) {
	defer close(sub.done)

	delay := c.Retry.InitialDelay
	for {
		if sub.stopped.Load() || ctx.Err() != nil {
			return
		}

		err := c.attempt(ctx, ownerID, h, &delay)
		if sub.stopped.Load() || ctx.Err() != nil {
			return
		}
		if err != nil && h.OnError != nil {
			h.OnError(err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * c.Retry.Factor)
		if delay > c.Retry.MaxDelay {
			delay = c.Retry.MaxDelay
		}
	}
}

// attempt runs one connection until the stream ends or fails. A
// successful connect resets the backoff delay to its initial value.
func (c *Client) attempt(ctx context.Context, ownerID string, h Handlers, delay *time.Duration) error {
	q := url.Values{}
	if ownerID != "" {
		q.Set("owner_id", ownerID)
	}
	q.Set("stream", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/agents?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("stream connect failed (%d)", resp.StatusCode)
	}

	*delay = c.Retry.InitialDelay

	// Bytes accumulate until a blank-line frame boundary, so a multi-byte
	// rune split across network chunks simply stays buffered until its
	// remainder arrives.
	var buffer []byte
	chunk := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			buffer = append(buffer, chunk[:n]...)
			buffer = c.drainFrames(buffer, h)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Clean end of stream; reconnect without surfacing an error.
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}
	}
}

// drainFrames consumes every complete blank-line-delimited frame from
// buffer and returns the unconsumed remainder.
func (c *Client) drainFrames(buffer []byte, h Handlers) []byte {
	for {
		idx := bytes.Index(buffer, []byte("\n\n"))
		if idx < 0 {
			return buffer
		}
		frame := buffer[:idx]
		buffer = buffer[idx+2:]
		c.handleFrame(frame, h)
	}
}

// handleFrame extracts the data lines of one frame and dispatches each
// decoded event. Undecodable lines are logged and dropped; no cross-frame
// stitching is attempted since the protocol is line-atomic per event.
func (c *Client) handleFrame(frame []byte, h Handlers) {
	for _, rawLine := range strings.Split(string(frame), "\n") {
		line := strings.TrimSpace(rawLine)
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		ev, err := DecodeEvent([]byte(payload))
		if err != nil {
			if !errors.Is(err, errDroppedEvent) {
				log.Printf("[stream] dropping event: %v", err)
			}
			continue
		}
		dispatch(ev, h)
	}
}

// dispatch routes one event to its handler. The switch is exhaustive over
// the event set; anything else lands in the explicit unhandled branch.
func dispatch(ev Event, h Handlers) {
	switch ev := ev.(type) {
	case AddEvent:
		if h.OnAdd != nil {
			h.OnAdd(ev.Agent)
		}
	case RemoveEvent:
		if h.OnRemove != nil {
			h.OnRemove(ev.ID)
		}
	case UpdateEvent:
		if h.OnUpdate != nil {
			h.OnUpdate(ev.Agent)
		}
	case StatusEvent:
		if h.OnStatus != nil {
			h.OnStatus(ev)
		}
	case ProgressEvent:
		if h.OnProgress != nil {
			h.OnProgress(ev)
		}
	case DecisionEvent:
		if h.OnDecision != nil {
			h.OnDecision(ev)
		}
	default:
		log.Printf("[stream] unhandled event %q", ev.op())
	}
}
