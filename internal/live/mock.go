package live

import (
	"context"
	"sync"
)

// MockTransport is a local fallback transport used when no API key is
// configured, and the scripted transport for tests.
type MockTransport struct {
	mu       sync.Mutex
	sessions []*MockConn
	openErr  error
}

func NewMockTransport() *MockTransport { return &MockTransport{} }

// FailNextOpen makes the next Open call return err.
func (t *MockTransport) FailNextOpen(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.openErr = err
}

func (t *MockTransport) Open(_ context.Context, params OpenParams) (Conn, <-chan ServerEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.openErr != nil {
		err := t.openErr
		t.openErr = nil
		return nil, nil, err
	}
	events := make(chan ServerEvent, 64)
	conn := &MockConn{params: params, events: events}
	t.sessions = append(t.sessions, conn)
	return conn, events, nil
}

// Sessions returns every connection opened so far, in order.
func (t *MockTransport) Sessions() []*MockConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*MockConn, len(t.sessions))
	copy(out, t.sessions)
	return out
}

// MockConn records everything sent and lets callers script server events.
type MockConn struct {
	mu     sync.Mutex
	params OpenParams
	events chan ServerEvent
	closed bool

	audio         [][]byte
	frames        int
	texts         []string
	toolResponses []MockToolResponse
}

type MockToolResponse struct {
	ID       string
	Name     string
	Response string
}

func (c *MockConn) SendAudio(_ context.Context, pcm []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(pcm))
	copy(buf, pcm)
	c.audio = append(c.audio, buf)
	return nil
}

func (c *MockConn) SendVideo(_ context.Context, _ string, _ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames++
	return nil
}

func (c *MockConn) SentFrames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

func (c *MockConn) SendText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return nil
}

func (c *MockConn) SendToolResponse(_ context.Context, id, name, response string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toolResponses = append(c.toolResponses, MockToolResponse{ID: id, Name: name, Response: response})
	return nil
}

func (c *MockConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.events)
	return nil
}

// Emit scripts one server event. No-op after Close.
func (c *MockConn) Emit(ev ServerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.events <- ev
}

func (c *MockConn) Params() OpenParams { return c.params }

func (c *MockConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *MockConn) SentAudio() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.audio))
	copy(out, c.audio)
	return out
}

func (c *MockConn) SentTexts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.texts))
	copy(out, c.texts)
	return out
}

func (c *MockConn) ToolResponses() []MockToolResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MockToolResponse, len(c.toolResponses))
	copy(out, c.toolResponses)
	return out
}
