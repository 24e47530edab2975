package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/blog-backend/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient subscribes to /api/blogs/feed and buffers the post events it sees.
type WSClient struct {
	t       *testing.T
	conn    *gorillaWS.Conn
	events  chan *websocket.Message
	readErr chan error
	closed  chan struct{}
	once    sync.Once
}

// NewWSClient connects to the feed at url. The connection is closed on test
// cleanup.
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := gorillaWS.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial feed %s: %v", url, err)
	}

	c := &WSClient{
		t:       t,
		conn:    conn,
		events:  make(chan *websocket.Message, 100),
		readErr: make(chan error, 1),
		closed:  make(chan struct{}),
	}
	go c.collect()
	t.Cleanup(c.Close)

	return c
}

// collect runs until the connection fails. Frames that are not feed
// messages are reported as errors.
func (c *WSClient) collect() {
	defer close(c.events)

	for {
		_, data, err := c.conn.ReadMessage()
		if err == nil {
			var event websocket.Message
			if err = json.Unmarshal(data, &event); err == nil {
				select {
				case c.events <- &event:
					continue
				case <-c.closed:
					return
				}
			}
		}

		select {
		case <-c.closed:
		case c.readErr <- err:
		default:
		}
		return
	}
}

// Close sends a normal close frame and drops the connection. Safe to call twice.
func (c *WSClient) Close() {
	c.once.Do(func() {
		close(c.closed)
		_ = c.conn.WriteControl(gorillaWS.CloseMessage,
			gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.conn.Close()
	})
}

// ExpectMessage returns the next event of msgType, discarding events of
// other types that arrive first.
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case event, ok := <-c.events:
			if !ok {
				c.t.Fatalf("feed closed before %s arrived", msgType)
			}
			if event.Type == msgType {
				return event
			}
		case err := <-c.readErr:
			c.t.Fatalf("feed read failed before %s arrived: %v", msgType, err)
		case <-timer.C:
			c.t.Fatalf("no %s event within %s", msgType, timeout)
		}
	}
}

// ExpectNoMessage fails if any event arrives within timeout.
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	select {
	case event, ok := <-c.events:
		if ok {
			c.t.Fatalf("unexpected %s event", event.Type)
		}
	case <-time.After(timeout):
	}
}
