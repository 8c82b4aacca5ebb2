// Package session owns the shared selection state that links the graph
// view and the chat panel. Components receive it as an explicit handle
// with read/subscribe and write capabilities separated, never as ambient
// global state.
package session

import (
	"sync"
	"time"
)

const noticeTTL = 4 * time.Second

// Selection identifies the agent the viewer is chatting with.
type Selection struct {
	AgentID   string
	AgentName string
	OpenedAt  time.Time
}

// Reader is the read/subscribe capability.
type Reader interface {
	Selected() Selection
	Notice() string
	Subscribe(fn func(Selection))
}

// Writer is the mutation capability.
type Writer interface {
	SetSelected(id, name string)
	Clear()
	OpenChatWith(id, name string)
	SetNotice(msg string)
}

// Context is the owned selection store. It implements both capabilities;
// hand each component only the interface it needs.
type Context struct {
	mu          sync.Mutex
	sel         Selection
	notice      string
	noticeTimer *time.Timer
	subs        []func(Selection)

	now func() time.Time
}

// NewContext creates an empty selection store.
func NewContext() *Context {
	return &Context{now: time.Now}
}

func (c *Context) Selected() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

func (c *Context) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// Subscribe registers a callback invoked on every selection change. The
// callback runs on the mutating goroutine.
func (c *Context) Subscribe(fn func(Selection)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

func (c *Context) SetSelected(id, name string) {
	c.mu.Lock()
	c.sel = Selection{AgentID: id, AgentName: name}
	subs, sel := c.subs, c.sel
	c.mu.Unlock()
	notify(subs, sel)
}

// Clear resets the selection and any pending notice.
func (c *Context) Clear() {
	c.mu.Lock()
	c.sel = Selection{}
	c.notice = ""
	c.stopNoticeTimer()
	subs, sel := c.subs, c.sel
	c.mu.Unlock()
	notify(subs, sel)
}

// OpenChatWith selects an agent for chatting, stamps the open time, and
// posts a transient notice that clears itself.
func (c *Context) OpenChatWith(id, name string) {
	c.mu.Lock()
	c.sel = Selection{AgentID: id, AgentName: name, OpenedAt: c.now()}
	if name != "" {
		c.notice = "Now chatting with " + name
	} else {
		c.notice = "Agent selected"
	}
	c.stopNoticeTimer()
	c.noticeTimer = time.AfterFunc(noticeTTL, func() {
		c.mu.Lock()
		c.notice = ""
		c.mu.Unlock()
	})
	subs, sel := c.subs, c.sel
	c.mu.Unlock()
	notify(subs, sel)
}

func (c *Context) SetNotice(msg string) {
	c.mu.Lock()
	c.notice = msg
	c.mu.Unlock()
}

func (c *Context) stopNoticeTimer() {
	if c.noticeTimer != nil {
		c.noticeTimer.Stop()
		c.noticeTimer = nil
	}
}

func notify(subs []func(Selection), sel Selection) {
	for _, fn := range subs {
		fn(sel)
	}
}
