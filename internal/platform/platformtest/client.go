// Package platformtest provides an in-memory platform.Client for tests.
package platformtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/mesh-intelligence/heapoverflow/internal/platform"
)

// Op names a Client operation for failure injection.
type Op string

// Operations that FailOn accepts.
const (
	OpSend          Op = "send"
	OpEdit          Op = "edit"
	OpFetchMessage  Op = "fetch_message"
	OpFetchChannel  Op = "fetch_channel"
	OpCreateThread  Op = "create_thread"
	OpAddMember     Op = "add_member"
	OpModifyThread  Op = "modify_thread"
	OpRespond       Op = "respond"
	OpRespondModal  Op = "respond_modal"
	OpDeferResponse Op = "defer_response"
	OpEditResponse  Op = "edit_response"
)

// SentMessage is a message held by the fake.
type SentMessage struct {
	platform.Message
	Content platform.MessageContent
	Edits   int
}

// Thread is the state of a thread created through the fake.
type Thread struct {
	platform.Channel
	AutoArchive time.Duration
	Members     []snowflake.ID
	Locked      bool
	Archived    bool
}

// Reply records an interaction answer.
type Reply struct {
	Interaction platform.Interaction
	Response    platform.Response
	Deferred    bool
}

// Client is an in-memory platform.Client. The zero value is not usable;
// create one with New.
type Client struct {
	mu       sync.Mutex
	nextID   snowflake.ID
	channels map[snowflake.ID]*platform.Channel
	messages map[snowflake.ID]*SentMessage
	threads  map[snowflake.ID]*Thread
	order    []snowflake.ID // message ids in send order
	replies  []Reply
	modals   []platform.Modal
	failures map[Op]error
	calls    map[Op]int
}

var _ platform.Client = (*Client)(nil)

// New returns an empty fake.
func New() *Client {
	return &Client{
		nextID:   1_000_000,
		channels: make(map[snowflake.ID]*platform.Channel),
		messages: make(map[snowflake.ID]*SentMessage),
		threads:  make(map[snowflake.ID]*Thread),
		failures: make(map[Op]error),
		calls:    make(map[Op]int),
	}
}

// AddChannel registers a channel the fake knows about.
func (c *Client) AddChannel(ch platform.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[ch.ID] = &ch
}

// DeleteMessage removes a message as if a user deleted it.
func (c *Client) DeleteMessage(id snowflake.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.messages, id)
}

// DeleteChannel removes a channel or thread and all of its messages.
func (c *Client) DeleteChannel(id snowflake.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.channels, id)
	delete(c.threads, id)
	for mid, m := range c.messages {
		if m.ChannelID == id {
			delete(c.messages, mid)
		}
	}
}

// FailOn makes every later call of op return err. A nil err clears it.
func (c *Client) FailOn(op Op, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, op)
		return
	}
	c.failures[op] = err
}

// Calls returns how many times op was invoked, failed calls included.
func (c *Client) Calls(op Op) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Message returns a copy of the stored message.
func (c *Client) Message(id snowflake.ID) (SentMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.messages[id]
	if !ok {
		return SentMessage{}, false
	}
	return *m, true
}

// MessagesIn returns the live messages of a channel in send order.
func (c *Client) MessagesIn(channelID snowflake.ID) []SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []SentMessage
	for _, id := range c.order {
		if m, ok := c.messages[id]; ok && m.ChannelID == channelID {
			out = append(out, *m)
		}
	}
	return out
}

// Thread returns a copy of the thread state.
func (c *Client) Thread(id snowflake.ID) (Thread, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	th, ok := c.threads[id]
	if !ok {
		return Thread{}, false
	}
	out := *th
	out.Members = append([]snowflake.ID(nil), th.Members...)
	return out, true
}

// Threads returns every thread created through the fake.
func (c *Client) Threads() []Thread {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Thread, 0, len(c.threads))
	for _, th := range c.threads {
		out = append(out, *th)
	}
	return out
}

// Replies returns every interaction answer in order.
func (c *Client) Replies() []Reply {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Reply(nil), c.replies...)
}

// LastReply returns the most recent interaction answer.
func (c *Client) LastReply() (Reply, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.replies) == 0 {
		return Reply{}, false
	}
	return c.replies[len(c.replies)-1], true
}

// Modals returns every modal opened.
func (c *Client) Modals() []platform.Modal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]platform.Modal(nil), c.modals...)
}

// begin counts the call and returns the injected failure, if any.
// The caller must hold c.mu.
func (c *Client) begin(op Op) error {
	c.calls[op]++
	return c.failures[op]
}

func (c *Client) id() snowflake.ID {
	c.nextID++
	return c.nextID
}

func (c *Client) SendMessage(_ context.Context, channelID snowflake.ID, content platform.MessageContent) (*platform.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(OpSend); err != nil {
		return nil, err
	}
	ch, ok := c.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("sending to %s: %w", channelID, platform.ErrUnknownChannel)
	}
	m := &SentMessage{
		Message: platform.Message{ID: c.id(), ChannelID: channelID, GuildID: ch.GuildID},
		Content: content,
	}
	c.messages[m.ID] = m
	c.order = append(c.order, m.ID)
	msg := m.Message
	return &msg, nil
}

func (c *Client) EditMessage(_ context.Context, channelID, messageID snowflake.ID, content platform.MessageContent) (*platform.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(OpEdit); err != nil {
		return nil, err
	}
	m, ok := c.messages[messageID]
	if !ok || m.ChannelID != channelID {
		return nil, fmt.Errorf("editing %s: %w", messageID, platform.ErrUnknownMessage)
	}
	m.Content = content
	m.Edits++
	msg := m.Message
	return &msg, nil
}

func (c *Client) FetchMessage(_ context.Context, channelID, messageID snowflake.ID) (*platform.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(OpFetchMessage); err != nil {
		return nil, err
	}
	if _, ok := c.channels[channelID]; !ok {
		return nil, fmt.Errorf("fetching %s: %w", channelID, platform.ErrUnknownChannel)
	}
	m, ok := c.messages[messageID]
	if !ok || m.ChannelID != channelID {
		return nil, fmt.Errorf("fetching %s: %w", messageID, platform.ErrUnknownMessage)
	}
	msg := m.Message
	return &msg, nil
}

func (c *Client) FetchChannel(_ context.Context, channelID snowflake.ID) (*platform.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(OpFetchChannel); err != nil {
		return nil, err
	}
	ch, ok := c.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("fetching %s: %w", channelID, platform.ErrUnknownChannel)
	}
	out := *ch
	return &out, nil
}

func (c *Client) CreateThread(_ context.Context, parentID snowflake.ID, name string, autoArchive time.Duration) (*platform.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(OpCreateThread); err != nil {
		return nil, err
	}
	parent, ok := c.channels[parentID]
	if !ok {
		return nil, fmt.Errorf("creating thread in %s: %w", parentID, platform.ErrUnknownChannel)
	}
	ch := platform.Channel{
		ID:       c.id(),
		GuildID:  parent.GuildID,
		ParentID: parentID,
		Name:     name,
		IsThread: true,
	}
	c.channels[ch.ID] = &ch
	c.threads[ch.ID] = &Thread{Channel: ch, AutoArchive: autoArchive}
	out := ch
	return &out, nil
}

func (c *Client) AddThreadMember(_ context.Context, threadID, userID snowflake.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(OpAddMember); err != nil {
		return err
	}
	th, ok := c.threads[threadID]
	if !ok {
		return fmt.Errorf("adding member to %s: %w", threadID, platform.ErrUnknownChannel)
	}
	th.Members = append(th.Members, userID)
	return nil
}

func (c *Client) ModifyThread(_ context.Context, threadID snowflake.ID, edit platform.ThreadEdit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(OpModifyThread); err != nil {
		return err
	}
	th, ok := c.threads[threadID]
	if !ok {
		return fmt.Errorf("modifying %s: %w", threadID, platform.ErrUnknownChannel)
	}
	if edit.Name != nil {
		th.Name = *edit.Name
		c.channels[threadID].Name = *edit.Name
	}
	if edit.Locked != nil {
		th.Locked = *edit.Locked
	}
	if edit.Archived != nil {
		th.Archived = *edit.Archived
	}
	return nil
}

func (c *Client) RespondModal(_ context.Context, _ platform.Interaction, modal platform.Modal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(OpRespondModal); err != nil {
		return err
	}
	c.modals = append(c.modals, modal)
	return nil
}

func (c *Client) Respond(_ context.Context, i platform.Interaction, resp platform.Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(OpRespond); err != nil {
		return err
	}
	c.replies = append(c.replies, Reply{Interaction: i, Response: resp})
	return nil
}

func (c *Client) DeferResponse(_ context.Context, i platform.Interaction, ephemeral bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(OpDeferResponse); err != nil {
		return err
	}
	c.replies = append(c.replies, Reply{Interaction: i, Response: platform.Response{Ephemeral: ephemeral}, Deferred: true})
	return nil
}

func (c *Client) EditResponse(_ context.Context, i platform.Interaction, resp platform.Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(OpEditResponse); err != nil {
		return err
	}
	c.replies = append(c.replies, Reply{Interaction: i, Response: resp})
	return nil
}
