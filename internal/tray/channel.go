package tray

import (
	"context"
	"errors"
	"sync"
)

// ErrChannelClosed is returned once the tray side has shut down.
var ErrChannelClosed = errors.New("tray channel closed")

// Channel carries messages from the tray thread to the UI loop.
// It holds at most one undelivered message, so a second Send blocks
// until the first has been received.
type Channel struct {
	ch        chan Message
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannel creates a channel with capacity one.
func NewChannel() *Channel {
	return &Channel{
		ch:   make(chan Message, 1),
		done: make(chan struct{}),
	}
}

// Send delivers msg, blocking while the previous message is undrained.
func (c *Channel) Send(msg Message) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	select {
	case c.ch <- msg:
		return nil
	case <-c.done:
		return ErrChannelClosed
	}
}

// Receive waits for the next message. A message sent before Close is still
// delivered; after that Receive returns ErrChannelClosed.
func (c *Channel) Receive(ctx context.Context) (Message, error) {
	select {
	case msg := <-c.ch:
		return msg, nil
	default:
	}

	select {
	case msg := <-c.ch:
		return msg, nil
	case <-c.done:
		select {
		case msg := <-c.ch:
			return msg, nil
		default:
		}
		return Message{}, ErrChannelClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Close marks the channel closed. Blocked senders and receivers return
// ErrChannelClosed. Safe to call more than once.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
