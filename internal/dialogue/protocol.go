// Package dialogue runs live interactions between two agents that each hold
// their own regula. Agents alternate according to a turn pattern and talk
// over a pair of bounded, ordered channels: the speaker sends a token or
// gives up with a failed message, the listener acknowledges every token
// with ok.
package dialogue

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/regula/internal/domain"
)

type MessageKind string

const (
	KindToken  MessageKind = "token"
	KindFailed MessageKind = "failed"
	KindOK     MessageKind = "ok"
)

type Message struct {
	Kind  MessageKind  `json:"kind"`
	Token domain.Token `json:"token,omitempty"`
}

func (m Message) String() string {
	if m.Kind == KindToken {
		return string(m.Token)
	}
	return string(m.Kind)
}

// ErrProtocol reports a message that does not fit the current turn.
var ErrProtocol = errors.New("dialogue protocol violation")

// Conn is one end of a pipe.
type Conn struct {
	in  <-chan Message
	out chan<- Message
}

// Pipe returns two connected ends. Each direction buffers one message,
// which is all the protocol ever has in flight.
func Pipe() (*Conn, *Conn) {
	ab := make(chan Message, 1)
	ba := make(chan Message, 1)
	return &Conn{in: ba, out: ab}, &Conn{in: ab, out: ba}
}

func (c *Conn) Send(ctx context.Context, m Message) error {
	select {
	case c.out <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) Recv(ctx context.Context) (Message, error) {
	select {
	case m, ok := <-c.in:
		if !ok {
			return Message{}, fmt.Errorf("%w: connection closed", ErrProtocol)
		}
		return m, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}
