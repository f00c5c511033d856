package events

import (
	"context"
	"time"
)

type Event interface {
	GetName() string
	GetDateTime() time.Time
	GetPayload() interface{}
	SetPayload(payload interface{})
}

// Publisher pushes an already encoded event to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, headers map[string]string) error
}

// Base is a ready to embed Event implementation.
type Base struct {
	Name     string
	DateTime time.Time
	Payload  interface{}
}

func NewEvent(name string) *Base {
	return &Base{Name: name, DateTime: time.Now()}
}

func (e *Base) GetName() string                { return e.Name }
func (e *Base) GetDateTime() time.Time         { return e.DateTime }
func (e *Base) GetPayload() interface{}        { return e.Payload }
func (e *Base) SetPayload(payload interface{}) { e.Payload = payload }
