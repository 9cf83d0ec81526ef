package fakes

import (
	"context"
	"sync"
)

// SentMessage is one captured delivery.
type SentMessage struct {
	URL  string
	Text string
}

// FakeSender captures deliveries. When Gate is set, Send blocks until it is closed
// and signals Started first, so tests can hold a delivery in flight.
type FakeSender struct {
	mu   sync.Mutex
	Sent []SentMessage

	Err     error
	Reply   string
	Gate    chan struct{}
	Started chan struct{}
}

func (f *FakeSender) Send(ctx context.Context, url, text string) (string, error) {
	if f.Started != nil {
		f.Started <- struct{}{}
	}
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.Sent = append(f.Sent, SentMessage{URL: url, Text: text})
	if f.Reply == "" {
		return "消息发送成功", nil
	}
	return f.Reply, nil
}

// Messages returns a copy of the captured deliveries.
func (f *FakeSender) Messages() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.Sent...)
}
