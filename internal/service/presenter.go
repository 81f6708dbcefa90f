package service

import (
	"sync"

	"relay-chat/internal/model"
)

// Presenter receives the display events of a turn. Implementations render
// them in a terminal, over SSE, over a WebSocket, or collect them.
type Presenter interface {
	Append(msg model.Message)
	SetBusy(busy bool)
	ShowError(message string)
}

// EventPresenter turns presenter calls into model.Event values.
type EventPresenter func(model.Event)

func (f EventPresenter) Append(msg model.Message) {
	m := msg
	f(model.Event{Type: model.EventAppend, Message: &m})
}

func (f EventPresenter) SetBusy(busy bool) {
	if busy {
		f(model.Event{Type: model.EventBusy})
		return
	}
	f(model.Event{Type: model.EventIdle})
}

func (f EventPresenter) ShowError(message string) {
	f(model.Event{Type: model.EventError, Error: message})
}

// Recorder is a Presenter that keeps every event in order.
type Recorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *Recorder) record(e model.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Append(msg model.Message) { EventPresenter(r.record).Append(msg) }
func (r *Recorder) SetBusy(busy bool)        { EventPresenter(r.record).SetBusy(busy) }
func (r *Recorder) ShowError(message string) { EventPresenter(r.record).ShowError(message) }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Event, len(r.events))
	copy(out, r.events)
	return out
}
