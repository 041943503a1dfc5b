package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brianhealey/phonebook/internal/phonebook"
)

// Sender is the part of *tea.Program the bridge needs.
type Sender interface {
	Send(msg tea.Msg)
}

// stateChangedMsg tells the model to re-read controller state.
type stateChangedMsg struct{}

// confirmMsg asks the model to show a yes/no dialog. The answer goes to reply.
type confirmMsg struct {
	question string
	reply    chan<- bool
}

// Bridge connects a phonebook.Controller to a running program. It is the
// controller's Prompter and its change observer. Until Attach is called
// questions are declined and changes dropped.
type Bridge struct {
	mu   sync.Mutex
	send Sender
}

// Attach starts delivering to s.
func (b *Bridge) Attach(s Sender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = s
}

func (b *Bridge) sender() Sender {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.send
}

// Confirm shows question in the program and blocks until it is answered or
// ctx is done. A cancelled question counts as no.
func (b *Bridge) Confirm(ctx context.Context, question string) bool {
	s := b.sender()
	if s == nil {
		return false
	}
	reply := make(chan bool, 1)
	go s.Send(confirmMsg{question: question, reply: reply})
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}

// Notify is a phonebook.WithOnChange callback. It never blocks, so it is
// safe to call from inside the program's update loop.
func (b *Bridge) Notify(phonebook.State) {
	if s := b.sender(); s != nil {
		go s.Send(stateChangedMsg{})
	}
}
