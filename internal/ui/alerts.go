package ui

import (
	"sync"

	"github.com/desertthunder/snipx/internal/tasks"
)

var _ tasks.Alerter = (*AlertBuffer)(nil)

// AlertBuffer collects view-model alerts until the TUI drains them into its status line.
type AlertBuffer struct {
	mu   sync.Mutex
	msgs []string
}

// NewAlertBuffer creates an empty buffer.
func NewAlertBuffer() *AlertBuffer {
	return &AlertBuffer{}
}

func (b *AlertBuffer) Alert(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
}

// Drain returns and clears the buffered alerts, oldest first.
func (b *AlertBuffer) Drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := b.msgs
	b.msgs = nil
	return msgs
}
