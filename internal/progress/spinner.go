// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

/*
Package progress shows the progress of a batch on the terminal.
*/
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var spinChars []string = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Spinner prints a label, a spinning character and a status line. On a
// terminal the line is redrawn in place; otherwise a line is printed only when
// the status changes.
type Spinner struct {
	mu          sync.Mutex
	out         io.Writer
	tty         bool
	label       string
	status      string
	statusIsNew bool
	spinIndex   int
	ticker      *time.Ticker
	done        chan bool
	spinning    bool
}

// NewSpinner creates a spinner that writes to stderr
func NewSpinner(label string) *Spinner {
	return NewSpinnerWriter(label, os.Stderr)
}

// NewSpinnerWriter creates a spinner that writes to out
func NewSpinnerWriter(label string, out io.Writer) *Spinner {
	s := &Spinner{out: out, label: label, status: "?", done: make(chan bool)}
	if f, ok := out.(*os.File); ok {
		s.tty = term.IsTerminal(int(f.Fd())) // #nosec G115
	}
	return s
}

// Start starts the spinner
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spinning {
		return
	}
	s.draw(true)
	s.ticker = time.NewTicker(250 * time.Millisecond)
	s.spinning = true
	go s.onTick()
}

// Finish stops the spinner and leaves the last status on screen
func (s *Spinner) Finish() {
	s.mu.Lock()
	if !s.spinning {
		s.mu.Unlock()
		return
	}
	s.ticker.Stop()
	s.spinning = false
	s.mu.Unlock()
	s.done <- true
	s.mu.Lock()
	s.draw(false)
	s.mu.Unlock()
}

// Status updates the status text
func (s *Spinner) Status(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status != s.status {
		s.status = status
		s.statusIsNew = true
	}
}

// Update is a collect.ProgressFunc that reports "done/total runs"
func (s *Spinner) Update(done, total int, path string) {
	s.Status(fmt.Sprintf("%d/%d runs", done, total))
}

func (s *Spinner) onTick() {
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			s.mu.Lock()
			s.draw(true)
			s.mu.Unlock()
		}
	}
}

// draw must be called with mu held
func (s *Spinner) draw(goUp bool) {
	if !s.tty && !s.statusIsNew {
		return
	}
	fmt.Fprintf(s.out, "%-20s  %s  %-40s\n", s.label, spinChars[s.spinIndex], s.status)
	s.statusIsNew = false
	s.spinIndex = (s.spinIndex + 1) % len(spinChars)
	if goUp && s.tty {
		fmt.Fprintf(s.out, "\x1b[1A")
	}
}
