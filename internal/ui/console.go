// Package ui holds the terminal pieces of the shell: prompt, now-playing
// display, pickers and spinners.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/cadence/internal/core"
)

// Console reads command lines and shows playback progress. It is the player
// loop's indicator and the invoker's key waiter. In interactive mode, waiting
// for a key runs a small bubbletea program; otherwise plain lines are used.
type Console struct {
	in          io.Reader
	lines       *bufio.Reader
	out         io.Writer
	interactive bool

	// Only the reader goroutine touches lines; it reads one line per
	// request on want.
	readMu     sync.Mutex
	readerOnce sync.Once
	want       chan struct{}
	results    chan lineResult
	pending    bool

	mu        sync.Mutex
	prog      *tea.Program
	current   *core.Track
	prompting bool
}

// NewConsole creates a console on in and out.
func NewConsole(in io.Reader, out io.Writer, interactive bool) *Console {
	return &Console{
		in:          in,
		lines:       bufio.NewReader(in),
		out:         out,
		interactive: interactive,
	}
}

// Prompt prints the command prompt.
func (c *Console) Prompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompting = true
	c.writePrompt()
}

func (c *Console) writePrompt() {
	if c.interactive {
		fmt.Fprint(c.out, PromptStyle.Render(">>")+" ")
		return
	}
	fmt.Fprint(c.out, ">> ")
}

// ReadLine reads the next command line. It returns io.EOF when input ends
// and ctx.Err() if ctx is done first.
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	line, err := c.nextLine(ctx)

	c.mu.Lock()
	c.prompting = false
	c.mu.Unlock()

	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type lineResult struct {
	line string
	err  error
}

func (c *Console) startReader() {
	c.want = make(chan struct{})
	c.results = make(chan lineResult)
	go func() {
		for range c.want {
			line, err := c.lines.ReadString('\n')
			c.results <- lineResult{line, err}
		}
	}()
}

// nextLine returns the next raw line. A line requested by a cancelled call
// is handed to the following one.
func (c *Console) nextLine(ctx context.Context) (string, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()
	c.readerOnce.Do(c.startReader)

	if !c.pending {
		select {
		case c.want <- struct{}{}:
			c.pending = true
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	select {
	case r := <-c.results:
		c.pending = false
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// NowPlaying implements the player indicator.
func (c *Console) NowPlaying(t core.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &t

	if c.prog != nil {
		c.prog.Send(trackMsg(t))
		return
	}
	if !c.interactive {
		c.printLine("now playing " + t.String())
	}
}

// Stopped implements the player indicator.
func (c *Console) Stopped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	if c.prog != nil {
		c.prog.Quit()
		return
	}
	if c.interactive {
		c.printLine(Stopped.Render("Stopped"))
		return
	}
	c.printLine("Stopped")
}

// Idle implements the player indicator.
func (c *Console) Idle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	if c.prog != nil {
		c.prog.Send(idleMsg{})
		return
	}
	if !c.interactive {
		c.printLine("End of queue")
	}
}

// printLine writes s on its own line, keeping a pending prompt below it.
// Callers hold c.mu.
func (c *Console) printLine(s string) {
	if !c.prompting {
		fmt.Fprintln(c.out, s)
		return
	}
	if c.interactive {
		fmt.Fprint(c.out, "\r\x1b[K")
	} else {
		fmt.Fprintln(c.out)
	}
	fmt.Fprintln(c.out, s)
	c.writePrompt()
}

// WaitForKey blocks until the user presses a key, or, without a terminal,
// enters a line.
func (c *Console) WaitForKey(ctx context.Context) error {
	if !c.interactive {
		return c.waitForLine(ctx)
	}

	c.mu.Lock()
	prog := tea.NewProgram(newPlayingModel(c.current),
		tea.WithInput(c.in),
		tea.WithOutput(c.out),
		tea.WithContext(ctx),
	)
	c.prog = prog
	c.mu.Unlock()

	_, err := prog.Run()

	c.mu.Lock()
	c.prog = nil
	c.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Console) waitForLine(ctx context.Context) error {
	_, err := c.nextLine(ctx)
	if err == io.EOF {
		return nil
	}
	return err
}
