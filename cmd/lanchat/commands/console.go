package commands

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/TheusHen/lanchat/lanchat/history"
	"github.com/TheusHen/lanchat/lanchat/session"
)

const prompt = "> "

// console renders chat traffic and status lines. It is a session.Sink.
type console struct {
	mu  sync.Mutex
	out io.Writer

	stamp  lipgloss.Style
	you    lipgloss.Style
	peer   lipgloss.Style
	status lipgloss.Style
	fail   lipgloss.Style
}

func newConsole(out io.Writer) *console {
	r := lipgloss.NewRenderer(out)
	return &console{
		out:    out,
		stamp:  r.NewStyle().Faint(true),
		you:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		peer:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		status: r.NewStyle().Italic(true).Foreground(lipgloss.Color("8")),
		fail:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

func (c *console) Deliver(m session.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	who := c.peer.Render("Peer")
	if m.Direction == session.Outgoing {
		who = c.you.Render("You")
	}
	fmt.Fprintf(c.out, "%s %s: %s\n", c.stamp.Render(m.Time.Format("15:04:05")), who, m.Text)
	if m.Direction == session.Incoming {
		fmt.Fprint(c.out, prompt)
	}
}

// entry prints a recorded transcript line.
func (c *console) entry(e history.Entry) {
	d := session.Incoming
	if e.Direction == session.Outgoing.String() {
		d = session.Outgoing
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	who := c.peer.Render("Peer")
	if d == session.Outgoing {
		who = c.you.Render("You")
	}
	fmt.Fprintf(c.out, "%s %s: %s\n", c.stamp.Render(e.Time.Local().Format("2006-01-02 15:04:05")), who, e.Text)
}

func (c *console) infof(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.status.Render(fmt.Sprintf(format, args...)))
}

func (c *console) errorf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.fail.Render(fmt.Sprintf(format, args...)))
}

func (c *console) prompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, prompt)
}

// ask prints a question without a trailing newline.
func (c *console) ask(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, q)
}
