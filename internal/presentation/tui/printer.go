package tui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWidth = 100

// Printer writes panel output for humans. On a terminal it renders
// markdown and colors; otherwise it writes plain markdown.
type Printer struct {
	out     io.Writer
	profile termenv.Profile
	render  func(string) (string, error)
}

// NewPrinter inspects out and picks rich or plain output.
func NewPrinter(out io.Writer) *Printer {
	p := &Printer{out: out, profile: termenv.Ascii}

	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		width = defaultWidth
	}
	if render, err := NewRenderer(width); err == nil {
		p.render = render
	}
	p.profile = termenv.NewOutput(f).EnvColorProfile()
	return p
}

// NewPlainPrinter writes uncolored markdown regardless of out.
func NewPlainPrinter(out io.Writer) *Printer {
	return &Printer{out: out, profile: termenv.Ascii}
}

// Profile returns the color profile in use.
func (p *Printer) Profile() termenv.Profile {
	return p.profile
}

// Banner prints the banner.
func (p *Printer) Banner() {
	PrintBanner(p.out, p.profile)
}

// Snapshot prints the parameter table.
func (p *Printer) Snapshot(snap *domain.Snapshot) error {
	md := SnapshotMarkdown(snap)
	if p.render != nil {
		rendered, err := p.render(md)
		if err != nil {
			return fmt.Errorf("render snapshot: %w", err)
		}
		md = rendered
	}
	_, err := io.WriteString(p.out, md)
	return err
}

// Messages prints panel messages in order: notifications as status lines,
// snapshots as tables.
func (p *Printer) Messages(msgs []domain.Message) error {
	for _, msg := range msgs {
		switch payload := msg.Payload.(type) {
		case domain.Notification:
			p.status(payload.Type == domain.NotifyError, payload.Message)
		case *domain.Snapshot:
			if err := p.Snapshot(payload); err != nil {
				return err
			}
		case domain.ScanFailure:
			p.status(true, payload.Error)
		default:
			fmt.Fprintf(p.out, "%s: %v\n", msg.Channel, payload)
		}
	}
	return nil
}

// Safety prints whether the host accepts writes.
func (p *Printer) Safety(state domain.SafetyState) {
	if state.Idle() {
		p.colored("#34d399", "● idle", state.Command)
		return
	}
	p.colored("#fbbf24", "● busy ("+string(state.Cause)+")", state.Command)
}

func (p *Printer) status(failed bool, text string) {
	if failed {
		p.colored("#f87171", "✗", text)
		return
	}
	p.colored("#34d399", "✓", text)
}

func (p *Printer) colored(color, marker, text string) {
	m := p.profile.String(marker).Foreground(p.profile.Color(color)).Bold()
	// Multi-line messages (busy warnings) keep their layout, indented under the marker.
	text = strings.ReplaceAll(strings.TrimRight(text, "\n"), "\n", "\n  ")
	fmt.Fprintf(p.out, "%s %s\n", m, text)
}

// SnapshotMarkdown formats a snapshot as a markdown table. Favorites are starred.
func SnapshotMarkdown(snap *domain.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", escape(snap.DocName))
	if len(snap.Parameters) == 0 {
		b.WriteString("_No user parameters._\n")
		return b.String()
	}
	b.WriteString("| ★ | Name | Expression | Value | Unit | Comment |\n")
	b.WriteString("|---|---|---|---:|---|---|\n")
	for _, prm := range snap.Parameters {
		star := ""
		if prm.IsFavorite {
			star = "★"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			star,
			escape(prm.Name),
			escape(prm.Expression),
			strconv.FormatFloat(prm.Value, 'g', 6, 64),
			escape(prm.Unit),
			escape(prm.Comment),
		)
	}
	return b.String()
}

func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
