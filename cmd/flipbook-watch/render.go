package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"flipbook/internal/book"
)

// maxStripPages bounds the strip; longer books show a window around the
// current page.
const maxStripPages = 40

type palette struct {
	color bool

	current  lipgloss.Style
	target   lipgloss.Style
	bending  lipgloss.Style
	released lipgloss.Style
	page     lipgloss.Style
	label    lipgloss.Style
	warn     lipgloss.Style
}

func newPalette(color bool) palette {
	return palette{
		color:    color,
		current:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1e1e2e")).Background(lipgloss.Color("#f9e2af")),
		target:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa")),
		bending:  lipgloss.NewStyle().Foreground(lipgloss.Color("#fab387")),
		released: lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
		page:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086")),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#cdd6f4")),
		warn:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f38ba8")),
	}
}

func (p palette) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// bendGlyph maps a bend amount in [0, 1] to a shade.
func bendGlyph(amount float64) string {
	switch {
	case amount >= 0.75:
		return "▓"
	case amount >= 0.5:
		return "▒"
	default:
		return "░"
	}
}

// stripWindow returns the first and last page shown for a book.
func stripWindow(total, current int) (lo, hi int) {
	if total <= maxStripPages {
		return 0, total - 1
	}
	lo = current - maxStripPages/2
	if lo < 0 {
		lo = 0
	}
	hi = lo + maxStripPages - 1
	if hi > total-1 {
		hi = total - 1
		lo = hi - maxStripPages + 1
	}
	return lo, hi
}

// renderStrip draws one cell per page:
//
//	█ current   ◆ target   ▓▒░ bending   ↗ released, still landing   · idle
func renderStrip(b book.State, p palette) string {
	bend := make(map[int]float64, len(b.BendingPages))
	for _, bp := range b.BendingPages {
		bend[bp.PageIndex] = bp.BendAmount
	}

	lo, hi := stripWindow(b.TotalPages, b.CurrentPageIndex)
	var sb strings.Builder
	if lo > 0 {
		sb.WriteString(p.render(p.page, "… "))
	}
	for i := lo; i <= hi; i++ {
		switch {
		case i == b.CurrentPageIndex:
			sb.WriteString(p.render(p.current, "█"))
		case b.TargetPageIndex != nil && i == *b.TargetPageIndex:
			sb.WriteString(p.render(p.target, "◆"))
		case b.InFlight(i) > 0:
			sb.WriteString(p.render(p.released, "↗"))
		default:
			if amt, ok := bend[i]; ok {
				sb.WriteString(p.render(p.bending, bendGlyph(amt)))
			} else {
				sb.WriteString(p.render(p.page, "·"))
			}
		}
	}
	if hi < b.TotalPages-1 {
		sb.WriteString(p.render(p.page, " …"))
	}
	return sb.String()
}

// formatState renders a "state" or "state_init" frame as one line.
func formatState(snap book.Snapshot, p palette) string {
	b := snap.Book
	var flags []string
	if b.IsRiffling {
		flags = append(flags, "riffling")
	} else if b.IsFlipping {
		flags = append(flags, "flipping")
	}
	if b.IsEngaged {
		flags = append(flags, fmt.Sprintf("engaged %+.1f", b.ScrollAccumulator))
	}
	if b.PrefersReducedMotion {
		flags = append(flags, "reduced-motion")
	}
	if b.ViewMode == book.ViewCarousel {
		flags = append(flags, "carousel")
	}

	line := fmt.Sprintf("%s %s", renderStrip(b, p), p.render(p.label, fmt.Sprintf("p%d/%d", b.CurrentPageIndex, b.LastPage())))
	if len(flags) > 0 {
		line += " " + p.render(p.page, "["+strings.Join(flags, ", ")+"]")
	}
	return line
}

func formatStep(s stepFrame, p palette) string {
	kind := "riffle"
	if s.Final {
		kind = "settle"
	}
	return p.render(p.label, fmt.Sprintf("step %d/%d %s -> page %d (%s, %dms, %s)",
		s.Index+1, s.StepCount, kind, s.Page, s.Direction, s.DurationMS, s.Easing))
}

func formatForced(f forcedFrame, p palette) string {
	return p.render(p.warn, fmt.Sprintf("jump %s forced to page %d by safety timeout", shortID(f.JumpID.String()), f.TargetPage))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
