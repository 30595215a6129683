// Package render turns commits, status entries, and patches into terminal
// text. Color is an explicit property of the Printer; nothing here reads
// process-wide state.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/PaddyThePaddy/git-sub/internal/difffilter"
)

const dateLayout = "Mon Jan 02 15:04:05 2006 -0700"

// Printer writes formatted output to a single destination.
type Printer struct {
	w     io.Writer
	color bool

	red     lipgloss.Style
	green   lipgloss.Style
	yellow  lipgloss.Style
	cyan    lipgloss.Style
	magenta lipgloss.Style
	blue    lipgloss.Style
	plain   lipgloss.Style
}

// NewPrinter builds a Printer for w. When color is false every style
// degrades to plain text.
func NewPrinter(w io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		w:       w,
		color:   color,
		red:     r.NewStyle().Foreground(lipgloss.Color("1")),
		green:   r.NewStyle().Foreground(lipgloss.Color("2")),
		yellow:  r.NewStyle().Foreground(lipgloss.Color("11")),
		cyan:    r.NewStyle().Foreground(lipgloss.Color("6")),
		magenta: r.NewStyle().Foreground(lipgloss.Color("5")),
		blue:    r.NewStyle().Foreground(lipgloss.Color("12")),
		plain:   r.NewStyle(),
	}
}

// Commit is the presentation view of one emitted commit.
type Commit struct {
	Hash       string
	Summary    string
	Message    string
	Author     string // "Name <email>"
	AuthorName string
	Committer  string
	AuthorTime time.Time
	CommitTime time.Time
	// Location labels the originating repository: the root working
	// directory for the root, "./<mount>" for nested repositories.
	Location string
}

// Commit prints one commit in short or full format.
func (p *Printer) Commit(c Commit, full bool, now time.Time) {
	if full {
		fmt.Fprintf(p.w, "%s - %s\n", p.yellow.Render(c.Hash), p.blue.Render(c.Location))
		fmt.Fprintf(p.w, "Author:     %s\n", c.Author)
		fmt.Fprintf(p.w, "AuthorDate: %s\n", c.AuthorTime.Format(dateLayout))
		fmt.Fprintf(p.w, "Commit:     %s\n", c.Committer)
		fmt.Fprintf(p.w, "CommitDate: %s\n", c.CommitTime.Format(dateLayout))
		fmt.Fprintf(p.w, "\n    %s\n", strings.ReplaceAll(c.Message, "\n", "\n    "))
		return
	}
	age := FormatDuration(now.Sub(c.CommitTime))
	fmt.Fprintf(p.w, "%s - %-50s (%s) <%s> (%s)\n",
		p.red.Render(shortHash(c.Hash)),
		c.Summary,
		p.green.Render(age),
		p.blue.Render(c.AuthorName),
		c.Location,
	)
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

// FormatDuration renders an age in the coarsest sensible unit.
func FormatDuration(d time.Duration) string {
	switch {
	case d >= 30*24*time.Hour:
		return fmt.Sprintf("%d months ago", int(d.Hours())/24/30)
	case d >= 24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours())/24)
	case d >= time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%d mins ago", int(d.Minutes()))
	case d >= time.Second:
		return fmt.Sprintf("%d secs ago", int(d.Seconds()))
	default:
		return "just now"
	}
}

// FileChange prints one classified change of a commit's file list.
func (p *Printer) FileChange(cat difffilter.Category, oldPath, newPath string) {
	style := p.red
	switch cat {
	case difffilter.Added, difffilter.Renamed, difffilter.TypeChanged:
		style = p.green
	case difffilter.Unknown:
		style = p.plain
	}
	label := style.Render(cat.Letter())
	if cat == difffilter.Renamed && oldPath != "" && oldPath != newPath {
		fmt.Fprintf(p.w, "  %s %s -> %s\n", label, oldPath, newPath)
		return
	}
	fmt.Fprintf(p.w, "  %s %s\n", label, newPath)
}

// RepoHeader prints the block header of one repository in status output.
func (p *Printer) RepoHeader(location, head, state string) {
	fmt.Fprintf(p.w, "%s @ %s",
		p.blue.Render("Repo: "+location),
		p.green.Render(shortHash(head)),
	)
	if state != "" && state != "Clean" {
		fmt.Fprintf(p.w, " | %s", p.magenta.Render("State: "+state))
	}
	fmt.Fprintln(p.w)
}

// HeadDrift reports a submodule whose checked-out commit differs from the
// pin its parent records.
func (p *Printer) HeadDrift(pinned, actual string) {
	fmt.Fprintf(p.w, "Repo head changed:\n From %s\n To   %s\n", pinned, actual)
}

// Counts prints the staged / worktree change totals of one repository.
func (p *Printer) Counts(staged, worktree int) {
	fmt.Fprintf(p.w, "%d changes staged\n", staged)
	fmt.Fprintf(p.w, "%d changes in working tree\n", worktree)
}

// StatusEntry prints one porcelain-style status line. Staged entries are
// green, worktree entries red.
func (p *Printer) StatusEntry(code string, staged bool, oldPath, newPath string) {
	style := p.red
	if staged {
		style = p.green
	}
	if oldPath != "" && oldPath != newPath {
		fmt.Fprintf(p.w, " %s %s -> %s\n", style.Render(code), oldPath, newPath)
		return
	}
	fmt.Fprintf(p.w, " %s %s\n", style.Render(code), newPath)
}

// File prints one tracked file with its blob id.
func (p *Printer) File(hash, path string) {
	fmt.Fprintf(p.w, "%s %s\n", hash, path)
}
