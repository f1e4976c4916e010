package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jmcdonald/minizip/internal/adapters/osfs"
	"github.com/jmcdonald/minizip/internal/adapters/ziparchiver"
	"github.com/jmcdonald/minizip/internal/config"
	"github.com/jmcdonald/minizip/internal/humanize"
	"github.com/jmcdonald/minizip/internal/ports"
)

// View represents the current view state
type View int

const (
	MembersView View = iota
	FileDiffView
)

// Model is the main TUI model
type Model struct {
	archivePath string
	archiver    ports.Archiver
	fs          ports.FileSystem
	workDir     string

	view     View
	width    int
	height   int
	quitting bool

	// Members view
	members []ports.MemberInfo
	cursor  int
	failed  map[string]string // member name -> verify error
	checked bool              // verify has run since the last reload

	// File diff view
	fileDiffResult *FileDiffResult
	fileDiffScroll int
	diffSwapped    bool

	// Status message
	statusMsg string
	statusErr bool
}

// Key bindings
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Extract key.Binding
	Back    key.Binding
	Verify  key.Binding
	Diff    key.Binding
	Reload  key.Binding
	Swap    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Extract: key.NewBinding(
		key.WithKeys("enter", "x"),
		key.WithHelp("enter/x", "extract"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Verify: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "verify"),
	),
	Diff: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "diff"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Swap: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "swap"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// NewModel creates a model over archivePath. Extracted files and diff
// targets live in workDir.
func NewModel(archivePath string, archiver ports.Archiver, fsys ports.FileSystem, workDir string) (*Model, error) {
	m := &Model{
		archivePath: archivePath,
		archiver:    archiver,
		fs:          fsys,
		workDir:     workDir,
		view:        MembersView,
	}

	if err := m.loadMembers(); err != nil {
		return nil, err
	}

	return m, nil
}

// loadMembers re-reads the central directory and clears verify marks.
func (m *Model) loadMembers() error {
	members, err := m.archiver.List(m.archivePath)
	if err != nil {
		return err
	}

	m.members = members
	m.failed = nil
	m.checked = false
	if m.cursor >= len(m.members) {
		m.cursor = len(m.members) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return nil
}

func (m *Model) selected() (ports.MemberInfo, bool) {
	if len(m.members) == 0 {
		return ports.MemberInfo{}, false
	}
	return m.members[m.cursor], true
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

type statusMsg struct {
	msg string
	err bool
}

type verifyMsg struct {
	results []ports.VerifyResult
	err     error
}

type fileDiffMsg struct {
	result *FileDiffResult
	err    error
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statusMsg:
		m.statusMsg = msg.msg
		m.statusErr = msg.err
		return m, nil

	case verifyMsg:
		m.handleVerify(msg)
		return m, nil

	case fileDiffMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Diff failed: %v", msg.err)
			m.statusErr = true
		} else {
			m.fileDiffResult = msg.result
			m.fileDiffScroll = 0
			m.view = FileDiffView
			m.statusMsg = ""
		}
		return m, nil

	case tea.KeyMsg:
		// Clear status on any key
		m.statusMsg = ""
		m.statusErr = false

		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			m.moveCursor(-1)

		case key.Matches(msg, keys.Down):
			m.moveCursor(1)

		case key.Matches(msg, keys.Back):
			if m.view == FileDiffView {
				m.view = MembersView
				m.fileDiffResult = nil
				m.fileDiffScroll = 0
			}

		case m.view == FileDiffView:
			if key.Matches(msg, keys.Swap) && m.fileDiffResult != nil {
				m.diffSwapped = !m.diffSwapped
			}

		case key.Matches(msg, keys.Extract):
			return m, m.extractSelected()

		case key.Matches(msg, keys.Verify):
			return m, m.runVerify()

		case key.Matches(msg, keys.Diff):
			return m, m.computeFileDiff()

		case key.Matches(msg, keys.Reload):
			if err := m.loadMembers(); err != nil {
				m.statusMsg = fmt.Sprintf("Reload failed: %v", err)
				m.statusErr = true
			} else {
				m.statusMsg = fmt.Sprintf("Reloaded %d members", len(m.members))
			}
		}
	}

	return m, nil
}

func (m *Model) moveCursor(delta int) {
	switch m.view {
	case MembersView:
		m.cursor += delta
		if m.cursor >= len(m.members) {
			m.cursor = len(m.members) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
	case FileDiffView:
		if m.fileDiffResult != nil {
			m.fileDiffScroll += delta
			maxScroll := len(m.fileDiffResult.Lines) - (m.height - 10)
			if maxScroll < 0 {
				maxScroll = 0
			}
			if m.fileDiffScroll > maxScroll {
				m.fileDiffScroll = maxScroll
			}
			if m.fileDiffScroll < 0 {
				m.fileDiffScroll = 0
			}
		}
	}
}

func (m *Model) extractSelected() tea.Cmd {
	member, ok := m.selected()
	if !ok {
		return func() tea.Msg { return statusMsg{err: true, msg: "No member selected"} }
	}
	archiver, archivePath, workDir := m.archiver, m.archivePath, m.workDir
	return func() tea.Msg {
		info, err := archiver.Extract(archivePath, member.Name, workDir)
		if err != nil {
			return statusMsg{err: true, msg: fmt.Sprintf("Extract failed: %v", err)}
		}
		return statusMsg{msg: fmt.Sprintf("✓ Extracted %s (%s)", info.Name, humanize.FormatSize(info.Size))}
	}
}

func (m *Model) runVerify() tea.Cmd {
	archiver, archivePath := m.archiver, m.archivePath
	return func() tea.Msg {
		results, err := archiver.Verify(archivePath)
		return verifyMsg{results: results, err: err}
	}
}

func (m *Model) handleVerify(msg verifyMsg) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("Verify failed: %v", msg.err)
		m.statusErr = true
		return
	}

	m.failed = make(map[string]string)
	for _, r := range msg.results {
		if r.Err != nil {
			m.failed[r.Name] = r.Err.Error()
		}
	}
	m.checked = true

	if len(m.failed) > 0 {
		m.statusMsg = fmt.Sprintf("✗ %d of %d members failed", len(m.failed), len(msg.results))
		m.statusErr = true
		return
	}
	m.statusMsg = fmt.Sprintf("✓ %d members verified", len(msg.results))
}

func (m *Model) computeFileDiff() tea.Cmd {
	member, ok := m.selected()
	if !ok {
		return func() tea.Msg { return statusMsg{err: true, msg: "No member selected"} }
	}
	archiver, fsys, archivePath, workDir := m.archiver, m.fs, m.archivePath, m.workDir
	return func() tea.Msg {
		result, err := ComputeFileDiff(archiver, fsys, archivePath, member.Name, workDir)
		return fileDiffMsg{result: result, err: err}
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.view {
	case MembersView:
		content = m.renderMembersView()
	case FileDiffView:
		content = m.renderFileDiffView()
	}

	return appStyle.Render(content)
}

func (m *Model) renderStatus(b *strings.Builder) {
	b.WriteString("\n")
	if m.statusMsg != "" {
		if m.statusErr {
			b.WriteString(errorBadge.Render(m.statusMsg))
		} else {
			b.WriteString(successBadge.Render(m.statusMsg))
		}
	}
	b.WriteString("\n")
}

func (m *Model) renderMembersView() string {
	var b strings.Builder

	title := titleStyle.Render(fmt.Sprintf(" 🗜 %s ", filepath.Base(m.archivePath)))
	b.WriteString(title)
	b.WriteString("\n\n")

	if len(m.members) == 0 {
		b.WriteString(dimStyle.Render("  Archive is empty"))
		b.WriteString("\n")
	} else {
		header := fmt.Sprintf("  %-28s %10s %10s %-7s %-8s %s",
			"NAME", "SIZE", "PACKED", "METHOD", "CRC32", "MODIFIED")
		b.WriteString(dimStyle.Render(header))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(strings.Repeat("─", 80)))
		b.WriteString("\n")

		visibleHeight := m.height - 10
		if visibleHeight < 5 {
			visibleHeight = 5
		}

		start := 0
		if m.cursor >= visibleHeight {
			start = m.cursor - visibleHeight + 1
		}

		for i := start; i < len(m.members) && i < start+visibleHeight; i++ {
			mem := m.members[i]
			cursor := "  "
			style := normalStyle
			if i == m.cursor {
				cursor = "▸ "
				style = selectedStyle
			}

			modified := "-"
			if !mem.Modified.IsZero() {
				modified = relativeTime(mem.Modified)
			}

			line := fmt.Sprintf("%s%-28s %10s %10s %-7s %08x %s",
				cursor,
				truncate(mem.Name, 28),
				humanize.FormatSize(mem.Size),
				humanize.FormatSize(mem.CompressedSize),
				mem.Method,
				mem.CRC32,
				modified)

			if reason, bad := m.failed[mem.Name]; bad {
				b.WriteString(errorBadge.Render(line + "  ✗ " + reason))
			} else if m.checked {
				b.WriteString(style.Render(line + "  ✓"))
			} else {
				b.WriteString(style.Render(line))
			}
			b.WriteString("\n")
		}
	}

	m.renderStatus(&b)

	help := "[↑/↓] navigate  [enter/x] extract  [d] diff  [v] verify  [r] reload  [q] quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) renderFileDiffView() string {
	var b strings.Builder

	if m.fileDiffResult == nil {
		return "Loading..."
	}
	res := m.fileDiffResult

	left, right := res.Left, res.Right
	if m.diffSwapped {
		left, right = right, left
	}
	title := titleStyle.Render(fmt.Sprintf(" 📄 %s ", res.Path))
	b.WriteString(title)
	b.WriteString("\n")

	header := fmt.Sprintf("  %-35s │ %-35s", truncate(left, 35), truncate(right, 35))
	b.WriteString(dimStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", 75)))
	b.WriteString("\n")

	switch {
	case res.Error != "":
		b.WriteString(errorBadge.Render(res.Error))
		b.WriteString("\n")
	case res.IsBinary && res.Identical:
		b.WriteString(dimStyle.Render("  Binary files are identical"))
		b.WriteString("\n")
	case res.IsBinary:
		b.WriteString(dimStyle.Render("  Binary files differ - content diff not available"))
		b.WriteString("\n")
	case res.Identical:
		b.WriteString(dimStyle.Render("  No differences"))
		b.WriteString("\n")
	default:
		added, removed := DiffStats(res.Lines)
		b.WriteString(addedStyle.Render(fmt.Sprintf("  +%d", added)))
		b.WriteString(" ")
		b.WriteString(deletedStyle.Render(fmt.Sprintf("-%d", removed)))
		b.WriteString("\n")

		visibleHeight := m.height - 12
		if visibleHeight < 5 {
			visibleHeight = 5
		}

		endIdx := m.fileDiffScroll + visibleHeight
		if endIdx > len(res.Lines) {
			endIdx = len(res.Lines)
		}

		for i := m.fileDiffScroll; i < endIdx; i++ {
			b.WriteString(m.renderDiffLine(res.Lines[i]))
			b.WriteString("\n")
		}

		if len(res.Lines) > visibleHeight {
			scrollInfo := fmt.Sprintf("  Lines %d-%d of %d",
				m.fileDiffScroll+1, endIdx, len(res.Lines))
			b.WriteString(dimStyle.Render(scrollInfo))
			b.WriteString("\n")
		}
	}

	m.renderStatus(&b)

	help := "[↑/↓] scroll  [s] swap sides  [esc] back  [q] quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) renderDiffLine(line DiffLine) string {
	ln1, ln2 := "   ", "   "
	if line.LineNum1 > 0 {
		ln1 = fmt.Sprintf("%3d", line.LineNum1)
	}
	if line.LineNum2 > 0 {
		ln2 = fmt.Sprintf("%3d", line.LineNum2)
	}

	marker := line.Type
	if m.diffSwapped {
		ln1, ln2 = ln2, ln1
		switch marker {
		case '+':
			marker = '-'
		case '-':
			marker = '+'
		}
	}

	content := truncate(line.Content, 60)

	switch marker {
	case '+':
		return addedStyle.Render(fmt.Sprintf("%s    │ %s  + %s", ln1, ln2, content))
	case '-':
		return deletedStyle.Render(fmt.Sprintf("%s  - │ %s    %s", ln1, ln2, content))
	default:
		return dimStyle.Render(fmt.Sprintf("%s    │ %s    %s", ln1, ln2, content))
	}
}

// Run starts the TUI on archivePath, extracting into the current directory.
func Run(archivePath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	opts, err := cfg.AddOptions()
	if err != nil {
		return err
	}
	archivePath, err = config.ExpandPath(archivePath)
	if err != nil {
		return err
	}

	fsys := osfs.New()
	m, err := NewModel(archivePath, ziparchiver.New(fsys, opts, cfg.MaxMemberSize), fsys, ".")
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// Helper functions
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func relativeTime(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2 2006")
	}
}
