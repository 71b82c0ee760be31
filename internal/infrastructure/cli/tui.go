package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/specaudit/pkg/application"
	"github.com/felixgeelhaar/specaudit/pkg/domain/normalize"
	"github.com/felixgeelhaar/specaudit/pkg/domain/report"
)

type stage int

const (
	stageForm stage = iota
	stageAuditing
	stageResults
	stageProceeded
)

const (
	fieldMCAT = iota
	fieldFile
)

type loadedMsg struct {
	path string
	file *application.LoadedFile
	err  error
}

type auditedMsg struct {
	view report.View
	err  error
}

// formModel drives one audit form session in the terminal.
type formModel struct {
	ctx    context.Context
	intake *application.IntakeService
	// notify runs off the update loop once the submission proceeds.
	notify func(application.Submission)

	stage   stage
	inputs  []textinput.Model
	focus   int
	spinner spinner.Model

	loadedPath string
	loaded     *application.LoadedFile
	view       report.View
	cursor     int
	err        string
	autoSubmit bool
}

func newFormModel(ctx context.Context, intake *application.IntakeService, mcat, path string) formModel {
	name := textinput.New()
	name.Placeholder = "e.g., Stainless Steel Sheet"
	name.Prompt = "MCAT Name: "
	name.SetValue(mcat)
	name.Focus()

	file := textinput.New()
	file.Placeholder = "path/to/specifications.json"
	file.Prompt = "JSON File: "
	file.SetValue(path)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cursorStyle

	m := formModel{
		ctx:        ctx,
		intake:     intake,
		inputs:     []textinput.Model{name, file},
		spinner:    sp,
		autoSubmit: mcat != "" && path != "",
	}
	if m.autoSubmit {
		m.stage = stageAuditing
		m.inputs[fieldMCAT].Blur()
	}
	return m
}

func (m formModel) Init() tea.Cmd {
	if m.autoSubmit {
		return tea.Batch(m.spinner.Tick, m.submitCmd())
	}
	return textinput.Blink
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.stage {
		case stageForm:
			return m.updateForm(msg)
		case stageResults:
			return m.updateResults(msg)
		case stageProceeded:
			return m, tea.Quit
		}

	case loadedMsg:
		if errors.Is(msg.err, application.ErrStaleRead) {
			return m, nil
		}
		if msg.err != nil {
			m.loaded = nil
			m.loadedPath = ""
			m.err = normalize.Message(msg.err)
			return m, nil
		}
		m.loaded = msg.file
		m.loadedPath = msg.path
		m.err = ""
		return m, nil

	case auditedMsg:
		if msg.err != nil {
			m.stage = stageForm
			m.err = normalize.Message(msg.err)
			return m, m.inputs[m.focus].Focus()
		}
		m.stage = stageResults
		m.view = msg.view
		m.cursor = 0
		m.err = ""
		return m, nil

	case spinner.TickMsg:
		if m.stage != stageAuditing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.stage == stageForm {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m formModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		leaving := m.focus
		m.inputs[m.focus].Blur()
		m.focus = (m.focus + 1) % len(m.inputs)
		cmds := []tea.Cmd{m.inputs[m.focus].Focus()}
		if leaving == fieldFile {
			cmds = append(cmds, m.loadCmd())
		}
		return m, tea.Batch(cmds...)
	case "enter":
		if m.focus == fieldFile && m.currentPath() != m.loadedPath {
			return m, m.loadCmd()
		}
		m.stage = stageAuditing
		m.err = ""
		m.inputs[m.focus].Blur()
		return m, tea.Batch(m.spinner.Tick, m.submitCmd())
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m formModel) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.view.Results)-1 {
			m.cursor++
		}
	case "enter", " ":
		if m.cursor < len(m.view.Results) && m.view.Results[m.cursor].CanExpand {
			m.intake.Toggle(m.view.Results[m.cursor].Result.Specification)
			if view, err := m.intake.View(); err == nil {
				m.view = view
			}
		}
	case "p":
		if err := m.intake.Proceed(); err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.stage = stageProceeded
		if sub := m.intake.Status().Submission; sub != nil && m.notify != nil {
			notify, proceeded := m.notify, *sub
			return m, func() tea.Msg {
				notify(proceeded)
				return nil
			}
		}
	case "r":
		m.stage = stageForm
		m.view = report.View{}
		return m, m.inputs[m.focus].Focus()
	}
	return m, nil
}

func (m formModel) currentPath() string {
	return strings.TrimSpace(m.inputs[fieldFile].Value())
}

// loadCmd reads the file in the background. A newer load supersedes it.
func (m formModel) loadCmd() tea.Cmd {
	path := m.currentPath()
	if path == "" {
		return nil
	}
	intake, ctx := m.intake, m.ctx
	return func() tea.Msg {
		file, err := intake.Load(ctx, application.FileSource{Path: path})
		return loadedMsg{path: path, file: file, err: err}
	}
}

// submitCmd loads the file when it changed, then submits and audits.
func (m formModel) submitCmd() tea.Cmd {
	path, loadedPath := m.currentPath(), m.loadedPath
	mcat := m.inputs[fieldMCAT].Value()
	intake, ctx := m.intake, m.ctx
	return func() tea.Msg {
		if path != "" && path != loadedPath {
			if _, err := intake.Load(ctx, application.FileSource{Path: path}); err != nil {
				return auditedMsg{err: err}
			}
		}
		view, err := intake.Run(ctx, mcat)
		return auditedMsg{view: view, err: err}
	}
}

func (m formModel) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Specification Auditor and Generator") + "\n\n")

	switch m.stage {
	case stageForm:
		for _, in := range m.inputs {
			b.WriteString(in.View() + "\n")
		}
		if m.loaded != nil {
			b.WriteString(correctStyle.Render(fmt.Sprintf("File loaded: %d specifications found", m.loaded.Preview)) + "\n")
		}
		if m.err != "" {
			b.WriteString("\n" + incorrectStyle.Render("Error: "+m.err) + "\n")
		}
		b.WriteString(mutedStyle.Render("\n[tab] Next field  [enter] Load / Submit  [esc] Quit") + "\n")

	case stageAuditing:
		b.WriteString(m.spinner.View() + " Auditing specifications...\n")

	case stageResults:
		b.WriteString(headerStyle.Render("Stage 1: Specification Audit Results") + "\n\n")
		b.WriteString(renderSummary(m.view.Summary) + "\n\n")
		for i, rv := range m.view.Results {
			b.WriteString(renderResult(rv, i == m.cursor))
		}
		if len(m.view.Unmatched) > 0 {
			b.WriteString("\n" + incorrectStyle.Render("Not submitted: "+strings.Join(m.view.Unmatched, ", ")) + "\n")
		}
		if m.err != "" {
			b.WriteString("\n" + incorrectStyle.Render("Error: "+m.err) + "\n")
		}
		b.WriteString(mutedStyle.Render("\n[up/down] Navigate  [enter] Details  [p] Extract Buyer ISQs  [r] Edit form  [q] Quit") + "\n")

	case stageProceeded:
		b.WriteString(correctStyle.Render("Proceeding to Stage 2: buyer ISQ extraction.") + "\n")
		b.WriteString(mutedStyle.Render("Press any key to exit.") + "\n")
	}
	return b.String()
}
