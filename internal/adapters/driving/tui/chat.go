// Package tui implements the interactive chat session over the
// knowledge base, built on Bubble Tea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driving"
)

const askTimeout = 5 * time.Minute

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// answerMsg carries a completed query result back into the update loop.
type answerMsg struct {
	answer *domain.Answer
	err    error
}

// Chat is the Bubble Tea model for the interactive session.
type Chat struct {
	ask      driving.AskService
	input    textinput.Model
	viewport viewport.Model
	language domain.Language
	history  []string
	status   string
	thinking bool
	ready    bool
}

// NewChat creates a chat model answering in the given default language.
func NewChat(ask driving.AskService, language domain.Language) Chat {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question (lang ar / lang en / quit)"
	ti.Focus()
	ti.CharLimit = 0

	if !language.IsValid() {
		language = domain.LanguageEnglish
	}

	return Chat{
		ask:      ask,
		input:    ti,
		viewport: viewport.New(0, 0),
		language: language,
		status:   fmt.Sprintf("Answering in %s. Type a question and press Enter.", language.Description()),
	}
}

// Language returns the current answer language.
func (m Chat) Language() domain.Language {
	return m.language
}

// Init starts the text input cursor blink.
func (m Chat) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key, window and answer events.
func (m Chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, frameHeight := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + frameHeight + 1 // header, status, input frame, spacer
		height := msg.Height - reserved
		if height < 3 {
			height = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = height
		m.viewport.SetContent(strings.Join(m.history, "\n"))
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter && !m.thinking {
			return m.submit()
		}

	case answerMsg:
		m.thinking = false
		m.appendAnswer(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles the Enter key: session commands are applied locally,
// anything else is sent to the ask service.
func (m Chat) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.SetValue("")

	switch strings.ToLower(text) {
	case "quit", "exit":
		return m, tea.Quit
	case "lang ar":
		m.language = domain.LanguageArabic
		m.status = "Answering in " + m.language.Description() + "."
		return m, nil
	case "lang en":
		m.language = domain.LanguageEnglish
		m.status = "Answering in " + m.language.Description() + "."
		return m, nil
	}

	m.thinking = true
	m.status = "Thinking..."
	m.appendHistory(questionStyle.Render("? " + text))

	language := m.language
	ask := m.ask
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
		defer cancel()
		answer, err := ask.Ask(ctx, text, domain.AskOptions{Language: language})
		return answerMsg{answer: answer, err: err}
	}
}

func (m *Chat) appendAnswer(msg answerMsg) {
	switch {
	case errors.Is(msg.err, domain.ErrNoRelevantContext):
		m.appendHistory(errorStyle.Render("The knowledge base has no relevant content for this question."))
		m.status = "No relevant context."
	case msg.err != nil:
		m.appendHistory(errorStyle.Render("Error: " + msg.err.Error()))
		m.status = "Query failed."
	default:
		m.appendHistory(msg.answer.Answer)
		for i, src := range msg.answer.Sources {
			m.appendHistory(sourceStyle.Render(fmt.Sprintf("  [%d] %s (%.2f)", i+1, src.URI, src.Score)))
		}
		m.status = fmt.Sprintf("Answered in %.1fs.", msg.answer.Elapsed.Seconds())
	}
	m.appendHistory("")
}

func (m *Chat) appendHistory(line string) {
	m.history = append(m.history, line)
	m.viewport.SetContent(strings.Join(m.history, "\n"))
	m.viewport.GotoBottom()
}

// View renders the chat layout.
func (m Chat) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("Marjaa Chat") + "  " +
		subtitleStyle.Render("language: "+m.language.String())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + m.viewport.View() + "\n" + input + "\n" + status
}
