package main

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const (
	userPrefix = "You: "
	botPrefix  = "Bot: "

	// Continuation lines of a wrapped message are indented this many columns,
	// and the wrap width shrinks by the same amount.
	wrapIndent = 5
)

// ChatComponent is the scrollable display buffer. It holds one string per
// transcript line ("You: ..." or "Bot: ...") and re-wraps them to the current
// width on every content update, so resizes re-flow the whole buffer.
type ChatComponent struct {
	Viewport     viewport.Model
	Messages     []string
	Width        int
	Height       int
	Style        lipgloss.Style
	AutoScroll   bool
	UserScrolled bool

	markdownRenderer *glamour.TermRenderer
	markdownEnabled  bool
}

// NewChatComponent creates a new chat component
func NewChatComponent(width, height int, markdownEnabled bool) *ChatComponent {
	vp := viewport.New(width, height)

	var renderer *glamour.TermRenderer
	if markdownEnabled {
		var err error
		renderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(0), // 0 disables glamour's word wrapping
		)
		if err != nil {
			slog.Warn("markdown renderer init failed, using plain text", "error", err)
			renderer = nil
		}
	}

	return &ChatComponent{
		Viewport:         vp,
		Messages:         make([]string, 0),
		Width:            width,
		Height:           height,
		AutoScroll:       true,
		markdownRenderer: renderer,
		markdownEnabled:  markdownEnabled,
		Style: lipgloss.NewStyle().
			Width(width).
			Height(height),
	}
}

// SetSize updates the width & height of the chat component
func (c *ChatComponent) SetSize(width, height int) {
	c.Width = width
	c.Style = c.Style.Width(width)
	c.Viewport.Width = width

	if height < 0 {
		height = 0
	}
	c.Height = height
	c.Style = c.Style.Height(height)
	c.Viewport.Height = height
	c.UpdateContent()
}

// AddExchange appends the You/Bot line pair for a completed exchange.
func (c *ChatComponent) AddExchange(entry ChatLogEntry) {
	c.Messages = append(c.Messages,
		userPrefix+entry.Message,
		botPrefix+entry.Response)
	c.AutoScroll = true
	c.UserScrolled = false
	c.UpdateContent()
}

// SetTranscript rebuilds the buffer from a full transcript, oldest first.
func (c *ChatComponent) SetTranscript(entries []ChatLogEntry) {
	c.Messages = make([]string, 0, 2*len(entries))
	for _, entry := range entries {
		c.Messages = append(c.Messages,
			userPrefix+entry.Message,
			botPrefix+entry.Response)
	}
	c.AutoScroll = true
	c.UserScrolled = false
	c.UpdateContent()
}

// Clear empties the display buffer.
func (c *ChatComponent) Clear() {
	c.Messages = c.Messages[:0]
	c.AutoScroll = true
	c.UserScrolled = false
	c.Viewport.SetContent("")
	c.Viewport.GotoTop()
}

// wrapWithIndent wraps text and indents every line after the first.
func (c *ChatComponent) wrapWithIndent(text string) string {
	wrapWidth := c.Width
	if wrapWidth > wrapIndent+1 {
		wrapWidth -= wrapIndent
	}
	if wrapWidth < 1 {
		wrapWidth = 1
	}

	lines := strings.Split(wordwrap.String(text, wrapWidth), "\n")
	indent := strings.Repeat(" ", wrapIndent)
	for i := 1; i < len(lines); i++ {
		lines[i] = indent + lines[i]
	}
	return strings.Join(lines, "\n")
}

// UpdateContent re-renders all messages into the viewport.
func (c *ChatComponent) UpdateContent() {
	var messageViews []string
	for _, message := range c.Messages {
		switch {
		case strings.HasPrefix(message, userPrefix):
			style := lipgloss.NewStyle().Foreground(globalTheme.UserColor)
			messageViews = append(messageViews, style.Render(c.wrapWithIndent(message)))
		case strings.HasPrefix(message, botPrefix):
			if c.markdownEnabled && c.markdownRenderer != nil {
				content := strings.TrimPrefix(message, botPrefix)
				messageViews = append(messageViews, botPrefix+c.renderMarkdown(content))
			} else {
				style := lipgloss.NewStyle().Foreground(globalTheme.BotColor)
				messageViews = append(messageViews, style.Render(c.wrapWithIndent(message)))
			}
		default:
			style := lipgloss.NewStyle().Foreground(globalTheme.TextColor)
			messageViews = append(messageViews, style.Render(wordwrap.String(message, c.Width)))
		}
	}
	content := lipgloss.JoinVertical(lipgloss.Left, messageViews...)
	c.Viewport.SetContent(content)

	if c.AutoScroll && !c.UserScrolled {
		c.Viewport.GotoBottom()
	}
}

// renderMarkdown renders a bot reply with glamour, falling back to wrapped
// plain text on error.
func (c *ChatComponent) renderMarkdown(content string) string {
	rendered, err := c.markdownRenderer.Render(content)
	if err != nil {
		return c.wrapWithIndent(content)
	}
	// Glamour is configured with WordWrap(0); wrap here at the current width
	// so resizes re-flow without recreating the renderer.
	wrapWidth := c.Width - wrapIndent
	if wrapWidth < 1 {
		wrapWidth = 1
	}
	wrapped := wordwrap.String(rendered, wrapWidth)
	return strings.TrimSpace(wrapped)
}

// Update handles scroll input for the chat component
func (c ChatComponent) Update(msg tea.Msg) (ChatComponent, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp:
			c.Viewport.ScrollUp(1)
			c.UserScrolled = true
		case tea.MouseWheelDown:
			c.Viewport.ScrollDown(1)
			if c.Viewport.AtBottom() {
				c.UserScrolled = false
				c.AutoScroll = true
			} else {
				c.UserScrolled = true
			}
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup":
			c.Viewport.HalfPageUp()
			c.UserScrolled = true
		case "pgdown":
			c.Viewport.HalfPageDown()
			if c.Viewport.AtBottom() {
				c.UserScrolled = false
				c.AutoScroll = true
			} else {
				c.UserScrolled = true
			}
		}
	}
	return c, cmd
}

// View renders the chat component
func (c ChatComponent) View() string {
	return c.Style.Render(c.Viewport.View())
}

// lineCount reports the number of rendered buffer lines at the current
// width. Used by tests and the scroll math.
func (c *ChatComponent) lineCount() int {
	total := 0
	for _, message := range c.Messages {
		total += strings.Count(c.wrapWithIndent(message), "\n") + 1
	}
	return total
}
