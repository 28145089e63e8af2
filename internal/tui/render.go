package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/petrogames/internal/match"
	"github.com/verte-zerg/petrogames/internal/model"
	"github.com/verte-zerg/petrogames/internal/round"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	chipStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#D9D9D9")).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#595959")).Padding(0, 1)
	cursorStyle   = chipStyle.BorderForeground(lipgloss.Color("#C89A3A")).Bold(true)
	selectedStyle = chipStyle.Foreground(lipgloss.Color("#1F1F1F")).Background(lipgloss.Color("#C89A3A"))
	clearedStyle  = chipStyle.Foreground(lipgloss.Color("#434343")).BorderForeground(lipgloss.Color("#303030")).Strikethrough(true)
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#73D13D"))
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// View implements tea.Model.
func (m *Model) View() string {
	v := m.ctrl.Snapshot()
	m.syncBoard(v)
	contentWidth := m.width * 70 / 100
	if contentWidth < 20 {
		contentWidth = 20
	}

	var sections []string
	sections = append(sections, m.renderHeader(v))
	if v.Phase == round.Completed {
		sections = append(sections, m.renderCompleted(v))
	} else {
		sections = append(sections, promptStyle.Render(wrapWords(m.promptText(v), contentWidth)))
		sections = append(sections, m.renderBoard(v, contentWidth))
		if line := m.renderSelection(v); line != "" {
			sections = append(sections, line)
		}
		if bar := m.renderTimer(v, contentWidth); bar != "" {
			sections = append(sections, bar)
		}
	}
	if line := m.renderFeedback(v); line != "" {
		sections = append(sections, wrapWords(line, contentWidth))
	}
	sections = append(sections, m.help.View(m.km))
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderHeader(v round.View) string {
	title := m.game.Title
	if title == "" {
		title = m.game.ID
	}
	name := v.Level.Name
	if name == "" {
		name = v.Level.ID
	}
	goal := v.Level.RequiredScore
	have := v.Progress.Correct
	if v.Level.ScoreBasis == model.ScoreBasisPoints {
		have = v.Progress.Points
	}
	parts := []string{
		titleStyle.Render(title),
		fmt.Sprintf("Level %d/%d %s", v.LevelIndex+1, v.LevelCount, name),
		fmt.Sprintf("Goal %d/%d", have, goal),
	}
	if v.Level.RequiredRounds > 0 {
		parts = append(parts, fmt.Sprintf("Round %d/%d", v.Progress.Attempted, v.Level.RequiredRounds))
	}
	parts = append(parts, fmt.Sprintf("%d pts", v.Score.TotalPoints))
	if v.Score.CurrentStreak > 1 {
		parts = append(parts, fmt.Sprintf("streak %d", v.Score.CurrentStreak))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) promptText(v round.View) string {
	if v.Level.HasModifier("fade") && v.Phase == round.AwaitingInput && m.fx.Ticks()-m.boardTick >= fadeAfter {
		return "(the prompt has faded)"
	}
	return v.Prompt
}

func (m *Model) renderBoard(v round.View, width int) string {
	selected := make(map[string]bool, len(v.Selection))
	for _, id := range v.Selection {
		selected[id] = true
	}
	mirror := v.Level.HasModifier("mirror")
	chips := make([]chip, 0, len(m.order))
	for pos, idx := range m.order {
		c := v.Candidates[idx]
		text := candidateText(c)
		if mirror {
			text = reverseRunes(text)
		}
		if pos < 9 {
			text = fmt.Sprintf("%d %s", pos+1, text)
		}
		style := chipStyle
		switch {
		case v.Cleared[c.ID]:
			style = clearedStyle
		case selected[c.ID] && m.game.Mode != match.ModeSequence:
			style = selectedStyle
		case pos == m.cursor && v.Phase == round.AwaitingInput:
			style = cursorStyle
		}
		s := style.Render(text)
		chips = append(chips, chip{s: s, width: lipgloss.Width(s)})
	}
	return wrapChips(chips, width, 1)
}

func candidateText(c model.Candidate) string {
	switch {
	case c.Symbol != "" && c.Label != "" && c.Symbol != c.Label:
		return c.Symbol + " " + c.Label
	case c.Label != "":
		return c.Label
	case c.Symbol != "":
		return c.Symbol
	default:
		return c.Key
	}
}

// renderSelection shows sequence input progress as slots.
func (m *Model) renderSelection(v round.View) string {
	if m.game.Mode != match.ModeSequence || v.Required == 0 {
		return ""
	}
	symbols := make(map[string]string, len(v.Candidates))
	for _, c := range v.Candidates {
		symbols[c.ID] = c.Symbol
	}
	slots := make([]string, v.Required)
	for i := range slots {
		if i < len(v.Selection) {
			slots[i] = symbols[v.Selection[i]]
		} else {
			slots[i] = pendingStyle.Render("_")
		}
	}
	return "Sequence: " + strings.Join(slots, " ")
}

func (m *Model) renderTimer(v round.View, width int) string {
	if v.TimeLimit <= 0 || v.Level.HasModifier("freeze") {
		return ""
	}
	frac := float64(v.TimeRemaining) / float64(v.TimeLimit)
	m.bar.Width = width - 6
	if m.bar.Width < 10 {
		m.bar.Width = 10
	}
	return fmt.Sprintf("%s %3ds", m.bar.ViewAs(frac), int(v.TimeRemaining.Seconds()+0.5))
}

func (m *Model) renderFeedback(v round.View) string {
	switch {
	case v.Phase == round.Resolved && v.LastOutcome != nil:
		style := wrongStyle
		if v.LastOutcome.Correct {
			style = correctStyle
		}
		return style.Render(v.Feedback)
	case v.Feedback != "":
		return pendingStyle.Render(v.Feedback)
	case m.notice != "":
		return pendingStyle.Render(m.notice)
	default:
		return ""
	}
}

func (m *Model) renderCompleted(v round.View) string {
	lines := []string{
		correctStyle.Render("All levels cleared!"),
		fmt.Sprintf("Score %d  Best streak %d  Accuracy %.1f%%", v.Score.TotalPoints, v.Score.BestStreak, v.Accuracy*100),
	}
	if len(v.Unlocked) > 0 {
		lines = append(lines, fmt.Sprintf("Achievements: %s", strings.Join(v.Unlocked, ", ")))
	}
	lines = append(lines, pendingStyle.Render("Press enter or r to play again, q to quit."))
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	var segments []string
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f pts/min · %.1f%%", m.lastPPM, m.lastAcc*100))
	}
	if m.allDuration > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f pts/min · %.1f%%", m.allPPM, m.allAcc*100))
	}
	if len(segments) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
