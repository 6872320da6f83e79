package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"campustube/pkg/client"
	"campustube/pkg/models"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(60)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	heartStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Padding(0, 1)
	rejectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")).Padding(0, 1)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func heart(liked bool) string {
	if liked {
		return heartStyle.Render("♥")
	}
	return "♡"
}

func author(v models.Video) string {
	if v.Profile != nil && v.Profile.FullName != "" {
		return v.Profile.FullName
	}
	return "Unknown"
}

func renderCard(v models.Video, liked bool, showStatus bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(v.Title))
	switch {
	case showStatus && v.Status == models.StatusPending:
		b.WriteString(" " + pendingStyle.Render("Pending"))
	case showStatus && v.Status == models.StatusRejected:
		b.WriteString(" " + rejectStyle.Render("Rejected"))
	}
	b.WriteString("\n")
	if v.Description != "" {
		b.WriteString(v.Description + "\n")
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("by %s • %d views", author(v), v.ViewsCount)) + "\n")
	fmt.Fprintf(&b, "%s %d   💬 %d   %s", heart(liked), v.LikesCount, v.CommentsCount, mutedStyle.Render(v.ID))
	return cardStyle.Render(b.String())
}

func renderPage(w io.Writer, p *client.Page, empty string, showStatus bool) {
	if len(p.Videos) == 0 {
		fmt.Fprintln(w, mutedStyle.Render(empty))
		return
	}
	for _, v := range p.Videos {
		fmt.Fprintln(w, renderCard(v, p.IsLiked(v.ID), showStatus))
	}
}

func renderProfile(w io.Writer, p *client.Page) {
	if p.Profile == nil {
		return
	}
	name := p.Profile.FullName
	if name == "" {
		name = "U"
	}
	header := titleStyle.Render(name) + "\n" +
		mutedStyle.Render(p.Profile.MatriculeID) + "\n" +
		fmt.Sprintf("%d videos • %d followers", len(p.Videos), p.Profile.FollowersCount)
	if p.Profile.Bio != "" {
		header += "\n\n" + p.Profile.Bio
	}
	fmt.Fprintln(w, cardStyle.Render(header))
}

// termNotifier prints notifications to the error stream.
type termNotifier struct {
	w io.Writer
}

func (n termNotifier) Success(msg string) { fmt.Fprintln(n.w, okStyle.Render("✓ "+msg)) }
func (n termNotifier) Error(msg string)   { fmt.Fprintln(n.w, errStyle.Render("✗ "+msg)) }
