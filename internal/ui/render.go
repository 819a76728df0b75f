// Package ui renders cache entities for the terminal and provides the
// interactive forms used by the add/edit commands.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/userdeck/userdeck/internal/types"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Width(10)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	localStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// DisableColor forces plain ASCII output (--no-color).
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// UserTable renders the users collection as a table. Users with ids
// beyond the remote seed range are marked local-only.
func UserTable(users []types.User, remoteIDCeiling int) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-5s %-25s %-18s %-30s", "ID", "NAME", "USERNAME", "EMAIL")))
	b.WriteString("\n")

	for _, u := range users {
		// Pad the raw id before styling: escape sequences would count
		// toward the column width otherwise.
		line := fmt.Sprintf("%s %-25s %-18s %-30s",
			idStyle.Render(fmt.Sprintf("%-5d", u.ID)), u.Name, u.Username, u.Email)
		if u.ID > remoteIDCeiling {
			line += " " + localStyle.Render("(local)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(faintStyle.Render(fmt.Sprintf("%d users", len(users))))
	return b.String()
}

// UserDetail renders a single user with full fields.
func UserDetail(u types.User) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (#%d)", u.Name, u.ID)))
	b.WriteString("\n\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(" ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("Username", u.Username)
	row("Email", u.Email)
	row("Phone", u.Phone)
	row("Website", u.Website)
	row("Address", formatAddress(u.Address))
	row("Company", formatCompany(u.Company))

	return b.String()
}

// PostList renders a user's posts under a heading.
func PostList(u types.User, posts []types.Post) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Posts by %s", u.Name)))
	b.WriteString("\n\n")

	if len(posts) == 0 {
		b.WriteString(faintStyle.Render("No posts."))
		return b.String()
	}

	for _, p := range posts {
		b.WriteString(headerStyle.Render(fmt.Sprintf("#%d %s", p.ID, p.Title)))
		b.WriteString("\n")
		b.WriteString(p.Body)
		b.WriteString("\n\n")
	}

	b.WriteString(faintStyle.Render(fmt.Sprintf("%d posts", len(posts))))
	return b.String()
}

func formatAddress(a types.Address) string {
	parts := []string{}
	for _, p := range []string{a.Street, a.Suite, a.City, a.Zipcode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func formatCompany(c types.Company) string {
	if c.Name == "" {
		return ""
	}
	if c.CatchPhrase == "" {
		return c.Name
	}
	return fmt.Sprintf("%s - %q", c.Name, c.CatchPhrase)
}
