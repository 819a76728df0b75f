package ui

import (
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/userdeck/userdeck/internal/types"
)

var ansiEscapes = regexp.MustCompile("\x1b\\[[0-9;]*m")

// TestUserTable_ColumnsAlignWithColorEnabled verifies that styling
// carries zero visible width: with escape sequences stripped, the row
// cells must start at the same offsets as the header cells
func TestUserTable_ColumnsAlignWithColorEnabled(t *testing.T) {
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI256)
	defer lipgloss.SetColorProfile(prev)

	out := UserTable([]types.User{
		{ID: 1, Name: "Leanne Graham", Username: "Bret", Email: "leanne@example.com"},
	}, 10)

	lines := strings.Split(out, "\n")
	header := ansiEscapes.ReplaceAllString(lines[0], "")
	row := ansiEscapes.ReplaceAllString(lines[1], "")

	if got, want := strings.Index(row, "Leanne Graham"), strings.Index(header, "NAME"); got != want {
		t.Errorf("name column starts at %d, header NAME at %d", got, want)
	}
	if got, want := strings.Index(row, "Bret"), strings.Index(header, "USERNAME"); got != want {
		t.Errorf("username column starts at %d, header USERNAME at %d", got, want)
	}
	if got, want := strings.Index(row, "leanne@"), strings.Index(header, "EMAIL"); got != want {
		t.Errorf("email column starts at %d, header EMAIL at %d", got, want)
	}
}

// TestUserTable_MarksLocalUsers covers the local-only marker
func TestUserTable_MarksLocalUsers(t *testing.T) {
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.Ascii)
	defer lipgloss.SetColorProfile(prev)

	out := UserTable([]types.User{
		{ID: 5, Name: "remote"},
		{ID: 11, Name: "homegrown"},
	}, 10)

	lines := strings.Split(out, "\n")
	if strings.Contains(lines[1], "(local)") {
		t.Error("seed-range user marked local")
	}
	if !strings.Contains(lines[2], "(local)") {
		t.Error("beyond-range user not marked local")
	}
}
