package ui

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/userdeck/userdeck/internal/types"
)

// UserForm returns an interactive form editing the user in place.
// Name, username and email are required; email must parse as an
// address. The id is never editable: identity is immutable.
func UserForm(u *types.User) *huh.Form {
	required := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", field)
			}
			return nil
		}
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&u.Name).
				Validate(required("name")),
			huh.NewInput().
				Title("Username").
				Value(&u.Username).
				Validate(required("username")),
			huh.NewInput().
				Title("Email").
				Value(&u.Email).
				Validate(func(s string) error {
					if _, err := mail.ParseAddress(s); err != nil {
						return fmt.Errorf("invalid email address")
					}
					return nil
				}),
			huh.NewInput().
				Title("Phone").
				Value(&u.Phone),
			huh.NewInput().
				Title("Website").
				Value(&u.Website),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Street").
				Value(&u.Address.Street),
			huh.NewInput().
				Title("Suite").
				Value(&u.Address.Suite),
			huh.NewInput().
				Title("City").
				Value(&u.Address.City),
			huh.NewInput().
				Title("Zipcode").
				Value(&u.Address.Zipcode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Company").
				Value(&u.Company.Name),
			huh.NewInput().
				Title("Catch phrase").
				Value(&u.Company.CatchPhrase),
			huh.NewInput().
				Title("BS").
				Value(&u.Company.BS),
		),
	)
}
