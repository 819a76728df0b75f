package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/userdeck/userdeck/internal/types"
	"github.com/userdeck/userdeck/internal/ui"
)

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user",
	Long: `Create a user interactively.

The remote API is asked to create the entry, but the id it echoes back
is not trusted: the cache allocates the next free id locally and that
id is authoritative. Users created this way live beyond the remote's
seed range, so later edits to them never leave the local cache.`,
	Run: func(cmd *cobra.Command, args []string) {
		var u types.User
		if err := ui.UserForm(&u).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Aborted: %v\n", err)
			os.Exit(1)
		}

		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		stored, err := app.orch.AddUser(context.Background(), u)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Created user %d (%s)\n", stored.ID, stored.Name)
	},
}

var usersEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a user",
	Long: `Edit a user's fields interactively.

Users within the remote's seed range are updated through the remote
API first; the cache stores the remote's response. Users beyond the
seed range were created locally and are updated in the cache directly,
since the remote would silently drop the write.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid user id %q\n", args[0])
			os.Exit(1)
		}

		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		ctx := context.Background()
		user, ok := app.orch.UserByID(ctx, id)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: user %d unavailable\n", id)
			os.Exit(1)
		}

		if err := ui.UserForm(&user).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Aborted: %v\n", err)
			os.Exit(1)
		}

		updated, err := app.orch.UpdateUser(ctx, user)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Updated user %d (%s)\n", updated.ID, updated.Name)
	},
}

func init() {
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersEditCmd)
}
