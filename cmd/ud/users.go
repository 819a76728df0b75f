package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	usersync "github.com/userdeck/userdeck/internal/sync"
	"github.com/userdeck/userdeck/internal/ui"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Browse and edit the user directory",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users (cached when warm, fetched otherwise)",
	Long: `List the user directory.

When the local cache already holds users, no remote call is made.
On a cold cache the list is fetched from the remote API and written
through to the cache. If the remote is unavailable the command prints
an empty list plus a warning; the cache is left untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		users := app.orch.UsersList(context.Background())
		fmt.Println(ui.UserTable(users, viper.GetInt("remote.id_ceiling")))
		warnStatus(app, usersync.KeyUsers())
	},
}

var usersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single user",
	Args:  cobra.ExactArgs(1),
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

		user, ok := app.orch.UserByID(context.Background(), id)
		if !ok {
			warnStatus(app, usersync.KeyUser(id))
			fmt.Fprintf(os.Stderr, "Error: user %d unavailable\n", id)
			os.Exit(1)
		}
		fmt.Println(ui.UserDetail(user))
	},
}

var usersPostsCmd = &cobra.Command{
	Use:   "posts <id>",
	Short: "Show a user's posts",
	Args:  cobra.ExactArgs(1),
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
			warnStatus(app, usersync.KeyUser(id))
			fmt.Fprintf(os.Stderr, "Error: user %d unavailable\n", id)
			os.Exit(1)
		}

		posts := app.orch.UserPosts(ctx, id)
		fmt.Println(ui.PostList(user, posts))
		warnStatus(app, usersync.KeyPosts(id))
	},
}

func init() {
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersShowCmd)
	usersCmd.AddCommand(usersPostsCmd)
	rootCmd.AddCommand(usersCmd)
}
