package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/userdeck/userdeck/internal/types"
)

// exportDoc is the snapshot reshaped for export. TOML cannot encode a
// top-level array or integer map keys, so posts are keyed by the
// stringified user id for all formats.
type exportDoc struct {
	Users        []types.User            `json:"users" yaml:"users" toml:"users"`
	SelectedUser *types.User             `json:"selectedUser,omitempty" yaml:"selectedUser,omitempty" toml:"selectedUser,omitempty"`
	PostsByUser  map[string][]types.Post `json:"postsByUser,omitempty" yaml:"postsByUser,omitempty" toml:"postsByUser,omitempty"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump the cached snapshot",
	Long: `Dump the locally cached snapshot to stdout or a file.

The export reads only the cache; no remote call is made. Supported
formats: json, yaml, toml.`,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")

		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		snap := app.query.Snapshot()
		doc := exportDoc{
			Users:        snap.Users,
			SelectedUser: snap.SelectedUser,
			PostsByUser:  make(map[string][]types.Post, len(snap.PostsByUserID)),
		}
		for id, posts := range snap.PostsByUserID {
			doc.PostsByUser[fmt.Sprintf("%d", id)] = posts
		}

		var out io.Writer = os.Stdout
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			out = f
		}

		if err := writeExport(out, format, doc); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// writeExport encodes the document in the requested format.
func writeExport(w io.Writer, format string, doc exportDoc) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(doc)
	case "toml":
		return toml.NewEncoder(w).Encode(doc)
	default:
		return fmt.Errorf("unknown format %q (want json, yaml or toml)", format)
	}
}

func init() {
	exportCmd.Flags().String("format", "json", "output format: json, yaml or toml")
	exportCmd.Flags().String("out", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
