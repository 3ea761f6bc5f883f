package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var packsCmd = &cobra.Command{
	Use:   "packs",
	Short: "List installed soundpacks",
	Long:  `Scan the soundpacks directory and list every pack with its id, kind and author.`,
	Args:  cobra.NoArgs,
	RunE:  runPacks,
}

func init() {
	rootCmd.AddCommand(packsCmd)
}

func runPacks(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadSettings()
	if err != nil {
		return err
	}

	lib := soundpackLibrary(cfg)
	metas, err := lib.Scan()
	if err != nil {
		return fmt.Errorf("scanning soundpacks: %w", err)
	}
	if len(metas) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No soundpacks found in %s\n", lib.Root)
		return nil
	}

	// Find max id length for alignment
	maxLen := 0
	for _, m := range metas {
		if len(m.ID) > maxLen {
			maxLen = len(m.ID)
		}
	}

	out := cmd.OutOrStdout()
	for _, m := range metas {
		kind := "keyboard"
		if m.Mouse {
			kind = "mouse"
		}
		switch {
		case m.Err != nil:
			fmt.Fprintf(out, "  %-*s  %-8s  error: %v\n", maxLen, m.ID, "?", m.Err)
		case m.Author != "":
			fmt.Fprintf(out, "  %-*s  %-8s  %s by %s\n", maxLen, m.ID, kind, m.Name, m.Author)
		default:
			fmt.Fprintf(out, "  %-*s  %-8s  %s\n", maxLen, m.ID, kind, m.Name)
		}
	}
	return nil
}
