package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petems/keyclack/internal/soundpack"
)

var validateCmd = &cobra.Command{
	Use:   "validate <id>",
	Short: "Check a soundpack's timing table against its audio",
	Long: `Decode a soundpack and check every interval in its timing table against the
length of the audio. Intervals that start past the end of the audio are
errors; intervals that run past it are warnings. Exits non-zero on errors.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var errValidationFailed = errors.New("validation failed")

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadSettings()
	if err != nil {
		return err
	}

	lib := soundpackLibrary(cfg)
	pack, err := lib.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading soundpack: %w", err)
	}

	var buf *soundpack.Buffer
	src, err := pack.SourcePath()
	if err == nil {
		buf, err = soundpack.Decode(src)
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "audio: %v\n", err)
	}

	report := soundpack.Validate(pack, buf)
	printReport(cmd, pack, report)

	if err != nil || !report.OK() {
		return errValidationFailed
	}
	return nil
}

func printReport(cmd *cobra.Command, pack *soundpack.Pack, r *soundpack.Report) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s (%s)\n", pack.Name, pack.ID)
	fmt.Fprintf(out, "  keys:     %d\n", r.Keys)
	if r.DurationMs > 0 {
		fmt.Fprintf(out, "  duration: %.1fms\n", r.DurationMs)
	}

	for _, issue := range r.Errors {
		fmt.Fprintf(out, "  error:    %s\n", issue)
	}
	for _, issue := range r.Warnings {
		fmt.Fprintf(out, "  warning:  %s\n", issue)
	}
	if r.OK() && len(r.Warnings) == 0 {
		fmt.Fprintln(out, "  ok")
	}
}
