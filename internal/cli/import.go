package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"faceid/internal/adapter/fs"
	"faceid/internal/usecase"
)

var (
	importIncludes []string
	importExcludes []string
)

var importCmd = &cobra.Command{
	Use:   "import PATH",
	Short: "Bulk-enroll faces from JSON record files",
	Long: `Import enrolled faces from JSON files under PATH (or a single file). Each
file holds one record object or an array of records, as written by
'faceid list --json'. Records are enrolled under fresh ids; duplicate names
and malformed records are reported and skipped.

Examples:
  faceid import backup.json
  faceid import ./people --include "**/*.face.json"`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringSliceVar(&importIncludes, "include", []string{"**/*.json"}, "glob patterns of files to import")
	importCmd.Flags().StringSliceVar(&importExcludes, "exclude", []string{"**/.faceid/**"}, "glob patterns of files to skip")
}

func runImport(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	importUC := usecase.NewImportUseCase(newEnrollment(st), fs.NewWalker(importIncludes, importExcludes), logger)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	progress := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Importing[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
		}
		bar.Set(done)
	}

	result, err := importUC.Import(cmd.Context(), path, progress)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nImport complete:\n")
	fmt.Fprintf(out, "  Files read: %d\n", result.FilesRead)
	fmt.Fprintf(out, "  Enrolled:   %d\n", result.Enrolled)
	fmt.Fprintf(out, "  Skipped:    %d\n", result.Skipped)

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
	}
	return nil
}
