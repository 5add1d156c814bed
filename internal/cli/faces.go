package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"faceid/internal/domain"
)

var (
	listJSON  bool
	statsJSON bool
	clearYes  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled faces",
	Long: `List enrolled faces in enrollment order. With --json the full records,
descriptors included, are written in the format accepted by 'faceid import'.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var removeCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Remove an enrolled face",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all enrolled faces",
	Long: `Remove all enrolled faces. Also resets a store whose schema or embedding
dimension no longer matches the configuration.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

var renameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "Rename an enrolled face",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show enrollment statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(listCmd, removeCmd, clearCmd, renameCmd, statsCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output records as JSON")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "do not ask for confirmation")
	addThresholdFlags(statsCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	faces := newEnrollment(st).List()
	out := cmd.OutOrStdout()

	if listJSON {
		records := make([]domain.Record, len(faces))
		for i, f := range faces {
			records[i] = f.Record()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(faces) == 0 {
		fmt.Fprintln(out, "No faces enrolled.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tENROLLED")
	for _, f := range faces {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.ID, f.Name, f.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runRemove(cmd *cobra.Command, args []string) error {
	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := newEnrollment(st).Remove(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		fmt.Fprint(cmd.OutOrStdout(), "Remove all enrolled faces? [y/N] ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	st, err := openStore(true)
	if err != nil {
		return err
	}
	defer st.Close()

	enrollment := newEnrollment(st)
	count := enrollment.Count()
	if err := enrollment.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d face(s)\n", count)
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	identity, err := newEnrollment(st).Rename(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", identity.ID, identity.Name)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	threshold, err := resolveThreshold(cmd)
	if err != nil {
		return err
	}

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := newEnrollment(st).Stats()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			domain.Stats
			Threshold float64 `json:"threshold"`
		}{stats, threshold})
	}

	fmt.Fprintf(out, "Enrolled faces: %d\n", stats.Count)
	fmt.Fprintf(out, "Storage:        %.2f KB\n", stats.StorageKB)
	fmt.Fprintf(out, "Dimension:      %d\n", stats.Dimension)
	fmt.Fprintf(out, "Threshold:      %.2f\n", threshold)
	fmt.Fprintf(out, "Database:       %s\n", cfg.DBPath(GetRootDir()))
	return nil
}
