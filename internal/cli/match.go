package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"faceid/internal/adapter/matcher"
	"faceid/internal/usecase"
)

var (
	matchDescriptor string
	matchJSON       bool
	matchCandidates int
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match face descriptors against enrolled faces",
	Long: `Match one or more descriptors against the enrolled faces. The descriptor
file may hold a single descriptor or a list of them; results keep that order.

Examples:
  faceid match --descriptor probe.json
  faceid match --descriptor probes.json --security high --json`,
	Args: cobra.NoArgs,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().StringVar(&matchDescriptor, "descriptor", "", "JSON file holding the descriptors (required)")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "output as JSON")
	matchCmd.Flags().IntVar(&matchCandidates, "candidates", 0, "also list the N nearest enrolled faces per descriptor")
	addThresholdFlags(matchCmd)
	matchCmd.MarkFlagRequired("descriptor")
}

func runMatch(cmd *cobra.Command, args []string) error {
	threshold, err := resolveThreshold(cmd)
	if err != nil {
		return err
	}

	queries, err := readDescriptors(matchDescriptor)
	if err != nil {
		return err
	}

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	enrollment := newEnrollment(st)
	matchUC := usecase.NewMatchUseCase(enrollment)
	results, err := matchUC.Match(queries, threshold)
	if err != nil {
		return err
	}

	var candidates [][]matcher.Candidate
	if matchCandidates > 0 {
		candidates = matchUC.Candidates(queries, matchCandidates)
	}

	views := make([]usecase.MatchResultView, len(results))
	for i, r := range results {
		views[i] = usecase.NewMatchResultView(i, r)
		if candidates != nil {
			views[i].Candidates = candidates[i]
		}
	}

	out := cmd.OutOrStdout()
	if matchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	if enrollment.Count() == 0 {
		fmt.Fprintln(out, "No faces enrolled; nothing to match against.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tDISTANCE\tCONFIDENCE\tLEVEL")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			i, r.Name, formatDistance(r.Distance),
			matcher.FormatConfidence(r.Confidence), matcher.ConfidenceLevel(r.Confidence))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for i, cs := range candidates {
		fmt.Fprintf(out, "\nNearest to #%d:\n", i)
		for rank, c := range cs {
			fmt.Fprintf(out, "  %d. %s (%s) %s\n", rank+1, c.Name, c.ID, formatDistance(c.Distance))
		}
	}
	fmt.Fprintf(out, "\nThreshold: %.2f\n", threshold)
	return nil
}
