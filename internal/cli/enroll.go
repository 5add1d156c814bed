package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	enrollDescriptor string
	enrollImage      string
)

var enrollCmd = &cobra.Command{
	Use:   "enroll NAME",
	Short: "Enroll a named face",
	Long: `Enroll a face under NAME, from either a JSON descriptor file or an image
run through the configured extractor. The image must contain exactly one face.

Examples:
  faceid enroll Alice --descriptor alice.json
  faceid enroll "Bob Smith" --image bob.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
	enrollCmd.Flags().StringVar(&enrollDescriptor, "descriptor", "", "JSON file holding the face descriptor")
	enrollCmd.Flags().StringVar(&enrollImage, "image", "", "image file to extract the face from")
	enrollCmd.MarkFlagsMutuallyExclusive("descriptor", "image")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	var embedding []float32
	switch {
	case enrollDescriptor != "":
		descriptors, err := readDescriptors(enrollDescriptor)
		if err != nil {
			return err
		}
		if len(descriptors) != 1 {
			return fmt.Errorf("descriptor file holds %d descriptors; enrollment needs exactly one", len(descriptors))
		}
		embedding = descriptors[0]
	case enrollImage != "":
		ext, err := newExtractor(cmd.Context())
		if err != nil {
			return err
		}
		embedding, err = detectSingleFace(cmd.Context(), ext, enrollImage)
		if err != nil {
			return err
		}
	default:
		return errors.New("one of --descriptor or --image is required")
	}

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	identity, err := newEnrollment(st).Enroll(args[0], embedding)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %q as %s\n", identity.Name, identity.ID)
	return nil
}
