package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"RfpIntel/internal/domain"
)

func newResolveCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <document-id> <kind>",
		Short: "Print a document artifact, computing it on first use",
		Long: `Kinds: coverSheet, pdfContent, complianceMatrix, feasibilityCheck.
A derived artifact is computed once and stored; later calls read it back.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			kind, err := domain.ParseArtifactKind(args[1])
			if err != nil {
				return err
			}

			a, _, err := rt.application(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			content, err := a.Resolver.ResolveByID(cmd.Context(), id, kind)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), content)
			return nil
		},
	}
}

func newAskCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <document-id> <question>...",
		Short: "Answer a question about a document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, _, err := rt.application(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.Documents.GetDocument(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get document %d: %w", id, err)
			}
			answer, err := a.Resolver.Ask(cmd.Context(), doc, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q", raw)
	}
	return id, nil
}
