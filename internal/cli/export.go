package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"RfpIntel/internal/domain"
	"RfpIntel/internal/infrastructure/export"
)

func newExportCommand(rt *runtime) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export <document-id>",
		Short: "Export a document cover sheet as xlsx or markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if format != "xlsx" && format != "md" {
				return fmt.Errorf("unsupported format %q (want xlsx or md)", format)
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
			raw, err := a.Resolver.Resolve(cmd.Context(), doc, domain.KindCoverSheet)
			if err != nil {
				return err
			}

			var body []byte
			switch format {
			case "xlsx":
				body, err = export.CoverSheetXLSX(raw)
				if out == "" {
					out = strings.TrimSuffix(doc.Name, ".pdf") + "-cover-sheet.xlsx"
				}
			default:
				var md string
				md, err = export.CoverSheetMarkdown(raw)
				body = []byte(md)
			}
			if err != nil {
				return err
			}

			if out == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "xlsx", "xlsx or md")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (md defaults to stdout)")
	return cmd
}
