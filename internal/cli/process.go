package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"RfpIntel/internal/usecase"
)

func newProcessCommand(rt *runtime) *cobra.Command {
	var (
		folder string
		all    bool
		async  bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Ingest new files from object storage",
		Long: `Discover files not yet registered and ingest the first one. Run repeatedly
until it reports zero remaining, or pass --all to drain the backlog in one go.
With --async every new file is submitted as a parse job finished by the webhook.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all && async {
				return errors.New("--all and --async are mutually exclusive")
			}

			a, cfg, err := rt.application(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if folder == "" {
				folder = cfg.Storage.DefaultFolder
			}
			out := cmd.OutOrStdout()

			switch {
			case async:
				candidates, err := a.Pipeline.Discover(cmd.Context(), folder)
				if err != nil {
					return err
				}
				var errs []error
				for _, file := range candidates {
					jobID, err := a.Pipeline.Submit(cmd.Context(), file)
					if err != nil {
						errs = append(errs, err)
						fmt.Fprintf(out, "failed %s: %v\n", file.Name, err)
						continue
					}
					fmt.Fprintf(out, "submitted %s as job %s\n", file.Name, jobID)
				}
				fmt.Fprintf(out, "%d file(s) submitted\n", len(candidates)-len(errs))
				return errors.Join(errs...)

			case all:
				a.Queue.Subscribe(func(p usecase.Progress) {
					fmt.Fprintln(out, describe(usecase.Result{
						File:      &p.File,
						Processed: p.Document,
						Remaining: p.Remaining,
						Skipped:   p.Skipped,
						Err:       p.Err,
					}))
				})
				summary, err := a.Queue.Drain(cmd.Context(), folder)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "run %s: %d processed, %d failed, %d skipped\n",
					summary.RunID, summary.Processed, summary.Failed, summary.Skipped)
				return nil

			default:
				res, err := a.Pipeline.RunOnce(cmd.Context(), folder)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, describe(res))
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "storage folder to scan (default from config)")
	cmd.Flags().BoolVar(&all, "all", false, "drain every new file")
	cmd.Flags().BoolVar(&async, "async", false, "submit async parse jobs instead of parsing inline")
	return cmd
}

func describe(res usecase.Result) string {
	switch {
	case res.File == nil:
		return "no new files to process"
	case res.Skipped:
		return fmt.Sprintf("skipped %s, %d remaining", res.File.Name, res.Remaining)
	case res.Err != nil:
		return fmt.Sprintf("failed %s: %v, %d remaining", res.File.Name, res.Err, res.Remaining)
	default:
		return fmt.Sprintf("processed %s as document %d, %d remaining", res.File.Name, res.Processed.ID, res.Remaining)
	}
}
