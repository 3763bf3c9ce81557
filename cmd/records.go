package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/logger"
	"github.com/spigell/hh-tailor/internal/pipeline"
	"github.com/spigell/hh-tailor/internal/record"
)

type transitionFunc func(p *pipeline.Pipeline, ctx context.Context, id, reason string) (*record.Record, error)

// transitionCommand builds one of the operator commands moving a record along the lifecycle.
func transitionCommand(use, short, done string, move transitionFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <record-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			a := mustApplication(ctx, false)
			defer a.Close()

			reason, _ := cmd.Flags().GetString("reason")
			rec, err := move(a.pipeline, ctx, args[0], reason)
			if err != nil {
				a.logger.Fatal(use, zap.String("record_id", args[0]), zap.Error(err))
			}
			a.logger.Info(done, logger.RecordFields(rec.ID, rec.Posting.Company, string(rec.Status))...)
		},
	}
	cmd.Flags().String("reason", "", "reason stored in the activity log")
	return cmd
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List records, optionally with the given status",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()
		a := mustApplication(ctx, false)
		defer a.Close()

		raw, _ := cmd.Flags().GetString("status")
		var (
			records []*record.Record
			err     error
		)
		if raw == "" {
			records, err = a.store.List(ctx)
		} else {
			status, perr := record.ParseStatus(raw)
			if perr != nil {
				a.logger.Fatal("parsing the status", zap.Error(perr))
			}
			records, err = a.pipeline.ListByStatus(ctx, status)
		}
		if err != nil {
			a.logger.Fatal("listing records", zap.Error(err))
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tSCORE\tVERDICT\tCOMPANY\tTITLE\tUPDATED")
		for _, rec := range records {
			if rec.Deleted && raw == "" {
				continue
			}
			verdict := ""
			if rec.Match != nil {
				verdict = string(rec.Match.Verdict)
			}
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\t%s\n",
				rec.ID, rec.Status, rec.Overall(), verdict, rec.Posting.Company, rec.Posting.Title,
				rec.UpdatedAt.Format(time.DateTime))
		}
		w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <record-id>",
	Short: "Show the activity log and tailoring attempts of a record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a := mustApplication(ctx, false)
		defer a.Close()

		rec, err := a.pipeline.Record(ctx, args[0])
		if err != nil {
			a.logger.Fatal("loading the record", zap.String("record_id", args[0]), zap.Error(err))
		}

		out := cmd.OutOrStdout()
		// With json logging the whole record is printed for exporters.
		if viper.GetBool("json") {
			if err := printJSON(out, rec); err != nil {
				a.logger.Fatal("printing the record", zap.Error(err))
			}
			return
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "AT\tFROM\tTO\tREASON")
		for _, c := range rec.History {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.At.Format(time.DateTime), c.From, c.To, c.Reason)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "ATTEMPT\tRESULT\tVARIANT\tTOKENS\tSTARTED\tERROR")
		for _, o := range rec.Outcomes {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d/%d\t%s\t%s\n",
				o.Attempt, outcomeResult(o), o.Variant, o.Usage.PromptTokens, o.Usage.OutputTokens,
				o.StartedAt.Format(time.DateTime), o.Error)
		}
		w.Flush()
	},
}

func outcomeResult(o record.Outcome) string {
	switch {
	case o.Success:
		return "success"
	case o.Cancelled:
		return "cancelled"
	case o.IntegrityViolation:
		return "integrity"
	case o.ErrorKind != "":
		return o.ErrorKind
	}
	return "failed"
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print record counts by status, the average score and token usage",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()
		a := mustApplication(ctx, false)
		defer a.Close()

		stats, err := a.pipeline.Stats(ctx)
		if err != nil {
			a.logger.Fatal("collecting stats", zap.Error(err))
		}
		if err := printJSON(cmd.OutOrStdout(), stats); err != nil {
			a.logger.Fatal("printing stats", zap.Error(err))
		}
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <record-id>",
	Short: "Mark a tailoring attempt left behind by a stopped process as cancelled",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		a := mustApplication(ctx, false)
		defer a.Close()

		if err := a.pipeline.Cancel(ctx, args[0]); err != nil {
			a.logger.Fatal("cancelling", zap.String("record_id", args[0]), zap.Error(err))
		}
		a.logger.Info("cancelled", zap.String("record_id", args[0]))
	},
}

func init() {
	rootCmd.AddCommand(
		transitionCommand("approve", "Approve a tailored resume", "approved", (*pipeline.Pipeline).Approve),
		transitionCommand("reject", "Reject a tailored resume", "rejected", (*pipeline.Pipeline).Reject),
		transitionCommand("applied", "Mark an approved record as submitted", "marked as applied", (*pipeline.Pipeline).MarkApplied),
		transitionCommand("delete", "Soft-delete a record, keeping its history", "deleted", (*pipeline.Pipeline).Delete),
		statusCmd,
		historyCmd,
		statsCmd,
		cancelCmd,
	)

	statusCmd.Flags().StringP("status", "s", "", "only records with this status")
}
