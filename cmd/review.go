package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/filtering"
	"github.com/spigell/hh-tailor/internal/record"
)

const (
	PromptApprove          = "Approve"
	PromptReject           = "Reject"
	PromptRejectAndExclude = "Reject and append to exclude file"
	PromptBack             = "back"
	PromptExit             = "exit"
)

var errExit = errors.New("exit requested")

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Walk through tailored resumes waiting for review, best score first",
	Run: func(cmd *cobra.Command, _ []string) {
		review(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func review(cmd *cobra.Command) {
	ctx := context.Background()
	a := mustApplication(ctx, false)
	defer a.Close()

	for {
		queue, err := a.pipeline.ReviewQueue(ctx)
		if err != nil {
			a.logger.Fatal("getting the review queue", zap.Error(err))
		}
		if len(queue) == 0 {
			a.logger.Info("nothing to review")
			return
		}

		rec, err := selectRecord(queue)
		if errors.Is(err, errExit) {
			return
		}
		if err != nil {
			a.logger.Fatal("selecting a record", zap.Error(err))
		}

		if err := a.reviewRecord(ctx, cmd.OutOrStdout(), rec); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			a.logger.Error("reviewing the record", zap.String("record_id", rec.ID), zap.Error(err))
		}
	}
}

func selectRecord(queue []*record.Record) (*record.Record, error) {
	items := make([]string, 0, len(queue)+1)
	for _, rec := range queue {
		items = append(items, reviewLabel(rec))
	}
	items = append(items, PromptExit)

	prompt := promptui.Select{
		Label: fmt.Sprintf("%d tailored resumes are waiting for review", len(queue)),
		Items: items,
		Size:  10,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil, errExit
		}
		return nil, err
	}
	if idx == len(queue) {
		return nil, errExit
	}
	return queue[idx], nil
}

func reviewLabel(rec *record.Record) string {
	verdict := ""
	if rec.Match != nil {
		verdict = string(rec.Match.Verdict)
	}
	title := strings.TrimSpace(strings.Join([]string{rec.Posting.Title, rec.Posting.Company}, " @ "))
	return fmt.Sprintf("%.2f %-10s %s (%s)", rec.Overall(), verdict, strings.Trim(title, " @"), rec.ID)
}

func (a *application) reviewRecord(ctx context.Context, out io.Writer, rec *record.Record) error {
	printReview(out, rec)

	prompt := promptui.Select{
		Label: "Decision",
		Items: []string{PromptApprove, PromptReject, PromptRejectAndExclude, PromptBack},
	}
	_, choice, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return errExit
		}
		return err
	}

	switch choice {
	case PromptApprove:
		if _, err := a.pipeline.Approve(ctx, rec.ID, ""); err != nil {
			return err
		}
		a.logger.Info("approved", zap.String("record_id", rec.ID))
	case PromptReject:
		if _, err := a.pipeline.Reject(ctx, rec.ID, ""); err != nil {
			return err
		}
		a.logger.Info("rejected", zap.String("record_id", rec.ID))
	case PromptRejectAndExclude:
		path := viper.GetString("exclude-file")
		if path == "" {
			return errors.New("exclude file is not set")
		}
		if _, err := a.pipeline.Reject(ctx, rec.ID, "rejected and excluded"); err != nil {
			return err
		}
		if err := filtering.AppendExcludeFile(path, filtering.ExcludedRecord{ID: rec.ID, Reason: "rejected in review"}); err != nil {
			return fmt.Errorf("appending to exclude file: %w", err)
		}
		a.logger.Info("rejected and excluded", zap.String("record_id", rec.ID), zap.String("path", path))
	case PromptBack:
	}
	return nil
}

func printReview(out io.Writer, rec *record.Record) {
	fmt.Fprintf(out, "\n%s\n", reviewLabel(rec))
	if rec.Match != nil {
		fmt.Fprintln(out, rec.Match.Summary())
	}

	outcome, ok := rec.LastSuccess()
	if !ok {
		fmt.Fprintln(out, "no successful attempt recorded")
		return
	}

	fmt.Fprintf(out, "\n--- resume (%s, attempt %d) ---\n%s\n", outcome.Variant, outcome.Attempt, outcome.Resume)
	fmt.Fprintf(out, "\n--- cover letter ---\n%s\n", outcome.CoverLetter)
	if len(outcome.Changes) > 0 {
		fmt.Fprintln(out, "\n--- changes ---")
		for _, c := range outcome.Changes {
			fmt.Fprintf(out, "- %s: %s %s\n", c.Section, c.Action, c.Detail)
		}
	}
	fmt.Fprintln(out)
}
