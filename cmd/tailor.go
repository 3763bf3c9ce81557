package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/filtering"
	"github.com/spigell/hh-tailor/internal/logger"
	"github.com/spigell/hh-tailor/internal/pipeline"
	"github.com/spigell/hh-tailor/internal/record"
	"github.com/spigell/hh-tailor/internal/scoring"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor [record-id...]",
	Short: "Tailor the resume and write a cover letter for scored postings",
	Run: func(cmd *cobra.Command, args []string) {
		tailor(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(tailorCmd)

	tailorCmd.Flags().BoolP("all", "a", false, "tailor every scored record that passes the filters")
	tailorCmd.Flags().StringP("resume", "r", "", "resume variant name, the first configured one by default")
	tailorCmd.Flags().Float64P("threshold", "t", 0, "minimum overall score, the configured default unless set")
	tailorCmd.Flags().String("level", "", "override the role level of the postings")
}

func tailor(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	all, _ := cmd.Flags().GetBool("all")
	if all == (len(args) > 0) {
		cmd.PrintErrln("pass record ids or --all")
		os.Exit(2)
	}

	a := mustApplication(ctx, true)
	defer a.Close()

	name, _ := cmd.Flags().GetString("resume")
	variant, err := a.variant(name)
	if err != nil {
		a.logger.Fatal("selecting the resume", zap.Error(err))
	}

	var threshold *float64
	if cmd.Flags().Changed("threshold") {
		v, _ := cmd.Flags().GetFloat64("threshold")
		threshold = &v
	}
	rawLevel, _ := cmd.Flags().GetString("level")
	var level scoring.RoleLevel
	if rawLevel != "" {
		if level, err = scoring.ParseRoleLevel(rawLevel); err != nil {
			a.logger.Fatal("parsing the role level", zap.Error(err))
		}
	}

	var records []*record.Record
	if all {
		records, err = a.shortlist(ctx, threshold)
	} else {
		records, err = a.records(ctx, args)
	}
	if err != nil {
		a.logger.Fatal("selecting records", zap.Error(err))
	}
	if len(records) == 0 {
		a.logger.Info("nothing to tailor")
		return
	}

	reqs := make([]pipeline.Request, 0, len(records))
	for _, rec := range records {
		reqs = append(reqs, pipeline.Request{
			RecordID:  rec.ID,
			Posting:   rec.Posting,
			Profile:   a.config.Profile,
			Variant:   variant,
			Level:     level,
			Threshold: threshold,
		})
	}

	a.logger.Info("starting tailoring", zap.Int("count", len(reqs)), zap.String("resume", variant.Name))

	failed := 0
	for _, res := range a.pipeline.TailorAll(ctx, reqs) {
		fields := logger.RecordFields(res.RecordID, "", "")
		switch {
		case res.Err == nil:
			a.logger.Info("tailored, waiting for review",
				append(fields, logger.Attempt(res.Outcome.Attempt))...)
		case errors.Is(res.Err, pipeline.ErrThresholdNotMet):
			a.logger.Info("skipped, score is below the threshold", append(fields, zap.Error(res.Err))...)
		default:
			failed++
			a.logger.Error("tailoring failed", append(fields, zap.Error(res.Err))...)
		}
	}

	if failed > 0 {
		a.logger.Warn("some records were not tailored", zap.Int("failed", failed))
	}
}

func (a *application) records(ctx context.Context, ids []string) ([]*record.Record, error) {
	records := make([]*record.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := a.pipeline.Record(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// shortlist runs the tailorable records through the configured filters.
func (a *application) shortlist(ctx context.Context, threshold *float64) ([]*record.Record, error) {
	minimum := a.pipeline.Config().DefaultThreshold
	if threshold != nil {
		minimum = *threshold
	}

	var records []*record.Record
	for _, status := range record.Statuses() {
		if !status.Tailorable() {
			continue
		}
		batch, err := a.pipeline.ListByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}

	steps := []filtering.Filter{
		filtering.NewStatus(),
		filtering.NewThreshold(minimum),
		filtering.NewExcludedCompanies(a.config.Exclude.Companies),
		filtering.NewExcludeFile(viper.GetString("exclude-file")),
	}
	if len(a.config.Exclude.Companies) == 0 {
		filtering.DisableByName(steps, "companies", "no companies configured")
	}
	if viper.GetString("exclude-file") == "" {
		filtering.DisableByName(steps, "exclude_file", "exclude file is not set")
	}

	for _, status := range filtering.Describe(steps) {
		a.logger.Debug("shortlist filter",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	left, _, err := filtering.Run(ctx, filtering.Deps{Logger: a.logger}, steps, records)
	return left, err
}
