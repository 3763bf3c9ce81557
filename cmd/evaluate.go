package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/logger"
	"github.com/spigell/hh-tailor/internal/scoring"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [posting-file]",
	Short: "Score a job posting against the profile and store the result",
	Long: "Score a job posting against the profile and store the result.\n" +
		"The posting description is read from the file, or from stdin when the file is omitted or '-'.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		evaluate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("id", "", "posting id, a random one is generated when unset")
	evaluateCmd.Flags().String("title", "", "job title")
	evaluateCmd.Flags().String("company", "", "company name")
	evaluateCmd.Flags().String("level", "", "role level: standard, senior, lead or principal")
}

func evaluate(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	a := mustApplication(ctx, false)
	defer a.Close()

	posting, err := postingFromFlags(cmd, args)
	if err != nil {
		a.logger.Fatal("reading the posting", zap.Error(err))
	}

	rec, err := a.pipeline.Evaluate(ctx, a.config.Profile, posting)
	if err != nil {
		if scoring.IsValidation(err) {
			a.logger.Fatal("the posting can not be scored", zap.Error(err))
		}
		a.logger.Fatal("evaluating the posting", zap.Error(err))
	}

	a.logger.Info("posting scored",
		append(logger.RecordFields(rec.ID, rec.Posting.Company, string(rec.Status)),
			zap.Float64("overall", rec.Overall()),
			zap.String("verdict", string(rec.Match.Verdict)),
			zap.Bool("meets_threshold", rec.Match.Meets(a.pipeline.Config().DefaultThreshold)),
		)...,
	)
	a.logger.Info(rec.Match.Summary())

	if err := printJSON(cmd.OutOrStdout(), rec.Match); err != nil {
		a.logger.Fatal("printing the match", zap.Error(err))
	}
}

func postingFromFlags(cmd *cobra.Command, args []string) (scoring.Posting, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return scoring.Posting{}, err
	}
	if len(data) == 0 {
		return scoring.Posting{}, errors.New("posting description is empty")
	}

	flags := cmd.Flags()
	id, _ := flags.GetString("id")
	title, _ := flags.GetString("title")
	company, _ := flags.GetString("company")
	rawLevel, _ := flags.GetString("level")

	level, err := scoring.ParseRoleLevel(rawLevel)
	if err != nil {
		return scoring.Posting{}, err
	}

	return scoring.Posting{
		ID:          id,
		Title:       title,
		Company:     company,
		Description: string(data),
		Level:       level,
	}, nil
}

func printJSON(w io.Writer, v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = fmt.Fprintln(w, string(pretty))
	return err
}
