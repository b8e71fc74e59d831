package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jiyoung0219/doc2plan-coach/internal/coach"
	"github.com/Jiyoung0219/doc2plan-coach/internal/docai"
)

var runCmd = &cobra.Command{
	Use:   "run <document.pdf>",
	Short: "Run the workflow once on a local document",
	Long: "Extracts the requirements of one document and prints them. With\n" +
		"--coach the matching coaching plan follows; with --review-file the\n" +
		"draft in that file is reviewed against the assignment criteria.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd, false)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		kindName, _ := cmd.Flags().GetString("kind")
		kind, err := coach.ParseSchemaKind(kindName)
		if err != nil {
			return err
		}
		withParse, _ := cmd.Flags().GetBool("parse")
		withCoach, _ := cmd.Flags().GetBool("coach")
		teamSize, _ := cmd.Flags().GetInt("team-size")
		duration, _ := cmd.Flags().GetString("duration")
		reviewFile, _ := cmd.Flags().GetString("review-file")

		var draft string
		if reviewFile != "" {
			if kind != coach.Assignment {
				return errors.New("--review-file needs --kind assignment")
			}
			b, err := os.ReadFile(reviewFile)
			if err != nil {
				return fmt.Errorf("read draft: %w", err)
			}
			draft = string(b)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		doc := docai.Document{Filename: filepath.Base(args[0]), Bytes: data}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		d, err := buildDeps(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer d.Close(logger)

		var st coach.State
		out := cmd.OutOrStdout()

		if withParse {
			if _, err := step(d.orch.RunParse(ctx, &st, doc)); err != nil {
				return fmt.Errorf("parse: %w", err)
			}
			section(out, "Parsed document", st.ParsedText)
		}

		res, err := step(d.orch.RunExtract(ctx, &st, kind, doc))
		if err != nil {
			return fmt.Errorf("extract: %w", err)
		}
		if fb := res.Fallback; fb != nil {
			logger.Warn("structured extraction failed, used chat extraction",
				"cause", fb.Cause, "reparsed", fb.Reparsed)
		}
		section(out, "Extracted "+kind.String(), st.Slot(kind).Display())

		if withCoach {
			ck, _ := coach.ParseCoachKind(kind.String())
			res, err := step(d.orch.RunCoaching(ctx, &st, ck, coach.ProjectParams{
				TeamSize: teamSize,
				Duration: duration,
			}))
			if err != nil {
				return fmt.Errorf("coach: %w", err)
			}
			section(out, "Coaching", res.Text)
		}

		if draft != "" {
			res, err := step(d.orch.RunReview(ctx, &st, draft))
			if err != nil {
				return fmt.Errorf("review: %w", err)
			}
			section(out, "Review", res.Text)
		}
		return nil
	},
}

// step turns a validation notice into an error.
func step(out coach.Outcome, err error) (coach.Outcome, error) {
	if err != nil {
		return out, err
	}
	if out.Notice != "" {
		return out, errors.New(out.Notice)
	}
	return out, nil
}

func section(w io.Writer, title, body string) {
	fmt.Fprintf(w, "== %s ==\n%s\n\n", title, strings.TrimRight(body, "\n"))
}

func init() {
	runCmd.Flags().StringP("kind", "k", "assignment", "Document kind: assignment or project")
	runCmd.Flags().Bool("parse", false, "Parse the document first and print the result")
	runCmd.Flags().Bool("coach", false, "Print the coaching plan after extraction")
	runCmd.Flags().Int("team-size", coach.DefaultTeamSize, "Team size for project coaching (2-10)")
	runCmd.Flags().String("duration", "", "Project duration, e.g. \"6 weeks\" (default per locale)")
	runCmd.Flags().String("review-file", "", "Review the draft in this file (assignment only)")
}
