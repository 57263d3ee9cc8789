package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/codehunt/internal/challenge"
	"github.com/abhisek/codehunt/internal/codecontext"
	"github.com/abhisek/codehunt/internal/llm"
)

var previewCmd = &cobra.Command{
	Use:   "preview [roots...]",
	Short: "Preview LLM-generated challenges (no session, no database)",
	Long: `Generate challenges for the given directories and print them.

This is a stateless developer tool: no editor, no scoring, no events.
Useful for evaluating challenge quality and prompt changes.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().Int("count", 3, "Number of challenges to generate")
	previewCmd.Flags().Int("level", 1, "Player level the difficulty is chosen for")
}

func runPreview(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	level, _ := cmd.Flags().GetInt("level")
	if count < 1 {
		return fmt.Errorf("invalid count %d: must be at least 1", count)
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, closeLog, err := setupLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	log = log.Level(zerolog.WarnLevel)

	ctx := cmd.Context()
	cc, err := codecontext.NewExtractor(cfg.ExtractOptions(), log).Extract(ctx, cfg.Roots)
	if err != nil {
		return err
	}

	// No EventRepo: request logging skipped.
	provider, err := llm.NewProviderFromEnv(ctx, nil, log)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	genCfg := challenge.DefaultConfig()
	genCfg.Purpose = llm.PurposePreview
	gen := challenge.New(provider, genCfg)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Digest: %d files, %s\n", len(cc.Files), cc.PrimaryLanguage)
	fmt.Fprintf(out, "Generating %d %s challenges...\n\n", count, challenge.DifficultyForLevel(level))

	var ok int
	for i := 1; i <= count; i++ {
		c, err := gen.Generate(ctx, challenge.GenerateInput{Context: cc, Level: level})
		if err != nil {
			fmt.Fprintf(out, "Challenge %d: generation failed: %v\n\n", i, err)
			continue
		}
		ok++
		printChallenge(out, i, count, c)
	}

	fmt.Fprintf(out, "── Summary: %d/%d generated ──\n", ok, count)
	return nil
}

func printChallenge(out io.Writer, i, count int, c *challenge.Challenge) {
	fmt.Fprintf(out, "── Challenge %d/%d [%s, %s, %d pts] ──\n", i, count, c.Kind, c.Difficulty, c.Points)
	fmt.Fprintln(out, c.Title)
	fmt.Fprintln(out, c.Description)
	fmt.Fprintf(out, "Target:   %s", c.Target.FilePath)
	if c.Target.LineNumber > 0 {
		fmt.Fprintf(out, ":%d", c.Target.LineNumber)
	}
	fmt.Fprintln(out)
	if c.Target.Pattern != "" {
		fmt.Fprintf(out, "Pattern:  %s\n", c.Target.Pattern)
	}
	fmt.Fprintf(out, "Expected: %s\n", c.ExpectedAction)
	for j, h := range c.Hints {
		fmt.Fprintf(out, "Hint %d:   %s\n", j+1, h)
	}
	fmt.Fprintln(out, strings.Repeat("─", 40))
	fmt.Fprintln(out)
}
