package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dianehq/diane/internal/model"
)

func newQueryCmd(configPath *string) *cobra.Command {
	var speak bool
	var speakOut string
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "ask a question about your memories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := context.Background()
			question := strings.Join(args, " ")
			resp, err := app.search.Query(ctx, question)
			if err != nil {
				return err
			}
			printResponse(resp)

			if speak {
				return speakAnswer(ctx, app, resp.Answer, speakOut)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&speak, "speak", false, "synthesize the answer to an audio file")
	cmd.Flags().StringVar(&speakOut, "speak-out", "answer.mp3", "output path for the spoken answer")
	return cmd
}

func speakAnswer(ctx context.Context, app *app, answer, out string) error {
	if !app.manager.CanSpeak() {
		return fmt.Errorf("no speech provider configured")
	}
	audio, err := app.manager.Speak(ctx, answer)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, audio, 0o644); err != nil {
		return err
	}
	fmt.Printf("%s spoken answer written to %s\n", color.CyanString("audio:"), out)
	return nil
}

func printResponse(resp *model.QueryResponse) {
	fmt.Println(color.New(color.Bold).Sprint(resp.Answer))
	if resp.Count != nil {
		for kw, n := range resp.Count.Counts {
			fmt.Printf("  %s: %d\n", kw, n)
		}
		if len(resp.Count.MatchingDates) > 0 {
			fmt.Printf("  %s %s\n", color.YellowString("dates:"), strings.Join(resp.Count.MatchingDates, ", "))
		}
	}
	for _, src := range resp.Sources {
		fmt.Printf("  %s %s: %s\n", color.YellowString("source"), src.RecordingDate, src.Snippet)
	}
}
