package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newInteractiveCmd(configPath *string) *cobra.Command {
	var speak bool
	var speakOut string
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "ask questions in a loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := context.Background()
			fmt.Println("Ask about your memories. Type \"exit\" to leave.")
			scanner := bufio.NewScanner(os.Stdin)
			prompt := color.New(color.FgCyan, color.Bold)
			for {
				prompt.Print("you> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					break
				}
				resp, err := app.search.Query(ctx, line)
				if err != nil {
					fmt.Printf("%s %v\n", color.RedString("error:"), err)
					continue
				}
				printResponse(resp)
				if speak && resp.Answer != "" {
					if err := speakAnswer(ctx, app, resp.Answer, speakOut); err != nil {
						fmt.Printf("%s %v\n", color.RedString("error:"), err)
					}
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().BoolVar(&speak, "speak", false, "synthesize each answer to an audio file")
	cmd.Flags().StringVar(&speakOut, "speak-out", "answer.mp3", "output path for the spoken answer")
	return cmd
}
