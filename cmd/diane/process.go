package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newProcessCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <file-or-dir> [more files...]",
		Short: "transcribe and index audio recordings or text notes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := context.Background()
			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				if info.IsDir() {
					count, err := app.ingest.ProcessDir(ctx, path)
					if err != nil {
						return err
					}
					fmt.Printf("%s processed %d file(s) from %s\n", color.GreenString("ok:"), count, path)
					continue
				}
				item, err := app.ingest.ProcessFile(ctx, path)
				if err != nil {
					return err
				}
				fmt.Printf("%s %s -> %s (%s, %d words)\n",
					color.GreenString("ok:"),
					path,
					item.ID,
					item.RecordingDate.Format("2006-01-02"),
					item.WordCount,
				)
			}
			return nil
		},
	}
	return cmd
}
