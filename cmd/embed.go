package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/docpage/pkg/processor"
)

var embedCmd = &cobra.Command{
	Use:   "embed FILE...",
	Short: "Embed linked images and save as flat ODF",
	Long: "Opens each .fodt or .html file, embeds every linked image, sizes it from its " +
		"pixel dimensions at 96 DPI and stores the result as .fodt (and .pdf with --pdf).",
	Args: cobra.MinimumNArgs(1),
	RunE: runEmbed,
}

func init() {
	addOfficeFlags(embedCmd)
	embedCmd.Flags().String("base-url", "", "URL relative image links resolve against")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, files []string) error {
	p, err := newProcessor()
	if err != nil {
		return err
	}
	baseURL, _ := cmd.Flags().GetString("base-url")

	sources := make([]processor.Source, 0, len(files))
	for _, f := range files {
		sources = append(sources, processor.Source{Path: f, BaseURL: baseURL})
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return report(p.Process(ctx, sources))
}

func report(results []processor.Result) error {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			color.Red("✗ %s: %v", res.Source.Path, res.Err)
			continue
		}
		color.Green("✓ %s -> %s", res.Source.Path, res.FODT)
		if res.PDF != "" {
			color.Green("  %s", res.PDF)
		}
		fmt.Printf("  embedded %d, reused %d, already embedded %d, resized %d, size skipped %d\n",
			res.Report.Embedded, res.Report.Reused, res.Report.AlreadyEmbedded,
			res.Report.Resized, res.Report.SizeSkipped)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}
