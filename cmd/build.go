package main

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/docpage/pkg/processor"
)

var buildCmd = &cobra.Command{
	Use:   "build URL...",
	Short: "Fetch pages and convert them to flat ODF with embedded images",
	Long: "Runs fetch for every URL, then opens each rendered page with the Writer HTML " +
		"filter, embeds its images (resolved against the page URL) and saves it.",
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	addDownloadFlags(buildCmd)
	addOfficeFlags(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, urls []string) error {
	d, err := newDownloader(nil)
	if err != nil {
		return err
	}
	p, err := newProcessor()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var sources []processor.Source
	var results []processor.Result
	for _, u := range urls {
		output, err := d.DownloadDocPage(ctx, u)
		if err != nil {
			results = append(results, processor.Result{Source: processor.Source{Path: u}, Err: err})
			continue
		}
		color.Cyan("fetched %s", u)
		sources = append(sources, processor.Source{Path: output, BaseURL: u})
	}

	results = append(results, p.Process(ctx, sources)...)
	return report(results)
}
