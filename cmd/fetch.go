package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch URL...",
	Short: "Download documentation pages and render their body as HTML",
	Long: "For each page URL, reads the revision meta tag, downloads the node XML " +
		"(cached as <id>.xml) and writes the page body to <name>.html.",
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	addDownloadFlags(fetchCmd)
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, urls []string) error {
	d, err := newDownloader(nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	bar := getProgressBar(len(urls), " Fetching pages")
	failed := 0
	for _, u := range urls {
		output, err := d.DownloadDocPage(ctx, u)
		bar.Add(1)
		if err != nil {
			failed++
			color.Red("\n✗ %s: %v", u, err)
			continue
		}
		color.Green("\n✓ %s -> %s", u, output)
	}
	bar.Finish()

	if failed > 0 {
		return fmt.Errorf("%d of %d pages failed", failed, len(urls))
	}
	return nil
}
