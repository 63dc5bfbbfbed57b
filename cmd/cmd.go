package main

import (
	"log/slog"
	"net/http"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/xhad/docpage/pkg/fodt"
	"github.com/xhad/docpage/pkg/processor"
	"github.com/xhad/docpage/pkg/scraper"
)

// Flags shared by the subcommands. A flag only overrides the config file when
// it was set explicitly.
var (
	flagDir       string
	flagSkip      bool
	flagOutputDir string
	flagPDF       bool
	flagFixAll    bool
)

func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagDir, "dir", "d", "", "Directory for cached XML and rendered HTML")
	cmd.Flags().BoolVar(&flagSkip, "skip-downloads", false, "Reuse previously rendered pages without fetching")
}

func addOfficeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagOutputDir, "out", "o", "", "Output directory (default: next to the source)")
	cmd.Flags().BoolVar(&flagPDF, "pdf", false, "Also export PDF through soffice")
	cmd.Flags().BoolVar(&flagFixAll, "fix-embedded", false, "Also resize images that were already embedded")
}

func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Downloader.Dir = flagDir
	}
	if flags.Changed("skip-downloads") {
		cfg.Downloader.SkipDownloads = flagSkip
	}
	if flags.Changed("out") {
		cfg.Office.OutputDir = flagOutputDir
	}
	if flags.Changed("pdf") {
		cfg.Office.ExportPDF = flagPDF
	}
	if flags.Changed("fix-embedded") {
		cfg.Office.FixEmbedded = flagFixAll
	}
}

func newDownloader(onProgress func(string)) (*scraper.Downloader, error) {
	pattern, err := cfg.CompiledRevisionPattern()
	if err != nil {
		return nil, err
	}
	return scraper.NewWithConfig(scraper.DownloaderConfig{
		Dir:             cfg.Downloader.Dir,
		SkipDownloads:   cfg.Downloader.SkipDownloads,
		Timeout:         cfg.Downloader.Timeout,
		UserAgent:       cfg.Downloader.UserAgent,
		RateLimit:       cfg.Downloader.RateLimit,
		RevisionPattern: pattern,
		Logger:          slog.Default(),
		OnProgress:      onProgress,
	})
}

func newProcessor() (*processor.Processor, error) {
	loader := fodt.NewLoader(fodt.LoaderConfig{
		HTTPClient: &http.Client{Timeout: cfg.Downloader.Timeout},
		UserAgent:  cfg.Downloader.UserAgent,
		Exporter:   &fodt.SofficeExporter{Path: cfg.Office.SofficePath, Logger: slog.Default()},
		Logger:     slog.Default(),
	})
	return processor.NewWithConfig(processor.ProcessorConfig{
		Loader:      loader,
		OutputDir:   cfg.Office.OutputDir,
		ExportPDF:   cfg.Office.ExportPDF,
		FixEmbedded: cfg.Office.FixEmbedded,
		Logger:      slog.Default(),
	})
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
