package fodt

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/xhad/docpage/internal/atomicfile"
	"github.com/xhad/docpage/pkg/office"
)

// Exporter renders a flat ODF file to PDF.
type Exporter interface {
	Export(ctx context.Context, src, dst string) error
}

// SofficeExporter converts with a headless LibreOffice. Each run uses a
// throwaway user profile so it does not collide with a running instance.
type SofficeExporter struct {
	Path   string
	Logger *slog.Logger
}

func (e *SofficeExporter) Export(ctx context.Context, src, dst string) error {
	bin := e.Path
	if bin == "" {
		bin = "soffice"
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	work, err := os.MkdirTemp("", "docpage-soffice-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(work)

	outDir := filepath.Join(work, "out")
	args := sofficeArgs(filepath.Join(work, "profile"), outDir, src)
	if err := runSoffice(ctx, bin, args, logger); err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".pdf"
	if err := copyResult(filepath.Join(outDir, name), dst); err != nil {
		return err
	}
	logger.Info("exported PDF", "source", src, "output", dst)
	return nil
}

func sofficeArgs(profileDir, outDir, src string) []string {
	return []string{
		"-env:UserInstallation=" + fileURLString(profileDir),
		"--headless",
		"--norestore",
		"--convert-to", "pdf:" + office.FilterWriterPDF,
		"--outdir", outDir,
		src,
	}
}

func fileURLString(p string) string {
	u, err := toURL(p)
	if err != nil {
		return "file://" + filepath.ToSlash(p)
	}
	return u.String()
}

func runSoffice(ctx context.Context, bin string, args []string, logger *slog.Logger) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	logger.Debug("soffice finished", "args", strings.Join(args, " "), "output", string(bytes.TrimSpace(out)))
	if err != nil {
		return fmt.Errorf("running %s: %w: %s", bin, err, bytes.TrimSpace(out))
	}
	return nil
}

func copyResult(produced, dst string) error {
	data, err := os.ReadFile(produced)
	if err != nil {
		return fmt.Errorf("soffice produced no PDF: %w", err)
	}
	return atomicfile.WriteFile(dst, data, 0644)
}
