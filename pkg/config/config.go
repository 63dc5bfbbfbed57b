package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Downloader struct {
		Dir             string        `yaml:"dir"`
		SkipDownloads   bool          `yaml:"skip_downloads"`
		Timeout         time.Duration `yaml:"timeout"`
		UserAgent       string        `yaml:"user_agent"`
		RateLimit       float64       `yaml:"rate_limit"`
		RevisionPattern string        `yaml:"revision_pattern"`
	} `yaml:"downloader"`

	Office struct {
		SofficePath string `yaml:"soffice_path"`
		OutputDir   string `yaml:"output_dir"`
		ExportPDF   bool   `yaml:"export_pdf"`
		FixEmbedded bool   `yaml:"fix_embedded"`
	} `yaml:"office"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"docpage.yaml",
			"docpage.yml",
			filepath.Join(os.Getenv("HOME"), ".config/docpage/config.yaml"),
			"/etc/docpage/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Downloader.Dir == "" {
		config.Downloader.Dir = "."
	}
	if config.Downloader.Timeout == 0 {
		config.Downloader.Timeout = 30 * time.Second
	}
	if config.Downloader.UserAgent == "" {
		config.Downloader.UserAgent = "docpage/1.0"
	}

	if config.Office.SofficePath == "" {
		config.Office.SofficePath = "soffice"
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
}

func mergeWithEnv(config *Config) {
	if dir := os.Getenv("DOCPAGE_DIR"); dir != "" {
		config.Downloader.Dir = dir
	}
	if skip := os.Getenv("DOCPAGE_SKIP_DOWNLOADS"); skip != "" {
		if v, err := strconv.ParseBool(skip); err == nil {
			config.Downloader.SkipDownloads = v
		}
	}
	if soffice := os.Getenv("SOFFICE_PATH"); soffice != "" {
		config.Office.SofficePath = soffice
	}
	if level := os.Getenv("DOCPAGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}
