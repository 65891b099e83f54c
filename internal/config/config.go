package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"grantstats/internal/core"
	applog "grantstats/internal/log"
)

// Report file names. Only the directory is configurable.
const (
	ReportFileName   = "global_sectors_analysis.html"
	ReportExportName = "global_sectors_analysis"
	WorkbookFileName = "global_sectors.xlsx"
)

type Config struct {
	// Input
	InputFile        string
	ExcludedDivision string
	Delimiter        string

	// Outputs
	OutputDir       string
	XLSXExport      bool
	ReportPNGExport bool
	PaletteFile     string

	// SQLite
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		InputFile:        getEnv("GRANTS_INPUT_FILE", "bmgf_sectors.csv"),
		ExcludedDivision: getEnv("GRANTS_EXCLUDED_DIVISION", core.ExcludedDivision),
		Delimiter:        normalizeDelimiter(getEnv("GRANTS_DELIMITER", ",")),

		OutputDir:       getEnv("GRANTS_OUTPUT_DIR", "."),
		XLSXExport:      getEnvBool("XLSX_EXPORT", false),
		ReportPNGExport: getEnvBool("REPORT_PNG_EXPORT", false),
		PaletteFile:     getEnv("REPORT_PALETTE_FILE", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "grantstats"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "tables_ready"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// DelimiterRune returns the configured field delimiter.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// TablePath returns where the table of the given kind is written.
func (c *Config) TablePath(kind core.TableKind) string {
	return filepath.Join(c.OutputDir, kind.FileName())
}

// ReportPath returns where the HTML report is written.
func (c *Config) ReportPath() string {
	return filepath.Join(c.OutputDir, ReportFileName)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.InputFile) == "" {
		errors = append(errors, "input file cannot be empty")
	}

	if utf8.RuneCountInString(c.Delimiter) != 1 {
		errors = append(errors, fmt.Sprintf("invalid delimiter '%s': must be a single character", c.Delimiter))
	} else if r := c.DelimiterRune(); r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		errors = append(errors, fmt.Sprintf("invalid delimiter %q", r))
	}

	if strings.TrimSpace(c.OutputDir) == "" {
		errors = append(errors, "output directory cannot be empty")
	} else if info, err := os.Stat(c.OutputDir); err == nil && !info.IsDir() {
		errors = append(errors, fmt.Sprintf("output path '%s' is not a directory", c.OutputDir))
	}

	if c.PaletteFile != "" {
		if _, err := os.Stat(c.PaletteFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("palette file does not exist: %s", c.PaletteFile))
		}
	}

	// Create the SQLite directory up front so the sink can open the file
	if c.SQLiteDBPath != "" {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.GoogleSpreadsheetID != "" {
		hasJSON := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON") != ""
		hasFile := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE") != "" || os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
		if !hasJSON && !hasFile {
			errors = append(errors, "GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be set when GOOGLE_SPREADSHEET_ID is provided")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// normalizeDelimiter accepts the spelled-out forms of a tab.
func normalizeDelimiter(s string) string {
	switch strings.ToLower(s) {
	case `\t`, "tab":
		return "\t"
	}
	return s
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
