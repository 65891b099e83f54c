package backend

import (
	"fmt"

	"grantstats/internal/config"
)

// FromAppConfig converts the application config to sink config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	return Config{
		OutputDir: appConfig.OutputDir,
		Delimiter: appConfig.DelimiterRune(),

		XLSXExport: appConfig.XLSXExport,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
	}, nil
}

// Validate validates the sink configuration
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter is required")
	}
	return nil
}

// Enabled returns the optional sinks the configuration turns on.
func (c Config) Enabled() []SinkType {
	var out []SinkType
	if c.XLSXExport {
		out = append(out, XLSXSink)
	}
	if c.SQLiteDBPath != "" {
		out = append(out, SQLiteSink)
	}
	if c.GoogleSpreadsheetID != "" {
		out = append(out, SheetsSink)
	}
	return out
}
