package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"grantstats/internal/core"
)

// TableInfo describes one summary table written by an aggregation run.
type TableInfo struct {
	Name string `json:"name"`
	File string `json:"file"`
	Rows int    `json:"rows"`
}

// TablesReadyMessage announces that an aggregation run finished writing its
// tables. Consumers read the tables from the files it names.
type TablesReadyMessage struct {
	RunID     string      `json:"run_id"`
	Tables    []TableInfo `json:"tables"`
	Digest    string      `json:"digest"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewTablesReadyMessage creates a new message stamped with the current time
func NewTablesReadyMessage(runID, digest string, tables []TableInfo) *TablesReadyMessage {
	return &TablesReadyMessage{
		RunID:     runID,
		Tables:    tables,
		Digest:    digest,
		Timestamp: time.Now().UTC(),
	}
}

// Table returns the entry for kind, if the run wrote it.
func (m *TablesReadyMessage) Table(kind core.TableKind) (TableInfo, bool) {
	for _, t := range m.Tables {
		if t.Name == string(kind) {
			return t, true
		}
	}
	return TableInfo{}, false
}

// Validate checks the fields a consumer relies on.
func (m *TablesReadyMessage) Validate() error {
	if m.RunID == "" {
		return errors.New("missing run_id")
	}
	if len(m.Tables) == 0 {
		return errors.New("no tables listed")
	}
	for _, t := range m.Tables {
		if _, err := core.ParseTableKind(t.Name); err != nil {
			return err
		}
		if t.File == "" {
			return fmt.Errorf("table %s: missing file", t.Name)
		}
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *TablesReadyMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TablesReadyMessageFromJSON decodes and validates a message
func TablesReadyMessageFromJSON(data []byte) (*TablesReadyMessage, error) {
	var msg TablesReadyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tables ready message: %w", err)
	}
	return &msg, nil
}
