package adapter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	m "starhook.dev/pkg/starhook/internal/model"
)

// ReportStore persists patch reports.
type ReportStore interface {
	SaveReport(path m.Path, report m.Report) error
	LoadReport(path m.Path) (m.Report, error)
}

// YAMLReportStore keeps reports as YAML documents.
type YAMLReportStore struct{}

// NewYAMLReportStore returns a ReportStore writing YAML files.
func NewYAMLReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveReport implements ReportStore.
func (s *YAMLReportStore) SaveReport(path m.Path, report m.Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := os.WriteFile(string(path), data, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}

	return nil
}

// LoadReport implements ReportStore.
func (s *YAMLReportStore) LoadReport(path m.Path) (m.Report, error) {
	var report m.Report

	data, err := os.ReadFile(string(path))
	if err != nil {
		return report, fmt.Errorf("failed to read report %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("failed to decode report %s: %w", path, err)
	}

	return report, nil
}
