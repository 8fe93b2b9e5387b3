package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/pmdreview/internal/finding"
	"github.com/dshills/pmdreview/internal/review"
)

// SARIFWriter outputs comments in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *review.Report) error {
	sarif := buildSARIF(report)
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	HelpURI       string              `json:"helpUri,omitempty"`
	DefaultConfig sarifDefaultConfig  `json:"defaultConfiguration"`
	Properties    sarifRuleProperties `json:"properties"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Priority int `json:"priority"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

func buildSARIF(report *review.Report) sarifLog {
	rules := []sarifRule{}
	ruleIndex := make(map[string]int)
	results := []sarifResult{}

	for _, c := range report.Comments() {
		id := c.Rule
		idx, ok := ruleIndex[id]
		if !ok {
			idx = len(rules)
			ruleIndex[id] = idx
			rules = append(rules, sarifRule{
				ID:            id,
				Name:          id,
				HelpURI:       c.URL,
				DefaultConfig: sarifDefaultConfig{Level: priorityToLevel(c.Priority)},
				Properties:    sarifRuleProperties{Priority: int(c.Priority)},
			})
		}

		results = append(results, sarifResult{
			RuleID:    id,
			RuleIndex: idx,
			Level:     priorityToLevel(c.Priority),
			Message:   sarifMessage{Text: c.Text},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: c.Path},
					Region: sarifRegion{
						StartLine: c.FirstLine,
						EndLine:   c.LastLine(),
					},
				},
			}},
		})
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           review.Tool,
						Version:        report.Version,
						InformationURI: "https://github.com/dshills/pmdreview",
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}
}

// priorityToLevel maps a PMD priority to a SARIF level.
func priorityToLevel(p finding.Priority) string {
	switch {
	case p <= 2:
		return "error"
	case p == 3:
		return "warning"
	default:
		return "note"
	}
}
