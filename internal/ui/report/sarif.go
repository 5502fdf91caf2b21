package report

import (
	"encoding/json"
	"fmt"
	"joosc/internal/engine/diag"
	"path/filepath"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
)

// ruleIDs maps each diagnostic kind to a stable SARIF rule id.
var ruleIDs = map[diag.Kind]string{
	diag.KindDuplicateDeclaration:    "JOOS001",
	diag.KindUnresolvedImport:        "JOOS002",
	diag.KindConflictingImport:       "JOOS003",
	diag.KindInheritanceCycle:        "JOOS004",
	diag.KindIllegalInheritanceShape: "JOOS005",
	diag.KindIncompatibleInheritance: "JOOS006",
	diag.KindUnresolvedName:          "JOOS007",
}

var ruleDescriptions = map[diag.Kind]string{
	diag.KindDuplicateDeclaration:    "Two types share a qualified name",
	diag.KindUnresolvedImport:        "An import names no known type or package",
	diag.KindConflictingImport:       "Two imports bring in the same simple name",
	diag.KindInheritanceCycle:        "A type is its own ancestor",
	diag.KindIllegalInheritanceShape: "An extends or implements clause names the wrong kind of type",
	diag.KindIncompatibleInheritance: "Inherited members clash",
	diag.KindUnresolvedName:          "A name in a body resolves to nothing",
}

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
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
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID           string          `json:"ruleId"`
	Level            string          `json:"level"`
	Message          sarifMessage    `json:"message"`
	Locations        []sarifLocation `json:"locations,omitempty"`
	RelatedLocations []sarifLocation `json:"relatedLocations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from diagnostics. File URIs
// are made relative to projectRoot.
func GenerateSARIF(projectRoot, toolVersion string, list diag.List) ([]byte, error) {
	sorted := make(diag.List, len(list))
	copy(sorted, list)
	sorted.Sort()

	results := make([]sarifResult, 0, len(sorted))
	for _, d := range sorted {
		id, ok := ruleIDs[d.Kind]
		if !ok {
			return nil, fmt.Errorf("no SARIF rule for diagnostic kind %q", d.Kind)
		}
		result := sarifResult{
			RuleID:  id,
			Level:   levelFor(d.Kind),
			Message: sarifMessage{Text: d.Message},
		}
		if d.Primary.File != "" {
			result.Locations = []sarifLocation{location(projectRoot, d.Primary.File, d.Primary.Line, d.Primary.Column)}
		}
		for _, rel := range d.Related {
			if rel.File == "" {
				continue
			}
			result.RelatedLocations = append(result.RelatedLocations, location(projectRoot, rel.File, rel.Line, rel.Column))
		}
		results = append(results, result)
	}

	rules := make([]sarifRule, 0, len(diag.Kinds))
	for _, k := range diag.Kinds {
		rules = append(rules, sarifRule{
			ID:               ruleIDs[k],
			Name:             string(k),
			ShortDescription: sarifMessage{Text: ruleDescriptions[k]},
			DefaultConfig:    sarifRuleDefaultConfig{Level: levelFor(k)},
		})
	}

	doc := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    "joosc",
				Version: toolVersion,
				Rules:   rules,
			}},
			Results: results,
		}},
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Every diagnostic kind is a compile error.
func levelFor(diag.Kind) string { return "error" }

func location(projectRoot, file string, line, col int) sarifLocation {
	loc := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{
				URI:       relativeURI(projectRoot, file),
				URIBaseID: "%SRCROOT%",
			},
		},
	}
	if line > 0 {
		loc.PhysicalLocation.Region = &sarifRegion{StartLine: line, StartColumn: col}
	}
	return loc
}

func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		if rel, err := filepath.Rel(projectRoot, filePath); err == nil {
			filePath = rel
		}
	}
	// SARIF URIs use forward slashes.
	return filepath.ToSlash(filePath)
}
