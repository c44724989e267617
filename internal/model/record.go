// Package model defines the core data types shared across the enrichment pipeline.
package model

// RawRow is one parsed line of the input CSV. Name and Company are resolved
// through header aliasing at parse time; every original column is also kept
// verbatim in Fields keyed by its header text.
type RawRow struct {
	Name    string            `json:"name"`
	Company string            `json:"company"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// EnrichedRecord is the canonical seven-field record shape every extracted
// agent record is normalized into. All fields are always present; missing
// values are "N/A" ("Low" for Confidence).
type EnrichedRecord struct {
	Name          string `json:"name"`
	Company       string `json:"company"`
	Revenue       string `json:"revenue"`
	Sector        string `json:"sector"`
	DecisionMaker string `json:"decision_maker"`
	JobTitle      string `json:"job_title"`
	Confidence    string `json:"confidence"`
}

// EnrichmentSummary aggregates one enrichment run. It is either supplied by
// the agent (and coerced) or derived from the normalized records.
type EnrichmentSummary struct {
	TotalRecords        int    `json:"total_records" yaml:"total_records"`
	DecisionMakersFound int    `json:"decision_makers_found" yaml:"decision_makers_found"`
	LowConfidenceCount  int    `json:"low_confidence_count" yaml:"low_confidence_count"`
	HighConfidenceRate  string `json:"high_confidence_rate" yaml:"high_confidence_rate"`
}

// ArtifactFile is a generated output file referenced inside the agent response.
type ArtifactFile struct {
	FileURL    string `json:"file_url"`
	Name       string `json:"name,omitempty"`
	FormatType string `json:"format_type,omitempty"`
}
