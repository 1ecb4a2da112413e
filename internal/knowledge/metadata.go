package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Metadata is the type-specific part of an entity. Each entity type has
// exactly one variant; captures have none. Every field is optional.
type Metadata interface {
	// EntityType is the entity type this variant belongs to.
	EntityType() EntityType
	validate() error
}

// ProblemMetadata describes a problem.
type ProblemMetadata struct {
	Severity *string `json:"severity,omitempty"`
}

// HypothesisMetadata describes a hypothesis.
type HypothesisMetadata struct {
	Confidence *string `json:"confidence,omitempty"`
}

// ExperimentMetadata describes an experiment. Dates are YYYY-MM-DD.
type ExperimentMetadata struct {
	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`
	Outcome   *string `json:"outcome,omitempty"`
}

// DecisionMetadata describes a decision.
type DecisionMetadata struct {
	DecisionType *string `json:"decisionType,omitempty"`
	DecidedAt    *string `json:"decidedAt,omitempty"`
}

// ArtifactMetadata describes an artifact.
type ArtifactMetadata struct {
	ArtifactType *string `json:"artifactType,omitempty"`
	URL          *string `json:"url,omitempty"`
}

// FeedbackMetadata describes a piece of feedback.
type FeedbackMetadata struct {
	Sentiment    *string `json:"sentiment,omitempty"`
	FeedbackType *string `json:"feedbackType,omitempty"`
	Source       *string `json:"source,omitempty"`
}

// FeatureRequestMetadata describes a feature request.
type FeatureRequestMetadata struct {
	Priority    *string `json:"priority,omitempty"`
	RequestedBy *string `json:"requestedBy,omitempty"`
}

// FeatureMetadata describes a shipped or in-flight feature.
type FeatureMetadata struct {
	Health    *string `json:"health,omitempty"`
	ShippedAt *string `json:"shippedAt,omitempty"`
}

func (ProblemMetadata) EntityType() EntityType        { return TypeProblem }
func (HypothesisMetadata) EntityType() EntityType     { return TypeHypothesis }
func (ExperimentMetadata) EntityType() EntityType     { return TypeExperiment }
func (DecisionMetadata) EntityType() EntityType       { return TypeDecision }
func (ArtifactMetadata) EntityType() EntityType       { return TypeArtifact }
func (FeedbackMetadata) EntityType() EntityType       { return TypeFeedback }
func (FeatureRequestMetadata) EntityType() EntityType { return TypeFeatureRequest }
func (FeatureMetadata) EntityType() EntityType        { return TypeFeature }

func (m ProblemMetadata) validate() error {
	return oneOf("severity", m.Severity, "low", "medium", "high", "critical")
}

func (m HypothesisMetadata) validate() error {
	return oneOf("confidence", m.Confidence, "low", "medium", "high")
}

func (m ExperimentMetadata) validate() error {
	if err := isDate("startDate", m.StartDate); err != nil {
		return err
	}
	if err := isDate("endDate", m.EndDate); err != nil {
		return err
	}
	if m.StartDate != nil && m.EndDate != nil && *m.EndDate < *m.StartDate {
		return fmt.Errorf("endDate %s is before startDate %s", *m.EndDate, *m.StartDate)
	}
	return oneOf("outcome", m.Outcome, "validated", "invalidated", "inconclusive")
}

func (m DecisionMetadata) validate() error {
	if err := oneOf("decisionType", m.DecisionType, "reversible", "irreversible"); err != nil {
		return err
	}
	return isDate("decidedAt", m.DecidedAt)
}

func (m ArtifactMetadata) validate() error { return nil }

func (m FeedbackMetadata) validate() error {
	if err := oneOf("sentiment", m.Sentiment, "positive", "neutral", "negative"); err != nil {
		return err
	}
	return oneOf("feedbackType", m.FeedbackType, "praise", "complaint", "bug", "request", "question")
}

func (m FeatureRequestMetadata) validate() error {
	return oneOf("priority", m.Priority, "low", "medium", "high", "critical")
}

func (m FeatureMetadata) validate() error {
	if err := oneOf("health", m.Health, "healthy", "at_risk", "critical"); err != nil {
		return err
	}
	return isDate("shippedAt", m.ShippedAt)
}

// DecodeMetadata parses raw JSON into the variant for t. Empty input,
// "null" and "{}" decode to nil. Unknown fields are rejected.
func DecodeMetadata(t EntityType, raw []byte) (Metadata, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return nil, nil
	}

	var m Metadata
	switch t {
	case TypeCapture:
		return nil, fmt.Errorf("entity type %q carries no metadata", t)
	case TypeProblem:
		m = &ProblemMetadata{}
	case TypeHypothesis:
		m = &HypothesisMetadata{}
	case TypeExperiment:
		m = &ExperimentMetadata{}
	case TypeDecision:
		m = &DecisionMetadata{}
	case TypeArtifact:
		m = &ArtifactMetadata{}
	case TypeFeedback:
		m = &FeedbackMetadata{}
	case TypeFeatureRequest:
		m = &FeatureRequestMetadata{}
	case TypeFeature:
		m = &FeatureMetadata{}
	default:
		return nil, ValidateEntityType(t)
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("decoding %s metadata: %w", t, err)
	}
	m = deref(m)
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ValidateMetadata checks that m is the variant for t and that its fields
// are within their vocabularies. A nil m is always valid.
func ValidateMetadata(t EntityType, m Metadata) error {
	if m == nil {
		return nil
	}
	if m.EntityType() != t {
		return fmt.Errorf("metadata for %s cannot be attached to a %s", m.EntityType(), t)
	}
	return m.validate()
}

// MergeMetadata overlays the set fields of patch onto base. Fields absent
// from patch keep their base value.
func MergeMetadata(t EntityType, base, patch Metadata) (Metadata, error) {
	if patch == nil {
		return base, nil
	}
	if err := ValidateMetadata(t, patch); err != nil {
		return nil, err
	}
	if base == nil {
		return patch, nil
	}

	merged := map[string]json.RawMessage{}
	for _, m := range []Metadata{base, patch} {
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encoding metadata: %w", err)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("encoding metadata: %w", err)
		}
		for k, v := range fields {
			merged[k] = v
		}
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	return DecodeMetadata(t, data)
}

// encodeMetadata renders m for the metadata column (nil → SQL NULL).
func encodeMetadata(m Metadata) (*string, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	s := string(data)
	if s == "{}" {
		return nil, nil
	}
	return &s, nil
}

// deref turns the pointer variants produced by decoding into values so
// callers can type-switch on one form.
func deref(m Metadata) Metadata {
	switch v := m.(type) {
	case *ProblemMetadata:
		return *v
	case *HypothesisMetadata:
		return *v
	case *ExperimentMetadata:
		return *v
	case *DecisionMetadata:
		return *v
	case *ArtifactMetadata:
		return *v
	case *FeedbackMetadata:
		return *v
	case *FeatureRequestMetadata:
		return *v
	case *FeatureMetadata:
		return *v
	}
	return m
}

func oneOf(field string, v *string, allowed ...string) error {
	if v == nil {
		return nil
	}
	for _, a := range allowed {
		if *v == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q: must be one of: %s", field, *v, strings.Join(allowed, ", "))
}

func isDate(field string, v *string) error {
	if v == nil {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, *v); err != nil {
		return fmt.Errorf("invalid %s %q: want YYYY-MM-DD", field, *v)
	}
	return nil
}
