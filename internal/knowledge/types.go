package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/thoughtbox/internal/config"
)

// ─── Entity types ────────────────────────────────────────────────────────────

// EntityType is the closed set of knowledge units.
type EntityType string

const (
	TypeCapture        EntityType = "capture"
	TypeProblem        EntityType = "problem"
	TypeHypothesis     EntityType = "hypothesis"
	TypeExperiment     EntityType = "experiment"
	TypeDecision       EntityType = "decision"
	TypeArtifact       EntityType = "artifact"
	TypeFeedback       EntityType = "feedback"
	TypeFeatureRequest EntityType = "feature_request"
	TypeFeature        EntityType = "feature"
)

// EntityTypes lists every entity type in declaration order.
var EntityTypes = []EntityType{
	TypeCapture, TypeProblem, TypeHypothesis, TypeExperiment, TypeDecision,
	TypeArtifact, TypeFeedback, TypeFeatureRequest, TypeFeature,
}

// statusVocabulary maps each type to its allowed statuses. A nil entry
// means the type carries no status.
var statusVocabulary = map[EntityType][]string{
	TypeCapture:        nil,
	TypeProblem:        {"active", "exploring", "blocked", "solved", "archived"},
	TypeHypothesis:     {"draft", "active", "invalidated", "archived"},
	TypeExperiment:     {"planned", "running", "paused", "complete", "archived"},
	TypeDecision:       nil,
	TypeArtifact:       {"draft", "final", "archived"},
	TypeFeedback:       {"new", "reviewed", "actioned", "archived"},
	TypeFeatureRequest: {"new", "considering", "planned", "in_progress", "shipped", "declined"},
	TypeFeature:        {"building", "shipped", "monitoring", "stable", "deprecated"},
}

// ValidateEntityType returns an error if t is not a known entity type.
func ValidateEntityType(t EntityType) error {
	if _, ok := statusVocabulary[t]; !ok {
		names := make([]string, len(EntityTypes))
		for i, et := range EntityTypes {
			names[i] = string(et)
		}
		return fmt.Errorf("invalid entity type %q: must be one of: %s", t, strings.Join(names, ", "))
	}
	return nil
}

// Statuses returns the status vocabulary for t (nil when t has no status).
func Statuses(t EntityType) []string {
	return statusVocabulary[t]
}

// HasStatus reports whether entities of type t carry a status.
func HasStatus(t EntityType) bool {
	return len(statusVocabulary[t]) > 0
}

// DefaultStatus is the status a fresh entity of type t starts with.
func DefaultStatus(t EntityType) *string {
	vocab := statusVocabulary[t]
	if len(vocab) == 0 {
		return nil
	}
	s := vocab[0]
	return &s
}

// ValidateStatus checks status against the vocabulary of t.
func ValidateStatus(t EntityType, status *string) error {
	vocab := statusVocabulary[t]
	if status == nil {
		return nil
	}
	if len(vocab) == 0 {
		return fmt.Errorf("entity type %q carries no status, got %q", t, *status)
	}
	for _, v := range vocab {
		if v == *status {
			return nil
		}
	}
	return fmt.Errorf("invalid status %q for %s: must be one of: %s", *status, t, strings.Join(vocab, ", "))
}

// ─── Relationship types ──────────────────────────────────────────────────────

// RelationshipType labels a directed edge.
type RelationshipType string

const (
	RelatesTo RelationshipType = "relates_to"
	Supports  RelationshipType = "supports"
	Tests     RelationshipType = "tests"
	Informs   RelationshipType = "informs"
	Evidence  RelationshipType = "evidence"
)

var validRelationshipTypes = map[RelationshipType]bool{
	RelatesTo: true,
	Supports:  true,
	Tests:     true,
	Informs:   true,
	Evidence:  true,
}

// ValidateRelationshipType returns an error if t is not recognized.
func ValidateRelationshipType(t RelationshipType) error {
	if !validRelationshipTypes[t] {
		return fmt.Errorf("invalid relationship type %q: must be one of: relates_to, supports, tests, informs, evidence", t)
	}
	return nil
}

// Direction of a relationship as seen from one of its endpoints.
type Direction string

const (
	Outgoing Direction = "outgoing"
	Incoming Direction = "incoming"
)

// ─── Taxonomy kinds ──────────────────────────────────────────────────────────

// TaxonomyKind discriminates rows of the taxonomy_items table.
type TaxonomyKind string

const (
	KindPersona        TaxonomyKind = "persona"
	KindFeatureArea    TaxonomyKind = "feature_area"
	KindDimension      TaxonomyKind = "dimension"
	KindDimensionValue TaxonomyKind = "dimension_value"
)

// ValidateTaxonomyKind returns an error if k is not recognized.
func ValidateTaxonomyKind(k TaxonomyKind) error {
	switch k {
	case KindPersona, KindFeatureArea, KindDimension, KindDimensionValue:
		return nil
	}
	return fmt.Errorf("invalid taxonomy kind %q: must be one of: persona, feature_area, dimension, dimension_value", k)
}

// ─── Records ─────────────────────────────────────────────────────────────────

// Product is a workspace container for entities and taxonomy.
type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	Icon           *string   `json:"icon,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}

// ProductInput holds the fields for a new product.
type ProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// ProductPatch holds partial update fields. An empty Description or Icon
// clears the field.
type ProductPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
}

// TaxonomyItem is a persona, feature area, dimension, or dimension value.
// ScopeID is the product id, or the dimension id for dimension values.
type TaxonomyItem struct {
	ID        string       `json:"id"`
	Kind      TaxonomyKind `json:"kind"`
	ScopeID   string       `json:"scopeId"`
	Name      string       `json:"name"`
	Archived  bool         `json:"archived"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// DimensionTree is a dimension with its values.
type DimensionTree struct {
	TaxonomyItem
	Values []TaxonomyItem `json:"values"`
}

// Taxonomy is the full tag vocabulary of a product.
type Taxonomy struct {
	ProductID    string          `json:"productId"`
	Personas     []TaxonomyItem  `json:"personas"`
	FeatureAreas []TaxonomyItem  `json:"featureAreas"`
	Dimensions   []DimensionTree `json:"dimensions"`
}

// DimensionValueIDs returns the value ids of dimension dimID.
func (t *Taxonomy) DimensionValueIDs(dimID string) []string {
	if t == nil {
		return nil
	}
	for _, d := range t.Dimensions {
		if d.ID == dimID {
			ids := make([]string, len(d.Values))
			for i, v := range d.Values {
				ids[i] = v.ID
			}
			return ids
		}
	}
	return nil
}

// Entity is the core unit of captured knowledge.
type Entity struct {
	ID                string     `json:"id"`
	ProductID         string     `json:"productId"`
	Type              EntityType `json:"type"`
	Title             string     `json:"title"`
	Body              string     `json:"body"`
	Status            *string    `json:"status,omitempty"`
	Metadata          Metadata   `json:"metadata,omitempty"`
	PromotedToID      *string    `json:"promotedToId,omitempty"`
	PersonaIDs        []string   `json:"personaIds"`
	FeatureIDs        []string   `json:"featureIds"`
	DimensionValueIDs []string   `json:"dimensionValueIds"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// UnmarshalJSON decodes metadata into the variant for the entity's type.
func (e *Entity) UnmarshalJSON(data []byte) error {
	type plain Entity
	var aux struct {
		plain
		Metadata json.RawMessage `json:"metadata,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m, err := DecodeMetadata(aux.Type, aux.Metadata)
	if err != nil {
		return err
	}
	*e = Entity(aux.plain)
	e.Metadata = m
	return nil
}

// Summary returns the compact view used in link and export listings.
func (e *Entity) Summary() EntitySummary {
	return EntitySummary{ID: e.ID, Type: e.Type, Title: e.Title, Status: e.Status}
}

// EntitySummary is the {id, type, title, status} view of an entity.
type EntitySummary struct {
	ID     string     `json:"id"`
	Type   EntityType `json:"type"`
	Title  string     `json:"title"`
	Status *string    `json:"status,omitempty"`
}

// EntityInput holds the fields for a new entity. A nil Status takes the
// type's default.
type EntityInput struct {
	ProductID         string     `json:"productId"`
	Type              EntityType `json:"type"`
	Title             string     `json:"title"`
	Body              string     `json:"body"`
	Status            *string    `json:"status,omitempty"`
	Metadata          Metadata   `json:"metadata,omitempty"`
	PersonaIDs        []string   `json:"personaIds,omitempty"`
	FeatureIDs        []string   `json:"featureIds,omitempty"`
	DimensionValueIDs []string   `json:"dimensionValueIds,omitempty"`
}

// EntityPatch holds partial update fields. Status "" clears the status.
// Metadata is merged field by field into the existing metadata. Non-nil
// tag lists replace the stored list.
type EntityPatch struct {
	Title             *string   `json:"title,omitempty"`
	Body              *string   `json:"body,omitempty"`
	Status            *string   `json:"status,omitempty"`
	Metadata          Metadata  `json:"metadata,omitempty"`
	ClearMetadata     bool      `json:"clearMetadata,omitempty"`
	PersonaIDs        *[]string `json:"personaIds,omitempty"`
	FeatureIDs        *[]string `json:"featureIds,omitempty"`
	DimensionValueIDs *[]string `json:"dimensionValueIds,omitempty"`
}

// EntityFilter narrows ListEntities. Every set field must match.
type EntityFilter struct {
	Type   *EntityType  `json:"type,omitempty"`
	Types  []EntityType `json:"types,omitempty"`
	Status *string      `json:"status,omitempty"`
	// Search is a case-insensitive substring matched against title or body.
	Search string `json:"search,omitempty"`
}

// Relationship is a directed, typed edge between two entities.
type Relationship struct {
	ID        string           `json:"id"`
	ProductID string           `json:"productId"`
	SourceID  string           `json:"sourceId"`
	TargetID  string           `json:"targetId"`
	Type      RelationshipType `json:"type"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// RelationshipInput holds the fields for a new relationship. ProductID
// defaults to the source entity's product; Type defaults to relates_to.
type RelationshipInput struct {
	ProductID string           `json:"productId,omitempty"`
	SourceID  string           `json:"sourceId"`
	TargetID  string           `json:"targetId"`
	Type      RelationshipType `json:"type,omitempty"`
}

// LinkedEntity is one relationship seen from a given entity, resolved to
// the counterpart's summary.
type LinkedEntity struct {
	RelationshipID   string           `json:"relationshipId"`
	RelationshipType RelationshipType `json:"relationshipType"`
	Direction        Direction        `json:"direction"`
	Entity           EntitySummary    `json:"entity"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// GroupedLinks partitions linked entities by direction.
type GroupedLinks struct {
	Outgoing []LinkedEntity `json:"outgoing"`
	Incoming []LinkedEntity `json:"incoming"`
}

// ExportRecord is an immutable manifest of one executed export.
type ExportRecord struct {
	ID            string             `json:"id"`
	Scope         string             `json:"scope"`
	ProductID     *string            `json:"productId,omitempty"`
	Mode          config.ExportMode  `json:"mode"`
	Since         *time.Time         `json:"since,omitempty"`
	IncludeLinked bool               `json:"includeLinked"`
	Total         int                `json:"total"`
	Counts        map[EntityType]int `json:"counts"`
	OutputPath    string             `json:"outputPath"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// ScopeAll is the export scope covering every product.
const ScopeAll = "all"

// ExportRecordInput holds the fields for a new export record.
type ExportRecordInput struct {
	ProductID     string // "" for all products
	Mode          config.ExportMode
	Since         *time.Time // incremental threshold
	IncludeLinked bool
	Total         int
	Counts        map[EntityType]int
	OutputPath    string
}
