package knowledge_test

import (
	"testing"

	"github.com/HendryAvila/thoughtbox/internal/knowledge"
)

func TestCreateTaxonomyItem_ScopeChecks(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	persona, err := s.CreatePersona(p.ID, "Coach")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		kind  knowledge.TaxonomyKind
		scope string
		label string
		want  string
	}{
		{"persona without product", knowledge.KindPersona, "missing", "x", knowledge.KindNotFound},
		{"value under a persona", knowledge.KindDimensionValue, persona.ID, "x", knowledge.KindNotFound},
		{"empty name", knowledge.KindFeatureArea, p.ID, " ", knowledge.KindValidation},
		{"unknown kind", knowledge.TaxonomyKind("tag"), p.ID, "x", knowledge.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateTaxonomyItem(tt.kind, tt.scope, tt.label)
			wantKind(t, err, tt.want)
		})
	}
}

// Product P, persona Coach, feedback tagged with Coach: archiving Coach
// keeps the tag but hides Coach from active personas.
func TestArchivePersona_KeepsExistingTags(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	coach, err := s.CreatePersona(p.ID, "Coach")
	if err != nil {
		t.Fatal(err)
	}
	fb := mustEntity(t, s, knowledge.EntityInput{
		ProductID:  p.ID,
		Type:       knowledge.TypeFeedback,
		Title:      "Scoring confusing",
		PersonaIDs: []string{coach.ID},
	})

	feedback := knowledge.TypeFeedback
	list, err := s.ListEntities(p.ID, knowledge.EntityFilter{Type: &feedback})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != fb.ID {
		t.Fatalf("feedback list = %+v, want exactly %s", list, fb.ID)
	}

	archived, err := s.ArchiveTaxonomyItem(coach.ID)
	if err != nil {
		t.Fatalf("ArchiveTaxonomyItem: %v", err)
	}
	if !archived.Archived {
		t.Error("Archived = false after archive")
	}

	got, err := s.GetEntity(fb.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.PersonaIDs) != 1 || got.PersonaIDs[0] != coach.ID {
		t.Errorf("PersonaIDs = %v, want [%s]", got.PersonaIDs, coach.ID)
	}

	active, err := s.ActivePersonas(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Errorf("active personas = %d, want 0", len(active))
	}

	all, err := s.ListTaxonomyItems(knowledge.KindPersona, p.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("personas including archived = %d, want 1", len(all))
	}

	if _, err := s.UnarchiveTaxonomyItem(coach.ID); err != nil {
		t.Fatal(err)
	}
	active, err = s.ActivePersonas(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 {
		t.Errorf("active personas after unarchive = %d, want 1", len(active))
	}
}

func TestArchiveTaxonomyItem_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ArchiveTaxonomyItem("missing")
	wantKind(t, err, knowledge.KindNotFound)
	_, err = s.UnarchiveTaxonomyItem("missing")
	wantKind(t, err, knowledge.KindNotFound)
}

func TestRenameTaxonomyItem(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	fa, err := s.CreateFeatureArea(p.ID, "Scoring")
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.RenameTaxonomyItem(fa.ID, "Live scoring")
	if err != nil {
		t.Fatalf("RenameTaxonomyItem: %v", err)
	}
	if got.Name != "Live scoring" {
		t.Errorf("Name = %q", got.Name)
	}
	_, err = s.RenameTaxonomyItem(fa.ID, "")
	wantKind(t, err, knowledge.KindValidation)
}

func TestTaxonomy_Tree(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	if _, err := s.CreatePersona(p.ID, "Coach"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateFeatureArea(p.ID, "Scoring"); err != nil {
		t.Fatal(err)
	}
	platform, err := s.CreateDimension(p.ID, "Platform")
	if err != nil {
		t.Fatal(err)
	}
	ios, err := s.CreateDimensionValue(platform.ID, "iOS")
	if err != nil {
		t.Fatal(err)
	}
	web, err := s.CreateDimensionValue(platform.ID, "Web")
	if err != nil {
		t.Fatal(err)
	}
	stage, err := s.CreateDimension(p.ID, "Stage")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ArchiveTaxonomyItem(web.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ArchiveTaxonomyItem(stage.ID); err != nil {
		t.Fatal(err)
	}

	tax, err := s.Taxonomy(p.ID, false)
	if err != nil {
		t.Fatalf("Taxonomy: %v", err)
	}
	if len(tax.Personas) != 1 || len(tax.FeatureAreas) != 1 {
		t.Errorf("personas=%d features=%d, want 1 and 1", len(tax.Personas), len(tax.FeatureAreas))
	}
	if len(tax.Dimensions) != 1 || tax.Dimensions[0].ID != platform.ID {
		t.Fatalf("active dimensions = %+v, want only Platform", tax.Dimensions)
	}
	if ids := tax.DimensionValueIDs(platform.ID); len(ids) != 1 || ids[0] != ios.ID {
		t.Errorf("Platform values = %v, want [%s]", ids, ios.ID)
	}

	full, err := s.Taxonomy(p.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(full.Dimensions) != 2 {
		t.Errorf("dimensions including archived = %d, want 2", len(full.Dimensions))
	}
	if ids := full.DimensionValueIDs(platform.ID); len(ids) != 2 {
		t.Errorf("Platform values including archived = %v, want 2", ids)
	}

	_, err = s.Taxonomy("missing", false)
	wantKind(t, err, knowledge.KindNotFound)
}

func TestDeleteDimension_RemovesValuesAndTags(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	dim, err := s.CreateDimension(p.ID, "Platform")
	if err != nil {
		t.Fatal(err)
	}
	val, err := s.CreateDimensionValue(dim.ID, "iOS")
	if err != nil {
		t.Fatal(err)
	}
	e := mustEntity(t, s, knowledge.EntityInput{
		ProductID: p.ID, Type: knowledge.TypeProblem, Title: "crash",
		DimensionValueIDs: []string{val.ID},
	})

	if err := s.DeleteTaxonomyItem(dim.ID); err != nil {
		t.Fatalf("DeleteTaxonomyItem: %v", err)
	}
	if got, _ := s.GetTaxonomyItem(val.ID); got != nil {
		t.Error("dimension value survived its dimension")
	}
	got, err := s.GetEntity(e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.DimensionValueIDs) != 0 {
		t.Errorf("DimensionValueIDs = %v, want empty", got.DimensionValueIDs)
	}

	wantKind(t, s.DeleteTaxonomyItem(dim.ID), knowledge.KindNotFound)
}

func TestActiveFeatureAreas_SkipsArchived(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	checkout, err := s.CreateFeatureArea(p.ID, "Checkout")
	if err != nil {
		t.Fatal(err)
	}
	search, err := s.CreateFeatureArea(p.ID, "Search")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ArchiveTaxonomyItem(checkout.ID); err != nil {
		t.Fatal(err)
	}

	active, err := s.ActiveFeatureAreas(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].ID != search.ID {
		t.Errorf("active feature areas = %v, want only %s", active, search.ID)
	}
}
