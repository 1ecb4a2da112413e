package knowledge_test

import (
	"encoding/json"
	"testing"

	"github.com/HendryAvila/thoughtbox/internal/knowledge"
)

func TestCreateEntity_DefaultStatus(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")

	tests := []struct {
		typ  knowledge.EntityType
		want string
	}{
		{knowledge.TypeCapture, ""},
		{knowledge.TypeProblem, "active"},
		{knowledge.TypeHypothesis, "draft"},
		{knowledge.TypeExperiment, "planned"},
		{knowledge.TypeDecision, ""},
		{knowledge.TypeArtifact, "draft"},
		{knowledge.TypeFeedback, "new"},
		{knowledge.TypeFeatureRequest, "new"},
		{knowledge.TypeFeature, "building"},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			e := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: tt.typ, Title: "x"})
			got := ""
			if e.Status != nil {
				got = *e.Status
			}
			if got != tt.want {
				t.Errorf("status = %q, want %q", got, tt.want)
			}
			if e.PersonaIDs == nil || e.FeatureIDs == nil || e.DimensionValueIDs == nil {
				t.Error("tag lists should be empty, not nil")
			}
		})
	}
}

func TestCreateEntity_Validation(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	other := mustProduct(t, s, "Other")
	foreign, err := s.CreatePersona(other.ID, "Ref")
	if err != nil {
		t.Fatal(err)
	}
	feature, err := s.CreateFeatureArea(p.ID, "Scoring")
	if err != nil {
		t.Fatal(err)
	}
	high := "high"

	tests := []struct {
		name string
		in   knowledge.EntityInput
		want string
	}{
		{"missing product", knowledge.EntityInput{ProductID: "missing", Type: knowledge.TypeCapture}, knowledge.KindNotFound},
		{"unknown type", knowledge.EntityInput{ProductID: p.ID, Type: "idea"}, knowledge.KindValidation},
		{"status outside vocabulary", knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeProblem, Status: strPtr("done")}, knowledge.KindValidation},
		{"status on capture", knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeCapture, Status: strPtr("new")}, knowledge.KindValidation},
		{"wrong metadata variant", knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeProblem,
			Metadata: knowledge.HypothesisMetadata{Confidence: &high}}, knowledge.KindValidation},
		{"persona of another product", knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeCapture,
			PersonaIDs: []string{foreign.ID}}, knowledge.KindValidation},
		{"feature id in persona list", knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeCapture,
			PersonaIDs: []string{feature.ID}}, knowledge.KindValidation},
		{"unknown tag", knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeCapture,
			FeatureIDs: []string{"nope"}}, knowledge.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateEntity(tt.in)
			wantKind(t, err, tt.want)
		})
	}

	list, err := s.ListEntities(p.ID, knowledge.EntityFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("failed creates left %d entities", len(list))
	}
}

func TestCreateEntity_MetadataRoundTrip(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	start, end, outcome := "2025-01-01", "2025-02-01", "validated"

	e := mustEntity(t, s, knowledge.EntityInput{
		ProductID: p.ID, Type: knowledge.TypeExperiment, Title: "pricing test",
		Metadata: knowledge.ExperimentMetadata{StartDate: &start, EndDate: &end, Outcome: &outcome},
	})
	got, err := s.GetEntity(e.ID)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := got.Metadata.(knowledge.ExperimentMetadata)
	if !ok {
		t.Fatalf("Metadata = %T, want ExperimentMetadata", got.Metadata)
	}
	if *m.StartDate != start || *m.EndDate != end || *m.Outcome != outcome {
		t.Errorf("metadata = %+v", m)
	}
}

func TestCreateEntity_DedupesTags(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	a, _ := s.CreatePersona(p.ID, "A")
	b, _ := s.CreatePersona(p.ID, "B")

	e := mustEntity(t, s, knowledge.EntityInput{
		ProductID: p.ID, Type: knowledge.TypeCapture,
		PersonaIDs: []string{b.ID, a.ID, b.ID},
	})
	if len(e.PersonaIDs) != 2 || e.PersonaIDs[0] != b.ID || e.PersonaIDs[1] != a.ID {
		t.Errorf("PersonaIDs = %v, want [%s %s]", e.PersonaIDs, b.ID, a.ID)
	}
}

func TestGetEntity_AbsentIsNil(t *testing.T) {
	s := newTestStore(t)
	e, err := s.GetEntity("missing")
	if err != nil || e != nil {
		t.Errorf("GetEntity(missing) = %v, %v; want nil, nil", e, err)
	}
}

func TestListEntities_Filters(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	other := mustProduct(t, s, "Other")

	prob := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeProblem, Title: "Login is slow"})
	solved := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeProblem, Title: "Crash", Status: strPtr("solved")})
	fb := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeFeedback, Title: "Nice", Body: "the LOGIN flow is great"})
	mustEntity(t, s, knowledge.EntityInput{ProductID: other.ID, Type: knowledge.TypeProblem, Title: "login elsewhere"})

	problem := knowledge.TypeProblem
	tests := []struct {
		name   string
		filter knowledge.EntityFilter
		want   []string
	}{
		{"no filter newest first", knowledge.EntityFilter{}, []string{fb.ID, solved.ID, prob.ID}},
		{"single type", knowledge.EntityFilter{Type: &problem}, []string{solved.ID, prob.ID}},
		{"type set", knowledge.EntityFilter{Types: []knowledge.EntityType{knowledge.TypeFeedback}}, []string{fb.ID}},
		{"status", knowledge.EntityFilter{Status: strPtr("solved")}, []string{solved.ID}},
		{"search title or body case-insensitive", knowledge.EntityFilter{Search: "login"}, []string{fb.ID, prob.ID}},
		{"search keeps surrounding spaces", knowledge.EntityFilter{Search: "slow "}, nil},
		{"search spans words", knowledge.EntityFilter{Search: "LOGIN IS"}, []string{prob.ID}},
		{"filters are ANDed", knowledge.EntityFilter{Type: &problem, Search: "login"}, []string{prob.ID}},
		{"no match", knowledge.EntityFilter{Type: &problem, Status: strPtr("blocked")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListEntities(p.ID, tt.filter)
			if err != nil {
				t.Fatalf("ListEntities: %v", err)
			}
			if len(list) != len(tt.want) {
				t.Fatalf("got %d entities, want %d", len(list), len(tt.want))
			}
			for i, id := range tt.want {
				if list[i].ID != id {
					t.Errorf("list[%d] = %s (%s), want %s", i, list[i].ID, list[i].Title, id)
				}
			}
		})
	}
}

func TestListEntities_LoadsTags(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	coach, _ := s.CreatePersona(p.ID, "Coach")
	fa, _ := s.CreateFeatureArea(p.ID, "Scoring")

	mustEntity(t, s, knowledge.EntityInput{
		ProductID: p.ID, Type: knowledge.TypeFeedback, Title: "tagged",
		PersonaIDs: []string{coach.ID}, FeatureIDs: []string{fa.ID},
	})
	mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeCapture, Title: "bare"})

	list, err := s.ListEntities(p.ID, knowledge.EntityFilter{})
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range list {
		switch e.Title {
		case "tagged":
			if len(e.PersonaIDs) != 1 || len(e.FeatureIDs) != 1 {
				t.Errorf("tagged: personas=%v features=%v", e.PersonaIDs, e.FeatureIDs)
			}
		case "bare":
			if e.PersonaIDs == nil || len(e.PersonaIDs) != 0 {
				t.Errorf("bare: PersonaIDs = %#v, want empty slice", e.PersonaIDs)
			}
		}
	}
}

func TestUpdateEntity_MergesMetadata(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	positive, complaint, email := "positive", "complaint", "email"

	e := mustEntity(t, s, knowledge.EntityInput{
		ProductID: p.ID, Type: knowledge.TypeFeedback, Title: "fb",
		Metadata: knowledge.FeedbackMetadata{Sentiment: &positive, Source: &email},
	})

	got, err := s.UpdateEntity(e.ID, knowledge.EntityPatch{
		Metadata: knowledge.FeedbackMetadata{FeedbackType: &complaint},
	})
	if err != nil {
		t.Fatalf("UpdateEntity: %v", err)
	}
	m := got.Metadata.(knowledge.FeedbackMetadata)
	if m.Sentiment == nil || *m.Sentiment != positive {
		t.Errorf("Sentiment = %v, want kept", m.Sentiment)
	}
	if m.Source == nil || *m.Source != email {
		t.Errorf("Source = %v, want kept", m.Source)
	}
	if m.FeedbackType == nil || *m.FeedbackType != complaint {
		t.Errorf("FeedbackType = %v, want complaint", m.FeedbackType)
	}
	if got.Title != "fb" {
		t.Errorf("Title = %q, want unchanged", got.Title)
	}

	got, err = s.UpdateEntity(e.ID, knowledge.EntityPatch{ClearMetadata: true})
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata != nil {
		t.Errorf("Metadata = %+v, want cleared", got.Metadata)
	}
}

func TestUpdateEntity_StatusAndTags(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	coach, _ := s.CreatePersona(p.ID, "Coach")

	e := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeProblem, Title: "x"})

	got, err := s.UpdateEntity(e.ID, knowledge.EntityPatch{
		Status:     strPtr("solved"),
		PersonaIDs: &[]string{coach.ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	if *got.Status != "solved" || len(got.PersonaIDs) != 1 {
		t.Errorf("status=%v personas=%v", *got.Status, got.PersonaIDs)
	}

	got, err = s.UpdateEntity(e.ID, knowledge.EntityPatch{Status: strPtr(""), PersonaIDs: &[]string{}})
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != nil || len(got.PersonaIDs) != 0 {
		t.Errorf("after clear: status=%v personas=%v", got.Status, got.PersonaIDs)
	}

	_, err = s.UpdateEntity(e.ID, knowledge.EntityPatch{Status: strPtr("shipped")})
	wantKind(t, err, knowledge.KindValidation)

	_, err = s.UpdateEntity("missing", knowledge.EntityPatch{Title: strPtr("x")})
	wantKind(t, err, knowledge.KindNotFound)
}

func TestDeleteEntity_RemovesRelationshipsAndPointers(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	a := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeCapture, Title: "a"})
	b := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeProblem, Title: "b"})
	c := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeHypothesis, Title: "c"})

	if _, err := s.CreateRelationship(knowledge.RelationshipInput{SourceID: a.ID, TargetID: b.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateRelationship(knowledge.RelationshipInput{SourceID: c.ID, TargetID: b.ID, Type: knowledge.Supports}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateRelationship(knowledge.RelationshipInput{SourceID: a.ID, TargetID: c.ID}); err != nil {
		t.Fatal(err)
	}
	promoted, err := s.PromoteEntity(a.ID, knowledge.TypeFeedback)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteEntity(b.ID); err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}
	rels, err := s.ListRelationships(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rels {
		if r.SourceID == b.ID || r.TargetID == b.ID {
			t.Errorf("orphaned relationship %+v", r)
		}
	}
	if len(rels) != 1 {
		t.Errorf("relationships left = %d, want 1", len(rels))
	}

	if err := s.DeleteEntity(promoted.ID); err != nil {
		t.Fatal(err)
	}
	src, err := s.GetEntity(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if src.PromotedToID != nil {
		t.Errorf("PromotedToID = %q, want cleared", *src.PromotedToID)
	}

	wantKind(t, s.DeleteEntity(b.ID), knowledge.KindNotFound)
}

func TestPromoteEntity(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	coach, _ := s.CreatePersona(p.ID, "Coach")
	positive := "positive"

	c := mustEntity(t, s, knowledge.EntityInput{
		ProductID: p.ID, Type: knowledge.TypeFeedback, Title: "T", Body: "B",
		Status: strPtr("reviewed"), Metadata: knowledge.FeedbackMetadata{Sentiment: &positive},
		PersonaIDs: []string{coach.ID},
	})

	first, err := s.PromoteEntity(c.ID, knowledge.TypeProblem)
	if err != nil {
		t.Fatalf("PromoteEntity: %v", err)
	}
	if first.Type != knowledge.TypeProblem || first.Title != "T" || first.Body != "B" {
		t.Errorf("promoted = %+v", first)
	}
	if first.Status == nil || *first.Status != "active" {
		t.Errorf("Status = %v, want target default active", first.Status)
	}
	if first.Metadata != nil {
		t.Errorf("Metadata = %+v, want reset", first.Metadata)
	}
	if len(first.PersonaIDs) != 1 || first.PersonaIDs[0] != coach.ID {
		t.Errorf("PersonaIDs = %v, want copied", first.PersonaIDs)
	}
	if first.ProductID != p.ID {
		t.Errorf("ProductID = %s, want %s", first.ProductID, p.ID)
	}

	src, _ := s.GetEntity(c.ID)
	if src.PromotedToID == nil || *src.PromotedToID != first.ID {
		t.Fatalf("PromotedToID = %v, want %s", src.PromotedToID, first.ID)
	}

	second, err := s.PromoteEntity(c.ID, knowledge.TypeProblem)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID == first.ID {
		t.Error("second promotion reused the first target")
	}
	src, _ = s.GetEntity(c.ID)
	if *src.PromotedToID != second.ID {
		t.Errorf("PromotedToID = %s, want overwritten with %s", *src.PromotedToID, second.ID)
	}
	if _, err := s.GetEntity(first.ID); err != nil {
		t.Errorf("first target should survive: %v", err)
	}
}

func TestPromoteEntity_Preconditions(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	c := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeCapture, Title: "c"})

	_, err := s.PromoteEntity("missing", knowledge.TypeProblem)
	wantKind(t, err, knowledge.KindNotFound)
	_, err = s.PromoteEntity(c.ID, knowledge.TypeCapture)
	wantKind(t, err, knowledge.KindValidation)
	_, err = s.PromoteEntity(c.ID, "idea")
	wantKind(t, err, knowledge.KindValidation)

	list, _ := s.ListEntities(p.ID, knowledge.EntityFilter{})
	if len(list) != 1 {
		t.Errorf("entities = %d, want 1 (failed promotions must not write)", len(list))
	}
}

func TestEntity_UnmarshalJSONDecodesMetadataVariant(t *testing.T) {
	data := []byte(`{"id":"e1","productId":"p1","type":"feedback","title":"Nice",
		"metadata":{"sentiment":"positive"},"personaIds":[],"featureIds":[],"dimensionValueIds":[]}`)
	var e knowledge.Entity
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m, ok := e.Metadata.(knowledge.FeedbackMetadata)
	if !ok {
		t.Fatalf("metadata = %T, want FeedbackMetadata", e.Metadata)
	}
	if m.Sentiment == nil || *m.Sentiment != "positive" {
		t.Errorf("sentiment = %v, want positive", m.Sentiment)
	}

	bad := []byte(`{"id":"e1","type":"capture","metadata":{"severity":"low"}}`)
	if err := json.Unmarshal(bad, &e); err == nil {
		t.Error("expected error for metadata on a capture")
	}
}
