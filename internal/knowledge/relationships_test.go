package knowledge_test

import (
	"context"
	"testing"

	"github.com/HendryAvila/thoughtbox/internal/knowledge"
)

func TestCreateRelationship_Defaults(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	a := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeFeedback, Title: "a"})
	b := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeProblem, Title: "b"})

	r, err := s.CreateRelationship(knowledge.RelationshipInput{SourceID: a.ID, TargetID: b.ID})
	if err != nil {
		t.Fatalf("CreateRelationship: %v", err)
	}
	if r.Type != knowledge.RelatesTo {
		t.Errorf("Type = %q, want relates_to", r.Type)
	}
	if r.ProductID != p.ID {
		t.Errorf("ProductID = %q, want source product %q", r.ProductID, p.ID)
	}

	got, err := s.GetRelationship(r.ID)
	if err != nil || got == nil || got.SourceID != a.ID || got.TargetID != b.ID {
		t.Errorf("GetRelationship = %+v, %v", got, err)
	}
}

func TestCreateRelationship_Preconditions(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	other := mustProduct(t, s, "Other")
	a := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeCapture, Title: "a"})
	b := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeProblem, Title: "b"})
	x := mustEntity(t, s, knowledge.EntityInput{ProductID: other.ID, Type: knowledge.TypeProblem, Title: "x"})

	tests := []struct {
		name string
		in   knowledge.RelationshipInput
		want string
	}{
		{"self loop", knowledge.RelationshipInput{SourceID: a.ID, TargetID: a.ID}, knowledge.KindValidation},
		{"unknown type", knowledge.RelationshipInput{SourceID: a.ID, TargetID: b.ID, Type: "blocks"}, knowledge.KindValidation},
		{"missing source", knowledge.RelationshipInput{SourceID: "nope", TargetID: b.ID}, knowledge.KindNotFound},
		{"missing target", knowledge.RelationshipInput{SourceID: a.ID, TargetID: "nope"}, knowledge.KindNotFound},
		{"cross product", knowledge.RelationshipInput{SourceID: a.ID, TargetID: x.ID}, knowledge.KindValidation},
		{"explicit foreign product", knowledge.RelationshipInput{ProductID: other.ID, SourceID: a.ID, TargetID: b.ID}, knowledge.KindValidation},
		{"empty endpoint", knowledge.RelationshipInput{SourceID: a.ID}, knowledge.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateRelationship(tt.in)
			wantKind(t, err, tt.want)
		})
	}

	rels, err := s.ListRelationships(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rels) != 0 {
		t.Errorf("failed creates left %d relationships", len(rels))
	}
}

func TestCreateRelationship_DuplicatesAllowed(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	a := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeCapture, Title: "a"})
	b := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeProblem, Title: "b"})

	for i := 0; i < 2; i++ {
		if _, err := s.CreateRelationship(knowledge.RelationshipInput{SourceID: a.ID, TargetID: b.ID}); err != nil {
			t.Fatal(err)
		}
	}
	rels, _ := s.ListRelationships(p.ID)
	if len(rels) != 2 {
		t.Errorf("relationships = %d, want 2", len(rels))
	}
}

func TestLinkedEntities_BothDirections(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	prob := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeProblem, Title: "problem"})
	hyp := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeHypothesis, Title: "hypothesis"})
	exp := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeExperiment, Title: "experiment"})

	out, err := s.CreateRelationship(knowledge.RelationshipInput{SourceID: hyp.ID, TargetID: prob.ID, Type: knowledge.Supports})
	if err != nil {
		t.Fatal(err)
	}
	in, err := s.CreateRelationship(knowledge.RelationshipInput{SourceID: exp.ID, TargetID: hyp.ID, Type: knowledge.Tests})
	if err != nil {
		t.Fatal(err)
	}

	links, err := s.LinkedEntities(hyp.ID)
	if err != nil {
		t.Fatalf("LinkedEntities: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("links = %d, want 2", len(links))
	}
	if links[0].RelationshipID != out.ID || links[0].Direction != knowledge.Outgoing || links[0].Entity.ID != prob.ID {
		t.Errorf("links[0] = %+v, want outgoing to problem", links[0])
	}
	if links[0].Entity.Status == nil || *links[0].Entity.Status != "active" {
		t.Errorf("counterpart status = %v, want active", links[0].Entity.Status)
	}
	if links[1].RelationshipID != in.ID || links[1].Direction != knowledge.Incoming || links[1].Entity.ID != exp.ID {
		t.Errorf("links[1] = %+v, want incoming from experiment", links[1])
	}
	if links[1].RelationshipType != knowledge.Tests || links[1].Entity.Type != knowledge.TypeExperiment {
		t.Errorf("links[1] type = %s/%s", links[1].RelationshipType, links[1].Entity.Type)
	}

	g, err := s.GroupedLinks(hyp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Outgoing) != 1 || len(g.Incoming) != 1 {
		t.Errorf("grouped = %d out / %d in, want 1/1", len(g.Outgoing), len(g.Incoming))
	}
}

func TestLinkedEntities_SkipsMissingCounterpart(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	a := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeCapture, Title: "a"})
	b := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeProblem, Title: "b"})
	if _, err := s.CreateRelationship(knowledge.RelationshipInput{SourceID: a.ID, TargetID: b.ID}); err != nil {
		t.Fatal(err)
	}

	// Simulate a dangling edge written outside the store.
	ctx := context.Background()
	conn, err := s.DB().Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		t.Fatal(err)
	}
	if _, err := conn.ExecContext(ctx, "DELETE FROM entities WHERE id = ?", b.ID); err != nil {
		t.Fatal(err)
	}
	conn.Close()

	links, err := s.LinkedEntities(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 0 {
		t.Errorf("links = %+v, want none", links)
	}
}

func TestDeleteRelationship(t *testing.T) {
	s := newTestStore(t)
	p := mustProduct(t, s, "P")
	a := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeCapture, Title: "a"})
	b := mustEntity(t, s, knowledge.EntityInput{ProductID: p.ID, Type: knowledge.TypeProblem, Title: "b"})
	r, err := s.CreateRelationship(knowledge.RelationshipInput{SourceID: a.ID, TargetID: b.ID})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteRelationship(r.ID); err != nil {
		t.Fatalf("DeleteRelationship: %v", err)
	}
	if got, _ := s.GetRelationship(r.ID); got != nil {
		t.Error("relationship still present")
	}
	wantKind(t, s.DeleteRelationship(r.ID), knowledge.KindNotFound)
}
