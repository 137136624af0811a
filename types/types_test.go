package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint("What is the capital of France?")
	b := Fingerprint("  what is   the capital of FRANCE?  ")
	if a != b {
		t.Errorf("expected normalized questions to share a fingerprint, got %s vs %s", a, b)
	}

	c := Fingerprint("What is the capital of Italy?")
	if a == c {
		t.Error("expected different questions to have different fingerprints")
	}
}

func TestDocument_ContentHash(t *testing.T) {
	d1 := Document{Content: "Paris is the capital of France.", Source: SourceVector}
	d2 := Document{Content: "Paris is the capital of France.", Source: SourceGraph}

	if d1.ContentHash() != d2.ContentHash() {
		t.Error("expected identical content to hash identically regardless of source")
	}
}

func TestDocument_Relevance(t *testing.T) {
	d := Document{Content: "x"}
	if d.Graded() {
		t.Error("expected fresh document to be ungraded")
	}
	if d.IsRelevant() {
		t.Error("expected ungraded document to never be relevant")
	}

	graded := d.WithRelevance(true)
	if !graded.Graded() || !graded.IsRelevant() {
		t.Error("expected graded document to carry its grade")
	}
	if d.Graded() {
		t.Error("expected WithRelevance to not mutate the receiver")
	}
}

func TestWorkflowState_SetRetrievedClearsRelevant(t *testing.T) {
	s := NewWorkflowState("q")
	s.SetRetrieved([]Document{{Content: "a"}})
	s.RelevantDocuments = []Document{{Content: "a"}}

	s.SetRetrieved([]Document{{Content: "b"}})
	if len(s.RelevantDocuments) != 0 {
		t.Error("relevant documents must not survive a retrieval replacement")
	}
}

func TestWorkflowState_AddCaveatDeduplicates(t *testing.T) {
	s := NewWorkflowState("q")
	s.AddCaveat(CaveatLowConfidence)
	s.AddCaveat(CaveatLowConfidence)
	s.AddCaveat(CaveatJudgmentFallback)

	if len(s.Caveats) != 2 {
		t.Errorf("expected 2 distinct caveats, got %v", s.Caveats)
	}
}

func TestError_WrapAndExtract(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrToolUnavailable, "neo4j query failed").WithCause(cause).WithRetryable(true)

	if !IsRetryable(err) {
		t.Error("expected retryable error")
	}
	if GetErrorCode(err) != ErrToolUnavailable {
		t.Errorf("unexpected code %s", GetErrorCode(err))
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be unwrappable")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !IsErrorCode(wrapped, ErrToolUnavailable) {
		t.Error("expected code to survive fmt.Errorf wrapping")
	}
}

func TestValidRoute(t *testing.T) {
	for _, r := range []Route{RouteStructured, RouteSemantic, RouteHybrid, RouteWebSearch} {
		if !ValidRoute(string(r)) {
			t.Errorf("expected %s to be valid", r)
		}
	}
	if ValidRoute("bm25") {
		t.Error("expected unknown route to be invalid")
	}
}
