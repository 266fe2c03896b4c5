package board

import (
	"errors"
	"testing"

	"speaktodo/internal/model"
)

var testMembers = []model.BoardMember{
	{RemoteID: "1", Name: "John Smith", Email: "john.smith@acme.com"},
	{RemoteID: "2", Name: "Sarah Chen", Email: "sarah@acme.com"},
	{RemoteID: "3", Name: "Maria Garcia", Email: "maria@acme.com"},
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		spoken  string
		wantID  string
		wantHit bool
	}{
		{"exact full name", "John Smith", "1", true},
		{"exact case insensitive", "john smith", "1", true},
		{"unique first name", "John", "1", true},
		{"unique substring", "Chen", "2", true},
		{"exact email", "sarah@acme.com", "2", true},
		{"email local part with at sign", "maria@othercorp.com", "3", true},
		{"bare token never matches email", "john.smith", "", false},
		{"no match", "Bob", "", false},
		{"empty", "", "", false},
		{"unassigned keyword", "Unassigned", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			member, ok, err := Match(tt.spoken, testMembers, MatcherConfig{})
			if err != nil {
				t.Fatalf("Match: %v", err)
			}
			if ok != tt.wantHit {
				t.Fatalf("ok = %v, want %v", ok, tt.wantHit)
			}
			if ok && member.RemoteID != tt.wantID {
				t.Errorf("RemoteID = %s, want %s", member.RemoteID, tt.wantID)
			}
		})
	}
}

func TestMatchAmbiguous(t *testing.T) {
	members := append([]model.BoardMember{}, testMembers...)
	members = append(members, model.BoardMember{RemoteID: "4", Name: "John Doe", Email: "doe@acme.com"})

	_, ok, err := Match("John", members, MatcherConfig{})
	if ok {
		t.Fatal("ambiguous match should not resolve")
	}
	var ambErr *AmbiguousMatchError
	if !errors.As(err, &ambErr) {
		t.Fatalf("err = %v, want AmbiguousMatchError", err)
	}
	if len(ambErr.Candidates) != 2 {
		t.Errorf("candidates = %v, want 2", ambErr.Candidates)
	}

	// Exact full name still wins over a crowd of partial matches.
	member, ok, err := Match("John Smith", members, MatcherConfig{})
	if err != nil || !ok || member.RemoteID != "1" {
		t.Errorf("exact match: member=%+v ok=%v err=%v", member, ok, err)
	}
}

func TestMatchEmailLocalPartCannotBreakAmbiguity(t *testing.T) {
	members := []model.BoardMember{
		{RemoteID: "1", Name: "John Smith", Email: "john@acme.com"},
		{RemoteID: "2", Name: "John Doe", Email: "doe@acme.com"},
	}

	// "John" is the local part of john@acme.com, but two Johns on the
	// board still make the fragment ambiguous.
	_, ok, err := Match("John", members, MatcherConfig{})
	if ok {
		t.Fatal("ambiguous match should not resolve")
	}
	var ambErr *AmbiguousMatchError
	if !errors.As(err, &ambErr) {
		t.Fatalf("err = %v, want AmbiguousMatchError", err)
	}
	if len(ambErr.Candidates) != 2 {
		t.Errorf("candidates = %v, want 2", ambErr.Candidates)
	}
}

func TestMatchResolveAmbiguousPicksFirst(t *testing.T) {
	members := append([]model.BoardMember{}, testMembers...)
	members = append(members, model.BoardMember{RemoteID: "4", Name: "John Doe", Email: "doe@acme.com"})

	member, ok, err := Match("John", members, MatcherConfig{ResolveAmbiguous: true})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !ok || member.RemoteID != "1" {
		t.Errorf("member = %+v, want first candidate John Smith", member)
	}
}
