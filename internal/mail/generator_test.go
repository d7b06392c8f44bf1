package mail

import (
	"strings"
	"testing"
)

func TestGenerateColdMail(t *testing.T) {
	gen := NewGenerator()

	result := gen.GenerateColdMail("Jordan", "Acme Corp", "Head of Sales", "We help teams ship faster.", "you recently expanded to Europe.")
	if result.Subject != "Quick question about Acme Corp 👋" {
		t.Fatalf("unexpected subject: %q", result.Subject)
	}
	if !strings.HasPrefix(result.Body, "Hi Jordan,") {
		t.Fatalf("expected greeting, got %q", result.Body)
	}
	if !strings.Contains(result.Body, "your work at Acme Corp") {
		t.Fatalf("expected company mention, got %q", result.Body)
	}
	if !strings.Contains(result.Body, "your role as Head of Sales") {
		t.Fatalf("expected role mention, got %q", result.Body)
	}
	if !strings.Contains(result.Body, "I noticed that you recently expanded to Europe.") {
		t.Fatalf("expected company context, got %q", result.Body)
	}
	if result.PersonalizationScore != 0.85 {
		t.Fatalf("unexpected personalization score: %v", result.PersonalizationScore)
	}
}

func TestGenerateColdMail_OmitsEmptyCompanyContext(t *testing.T) {
	gen := NewGenerator()

	result := gen.GenerateColdMail("Sam", "Initech", "CTO", "context", "")
	if strings.Contains(result.Body, "I noticed that") {
		t.Fatalf("expected company context line to be omitted, got %q", result.Body)
	}
}

func TestEnhanceMail_TonesAndFallback(t *testing.T) {
	gen := NewGenerator()

	enhanced := gen.EnhanceMail("original body", "casual")
	if !strings.HasPrefix(enhanced, "[Enhanced with casual tone]") {
		t.Fatalf("expected casual tone marker, got %q", enhanced)
	}
	if !strings.Contains(enhanced, "original body") {
		t.Fatalf("expected original body preserved, got %q", enhanced)
	}

	fallback := gen.EnhanceMail("x", "sarcastic")
	if !strings.HasPrefix(fallback, "[Enhanced with professional tone]") {
		t.Fatalf("expected unknown tone to fall back to professional, got %q", fallback)
	}
}

func TestScoreMail(t *testing.T) {
	gen := NewGenerator()

	score := gen.ScoreMail("any mail")
	if score.OverallScore != 8.5 {
		t.Fatalf("unexpected overall score: %v", score.OverallScore)
	}
	if score.Length != "optimal" || score.Sentiment != "positive" {
		t.Fatalf("unexpected metadata: %+v", score)
	}
	if len(score.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(score.Recommendations))
	}
}
