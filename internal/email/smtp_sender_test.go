package email

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNewSMTPSender_RequiresRecipient(t *testing.T) {
	if _, err := NewSMTPSender("smtp.local", 25, "", "", "bot@local", "", "", false); err == nil {
		t.Fatalf("expected error without recipient")
	}
	s, err := NewSMTPSender("smtp.local", 0, "", "", "bot@local", "", "ops@local", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.port != 587 {
		t.Fatalf("expected default port 587, got %d", s.port)
	}
}

func TestRiskBody(t *testing.T) {
	alert := RiskAlert{
		EntryID:    "entry-1",
		Emotion:    "тревога",
		Phrase:     "хочу умереть",
		Excerpt:    strings.Repeat("я ", 400),
		DetectedAt: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
	}

	body := riskBody(alert)

	for _, want := range []string{"2024-03-04T10:00:00Z", "тревога", "хочу умереть", "entry-1", "..."} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
	if !strings.Contains(riskSubject(alert), "тревога") {
		t.Fatalf("subject should name the emotion")
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := buildMessage("bot@local", "Emotion Diary", "ops@local", "subj", "body")
	if !strings.HasPrefix(msg, "From: Emotion Diary <bot@local>\r\n") {
		t.Fatalf("unexpected from header: %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nbody") {
		t.Fatalf("body not separated from headers: %q", msg)
	}
}

func TestDisabledSender(t *testing.T) {
	err := NewDisabledSender("alerts disabled").SendRiskAlert(context.Background(), RiskAlert{})
	if err == nil || err.Error() != "alerts disabled" {
		t.Fatalf("unexpected error: %v", err)
	}
}
