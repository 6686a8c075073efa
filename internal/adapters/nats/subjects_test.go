package natsadapter

import (
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geoscatter/internal/core/domain"
)

func TestSubjects(t *testing.T) {
	if got := JobSubject(domain.JobScale); got != "maps.jobs.scale" {
		t.Errorf("JobSubject: got %s", got)
	}
	if got := renderedSubject(domain.JobCategories); got != "maps.rendered.categories" {
		t.Errorf("renderedSubject: got %s", got)
	}
}

func TestIsFinalDelivery(t *testing.T) {
	tests := []struct {
		delivered uint64
		want      bool
	}{
		{1, false},
		{MaxDeliver - 1, false},
		{MaxDeliver, true},
		{MaxDeliver + 1, true},
	}
	for _, tt := range tests {
		if got := isFinalDelivery(tt.delivered); got != tt.want {
			t.Errorf("isFinalDelivery(%d) = %v, want %v", tt.delivered, got, tt.want)
		}
	}
}

func TestFinalAttempt_PlainMessage(t *testing.T) {
	if !finalAttempt(&nats.Msg{Subject: JobSubject(domain.JobScale)}) {
		t.Error("a message without JetStream metadata is never redelivered")
	}
}
