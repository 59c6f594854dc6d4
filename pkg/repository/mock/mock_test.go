package mock_test

import (
	"context"
	"testing"
	"time"

	"github.com/garnizeh/polls/pkg/models"
	"github.com/garnizeh/polls/pkg/repository/mock"
)

func TestListPublishedDefaultLimit(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	now := time.Now()
	for i := 1; i <= 7; i++ {
		if _, err := store.CreateQuestion(ctx, &models.Question{QuestionText: "q", PubDate: now.Add(-time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("CreateQuestion: %v", err)
		}
	}

	cases := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "Zero", limit: 0, want: 5},
		{name: "Negative", limit: -1, want: 5},
		{name: "Explicit", limit: 3, want: 3},
		{name: "AboveCount", limit: 10, want: 7},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			qs, err := store.ListPublished(ctx, now, c.limit)
			if err != nil {
				t.Fatalf("ListPublished: %v", err)
			}
			if len(qs) != c.want {
				t.Fatalf("want %d questions got %d", c.want, len(qs))
			}
		})
	}
}
