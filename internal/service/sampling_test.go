package service

import (
	"school_quiz_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func questionPool(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{BaseModel: model.BaseModel{ID: uint(i + 1)}}
	}
	return qs
}

func TestSampleSize(t *testing.T) {
	s := NewSeededSampler(42, 7)
	cases := []struct {
		name      string
		available int
		requested int
		want      int
	}{
		{"fewer than requested", 3, 10, 3},
		{"exact", 10, 10, 10},
		{"subset", 20, 5, 5},
		{"empty bank", 0, 10, 0},
		{"zero requested", 5, 0, 0},
		{"negative requested", 5, -1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Sample(questionPool(tc.available), tc.requested)
			assert.Len(t, got, tc.want)

			seen := map[uint]bool{}
			for _, q := range got {
				assert.False(t, seen[q.ID], "question %d sampled twice", q.ID)
				seen[q.ID] = true
			}
		})
	}
}

func TestSampleCoversWholePool(t *testing.T) {
	s := NewSeededSampler(3, 9)
	pool := questionPool(6)
	hits := map[uint]int{}
	for i := 0; i < 600; i++ {
		for _, q := range s.Sample(pool, 2) {
			hits[q.ID]++
		}
	}
	assert.Len(t, hits, 6)
	for id, n := range hits {
		// 期望约 200 次
		assert.Greater(t, n, 100, "question %d rarely sampled", id)
	}
}

func TestShuffleOptionsStablePerAttempt(t *testing.T) {
	q := question(5, model.SingleChoice,
		option(1, "a", true), option(2, "b", false), option(3, "c", false), option(4, "d", false), option(5, "e", false))

	first := shuffleOptions(10, q)
	assert.Equal(t, first, shuffleOptions(10, q))
	assert.ElementsMatch(t, q.Options, first)

	q.ShuffleOptions = false
	assert.Equal(t, q.Options, shuffleOptions(10, q))
}
