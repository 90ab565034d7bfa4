package service

import (
	"math/rand/v2"
	"school_quiz_backend/internal/model"
	"sync"
)

// Sampler 为一次答题随机抽取题目
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSampler() *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededSampler 固定种子，便于复现
func NewSeededSampler(seed1, seed2 uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Sample 无放回地均匀抽取 min(len(questions), requested) 道题，顺序随机
func (s *Sampler) Sample(questions []model.Question, requested int) []model.Question {
	n := len(questions)
	if n == 0 || requested <= 0 {
		return []model.Question{}
	}
	k := min(n, requested)

	s.mu.Lock()
	perm := s.rng.Perm(n)
	s.mu.Unlock()

	out := make([]model.Question, k)
	for i := 0; i < k; i++ {
		out[i] = questions[perm[i]]
	}
	return out
}

// shuffleOptions 以答题记录和题目ID为种子打乱选项，刷新页面时顺序保持不变
func shuffleOptions(attemptID uint, q model.Question) []model.AnswerOption {
	opts := make([]model.AnswerOption, len(q.Options))
	copy(opts, q.Options)
	if !q.ShuffleOptions || len(opts) < 2 {
		return opts
	}
	rng := rand.New(rand.NewPCG(uint64(attemptID), uint64(q.ID)))
	rng.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})
	return opts
}
