package service

import "emotion-diary/internal/domain"

// emotionTally cuenta categorías recordando el orden en que apareció cada una.
// Dominant desempata por primera aparición.
type emotionTally struct {
	order  []domain.Emotion
	counts map[domain.Emotion]int
}

func newEmotionTally() *emotionTally {
	return &emotionTally{counts: make(map[domain.Emotion]int)}
}

func (t *emotionTally) Add(e domain.Emotion) {
	t.AddN(e, 1)
}

func (t *emotionTally) AddN(e domain.Emotion, n int) {
	if _, seen := t.counts[e]; !seen {
		t.order = append(t.order, e)
	}
	t.counts[e] += n
}

func (t *emotionTally) Total() int {
	total := 0
	for _, c := range t.counts {
		total += c
	}
	return total
}

// Dominant devuelve la categoría con más apariciones; false si la cuenta está vacía.
func (t *emotionTally) Dominant() (domain.Emotion, bool) {
	var best domain.Emotion
	bestCount := -1
	for _, e := range t.order {
		if c := t.counts[e]; c > bestCount {
			best, bestCount = e, c
		}
	}
	return best, bestCount >= 0
}

func (t *emotionTally) Counts() map[domain.Emotion]int {
	out := make(map[domain.Emotion]int, len(t.counts))
	for e, c := range t.counts {
		out[e] = c
	}
	return out
}

// Order devuelve las categorías en orden de primera aparición.
func (t *emotionTally) Order() []domain.Emotion {
	out := make([]domain.Emotion, len(t.order))
	copy(out, t.order)
	return out
}
