package core

import (
	"sync"
	"time"
)

// AVG_COUNT is the size of the rolling window kept per stage.
const AVG_COUNT uint8 = 30

type stageSamples struct {
	counter uint8
	filled  uint8
	samples [AVG_COUNT]time.Duration
	total   uint64
}

// StageMetrics keeps rolling averages of pipeline stage durations
// (parse, textures, skin, upload). Safe for concurrent use.
type StageMetrics struct {
	mutex  sync.Mutex
	stages map[string]*stageSamples
}

func NewStageMetrics() *StageMetrics {
	return &StageMetrics{
		stages: make(map[string]*stageSamples),
	}
}

func (sm *StageMetrics) Record(stage string, d time.Duration) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	s, ok := sm.stages[stage]
	if !ok {
		s = &stageSamples{}
		sm.stages[stage] = s
	}
	s.samples[s.counter] = d
	s.counter++
	s.counter %= AVG_COUNT
	if s.filled < AVG_COUNT {
		s.filled++
	}
	s.total++
}

// Average returns the mean of the last AVG_COUNT samples of a stage, or 0.
func (sm *StageMetrics) Average(stage string) time.Duration {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	s, ok := sm.stages[stage]
	if !ok || s.filled == 0 {
		return 0
	}
	var sum time.Duration
	for i := uint8(0); i < s.filled; i++ {
		sum += s.samples[i]
	}
	return sum / time.Duration(s.filled)
}

// Count returns how many samples were ever recorded for a stage.
func (sm *StageMetrics) Count(stage string) uint64 {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if s, ok := sm.stages[stage]; ok {
		return s.total
	}
	return 0
}
