package clock

import (
	"sync"
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}

	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) {
		t.Errorf("Clock time %v is before measurement time %v", now, before)
	}
	if now.After(after) {
		t.Errorf("Clock time %v is after measurement time %v", now, after)
	}
}

func TestMockClock_Now(t *testing.T) {
	fixedTime := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(fixedTime)

	first := clock.Now()
	second := clock.Now()

	if !first.Equal(fixedTime) || !second.Equal(fixedTime) {
		t.Errorf("Expected %v twice, got %v and %v", fixedTime, first, second)
	}
}

func TestMockClock_AdvanceAndSet(t *testing.T) {
	initialTime := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: initialTime}

	testCases := []struct {
		name     string
		apply    func()
		expected time.Time
	}{
		{
			name:     "advance by 1 hour",
			apply:    func() { clock.Advance(time.Hour) },
			expected: initialTime.Add(time.Hour),
		},
		{
			name:     "advance backwards",
			apply:    func() { clock.Advance(-30 * time.Minute) },
			expected: initialTime.Add(30 * time.Minute),
		},
		{
			name:     "advance by zero",
			apply:    func() { clock.Advance(0) },
			expected: initialTime.Add(30 * time.Minute),
		},
		{
			name:     "set resets",
			apply:    func() { clock.Set(initialTime) },
			expected: initialTime,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.apply()
			if now := clock.Now(); !now.Equal(tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, now)
			}
		})
	}
}

func TestClock_Interface_Compliance(t *testing.T) {
	var _ Clock = RealClock{}
	var _ Clock = &MockClock{}
}

func TestMockClock_ConcurrentReadsAndWrites(t *testing.T) {
	initialTime := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(initialTime)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = clock.Now()
		}()
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
		}()
	}
	wg.Wait()

	if want := initialTime.Add(10 * time.Second); !clock.Now().Equal(want) {
		t.Errorf("Expected %v after 10 advances, got %v", want, clock.Now())
	}
}
