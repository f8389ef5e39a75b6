package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		seconds int
		want    Category
	}{
		{seconds: 0, want: Minor},
		{seconds: 29, want: Minor},
		{seconds: 30, want: Medium},
		{seconds: 119, want: Medium},
		{seconds: 120, want: Large},
		{seconds: 299, want: Large},
		{seconds: 300, want: Catastrophic},
		{seconds: 301, want: Catastrophic},
		{seconds: -5, want: Minor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.seconds), "classify(%d)", tt.seconds)
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	prev := Classify(0)
	for d := 1; d <= 1000; d++ {
		cur := Classify(d)
		assert.GreaterOrEqual(t, cur.Rank(), prev.Rank(), "classify(%d) dropped below classify(%d)", d, d-1)
		prev = cur
	}
}

func TestIsSuccessful(t *testing.T) {
	tests := []struct {
		name      string
		durations []int
		want      bool
	}{
		{name: "no violations", durations: nil, want: true},
		{name: "pooled 299 seconds", durations: []int{100, 100, 99}, want: true},
		{name: "pooled exactly 300 seconds", durations: []int{150, 150}, want: false},
		{name: "two participants 100 and 150", durations: []int{100, 150}, want: true},
		{name: "single catastrophic", durations: []int{300}, want: false},
		{name: "manual zero-length reports", durations: []int{0, 0, 0}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSuccessful(tt.durations))
		})
	}
}
