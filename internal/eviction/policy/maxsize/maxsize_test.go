package maxsize

import "testing"

func TestPolicy(t *testing.T) {
	cases := []struct {
		max, current, want int64
	}{
		{max: 150, current: 300, want: 150},
		{max: 150, current: 150, want: 0},
		{max: 150, current: 10, want: 0},
		{max: 0, current: 42, want: 42},
		{max: 0, current: 0, want: 0},
	}
	for _, c := range cases {
		p := &Policy{MaxBytes: c.max}
		got, err := p.BytesToFree(c.current)
		if err != nil {
			t.Fatalf("BytesToFree(%d) failed: %v", c.current, err)
		}
		if got != c.want {
			t.Errorf("max=%d current=%d: expected %d, got %d", c.max, c.current, c.want, got)
		}
	}
}
