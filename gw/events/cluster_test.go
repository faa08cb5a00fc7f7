package events

import "testing"

func TestClusterOverWindow(t *testing.T) {
	tests := []struct {
		name   string
		times  []int
		values []complex128
		window int
		want   []int
	}{
		{
			name:   "single cluster keeps loudest",
			times:  []int{10, 12, 14},
			values: []complex128{2, 5, 3},
			window: 10,
			want:   []int{1},
		},
		{
			name:   "separated crossings stay",
			times:  []int{0, 100, 200},
			values: []complex128{1, 2, 3},
			window: 10,
			want:   []int{0, 1, 2},
		},
		{
			name:   "window boundary does not merge",
			times:  []int{0, 5},
			values: []complex128{3, 3},
			window: 5,
			want:   []int{0, 1},
		},
		{
			name:   "just inside the window merges",
			times:  []int{0, 4},
			values: []complex128{3, 2},
			window: 5,
			want:   []int{0},
		},
		{
			name:   "tie keeps earliest",
			times:  []int{0, 4},
			values: []complex128{3, 3},
			window: 5,
			want:   []int{0},
		},
		{
			name:   "anchor walk not global maximum",
			times:  []int{0, 4, 8},
			values: []complex128{1, 5, 2},
			window: 5,
			want:   []int{1},
		},
		{
			name:   "window zero keeps all",
			times:  []int{0, 1, 2},
			values: []complex128{1, 2, 3},
			window: 0,
			want:   []int{0, 1, 2},
		},
		{
			name:   "empty input",
			times:  nil,
			values: nil,
			window: 5,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClusterOverWindow(tt.times, tt.values, tt.window)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestClusterIdempotent(t *testing.T) {
	times := []int{0, 3, 7, 40, 44, 90}
	values := []complex128{1, 4, 2, 6, 3, 5}

	t1, v1 := ClusterReduce(times, values, 8)
	t2, v2 := ClusterReduce(t1, v1, 8)

	if len(t1) != len(t2) {
		t.Fatalf("clustering not idempotent: %v then %v", t1, t2)
	}
	for i := range t1 {
		if t1[i] != t2[i] || v1[i] != v2[i] {
			t.Fatalf("clustering not idempotent: %v then %v", t1, t2)
		}
	}
}
