package engine

import "testing"

func TestNumericHelpers(t *testing.T) {
	if Min(3, -2) != -2 || Max(3, -2) != 3 {
		t.Fatalf("Min/Max")
	}
	if Abs(Score(-7)) != 7 || Abs(0) != 0 {
		t.Fatalf("Abs")
	}
	for _, tc := range []struct{ in, want int }{{0, 1}, {64, 64}, {9000, 4096}} {
		if got := Clamp(tc.in, 1, 4096); got != tc.want {
			t.Fatalf("Clamp(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
