package gnu

import (
	"slices"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "2.0", -1},
		{"2.0", "1.0", 1},
		{"1.0", "1.0", 0},

		{"1.2.10", "1.2.9", 1},
		{"1.10", "1.9", 1},
		{"2", "10", -1},

		// leading zeros are ignored
		{"1.01", "1.1", 0},
		{"001", "01", 0},

		{"", "", 0},
		{"1", "", 1},
		{"", "1", -1},

		// '~' sorts before everything, including the end of string
		{"1.0~rc1", "1.0", -1},
		{"1.0~alpha", "1.0~beta", -1},
		{"~", "", -1},

		{"a", "1", 1},
		{"1.0a", "1.0b", -1},
		{"1.0a", "1.0", 1},
		{"1.0.0-rc10", "1.0.0-rc9", 1},

		// recipe-style versions
		{"cci.20230101", "cci.20231231", -1},
		{"1.2.11", "1.2.11a", -1},
		{"1.88.0", "1.88.0.1", -1},
		{"1-2", "1.2", -1},
		{"1_2", "1.2", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareAntisymmetric(t *testing.T) {
	pairs := [][2]string{
		{"1.0", "2.0"},
		{"1.10", "1.9"},
		{"1.0~rc1", "1.0"},
		{"cci.20230101", "1.0"},
		{"1.0alpha", "1.0beta"},
	}
	for _, p := range pairs {
		if ab, ba := Compare(p[0], p[1]), Compare(p[1], p[0]); ab != -ba {
			t.Errorf("Compare(%q, %q)=%d but Compare(%q, %q)=%d", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func TestLessSortsVersions(t *testing.T) {
	got := []string{"1.10.0", "1.2.0", "1.9.1", "1.2.0~rc1", "1.88.0"}
	slices.SortFunc(got, Compare)
	want := []string{"1.2.0~rc1", "1.2.0", "1.9.1", "1.10.0", "1.88.0"}
	if !slices.Equal(got, want) {
		t.Errorf("sorted = %v, want %v", got, want)
	}
	if !Less("1.2", "1.10") {
		t.Error("Less(1.2, 1.10) = false, want true")
	}
}

func TestOrder(t *testing.T) {
	tests := []struct {
		c    byte
		want int
	}{
		{'0', 0},
		{'9', 0},
		{'a', int('a')},
		{'Z', int('Z')},
		{'~', -1},
		{0, 0},
		{'.', int('.') + 256},
		{'-', int('-') + 256},
	}

	for _, tt := range tests {
		t.Run(string(tt.c), func(t *testing.T) {
			if got := order(tt.c); got != tt.want {
				t.Errorf("order(%q) = %d, want %d", tt.c, got, tt.want)
			}
		})
	}
}
