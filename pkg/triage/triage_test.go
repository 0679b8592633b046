package triage

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name       string
		severity   int
		polytrauma bool
		codes      []string
		want       Category
	}{
		{"severe", 9, false, nil, T1},
		{"polytrauma urgent becomes immediate", 6, true, nil, T1},
		{"urgent no polytrauma", 6, false, nil, T2},
		{"delayed", 4, false, nil, T3},
		{"minimal", 1, false, nil, T4},
		{"tbi forces immediate regardless of severity", 2, false, []string{"127294003"}, T1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.severity, c.polytrauma, c.codes)
			if got != c.want {
				t.Errorf("Classify(%d, %v, %v) = %s, want %s", c.severity, c.polytrauma, c.codes, got, c.want)
			}
		})
	}
}
