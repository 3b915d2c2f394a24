package taggable

import "testing"

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "red", want: []string{"red"}},
		{in: "red, green,blue", want: []string{"red", "green", "blue"}},
		{in: " , red,, ,green ,red", want: []string{"red", "green"}},
		{in: "navy blue , sky blue", want: []string{"navy blue", "sky blue"}},
		{in: ",,,", want: nil},
	}
	for _, tt := range tests {
		got := ParseList(tt.in)
		if len(got) != len(tt.want) {
			t.Fatalf("ParseList(%q) = %q, want %q", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseList(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestJoinList(t *testing.T) {
	if got := JoinList([]string{"red", "green"}); got != "red, green" {
		t.Errorf("JoinList() = %q", got)
	}
	if got := JoinList(nil); got != "" {
		t.Errorf("JoinList(nil) = %q", got)
	}
}
