package monitor

import "testing"

func TestMatchMask(t *testing.T) {
	tests := []struct {
		path string
		mask string
		want bool
	}{
		{`c:\1.txt`, "1.txt", true},
		{`c:\1.txt`, "2.txt", false},
		{`c:\1.txt`, "1.*", true},
		{`C:\1.TXT`, "1.txt", true},
		{`c:\1.txt`, "*.txt", true},
		{`c:\1.txt1`, "1.txt", false},
		{`c:\1.txt`, "1.t?t", true},
		{`c:\1.txt1`, "1.t?t", false},
		{"logs/app.log", "", true},
		{"a", "abc", false},
		{"logs/app+1.log", "app+1.log", true},
		{"logs/app+1.log", "app+?.log", true},
		{"logs/app.log", "*.txt", false},
		{"dir/sub/app.log", "sub/*.log", true},
	}
	for _, tt := range tests {
		if got := MatchMask(tt.path, tt.mask); got != tt.want {
			t.Errorf("MatchMask(%q, %q) = %v, want %v", tt.path, tt.mask, got, tt.want)
		}
	}
}

func TestHasWildcards(t *testing.T) {
	for mask, want := range map[string]bool{"*.log": true, "a?.log": true, "a.log": false, "": false} {
		if got := HasWildcards(mask); got != want {
			t.Errorf("HasWildcards(%q) = %v", mask, got)
		}
	}
}
