package utils

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "trailing slash stripped",
			raw:  "https://kb.example.org/matlab/",
			want: "https://kb.example.org/matlab",
		},
		{
			name: "query string dropped",
			raw:  "https://kb.example.org/matlab?lang=de&ref=home",
			want: "https://kb.example.org/matlab",
		},
		{
			name: "fragment dropped",
			raw:  "https://kb.example.org/matlab#lizenz",
			want: "https://kb.example.org/matlab",
		},
		{
			name: "host lowercased",
			raw:  "HTTPS://KB.Example.org/MATLAB",
			want: "https://kb.example.org/MATLAB",
		},
		{
			name: "surrounding whitespace trimmed",
			raw:  "  https://kb.example.org/matlab  ",
			want: "https://kb.example.org/matlab",
		},
		{
			name: "already canonical stays unchanged",
			raw:  "https://kb.example.org/matlab",
			want: "https://kb.example.org/matlab",
		},
		{
			name: "hostless input trimmed only",
			raw:  "not a url/",
			want: "not a url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.raw); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeURLVariantsCollapse(t *testing.T) {
	variants := []string{
		"https://kb.example.org/matlab",
		"https://kb.example.org/matlab/",
		"https://kb.example.org/matlab?utm=x",
		"https://kb.example.org/matlab#top",
	}
	want := NormalizeURL(variants[0])
	for _, v := range variants {
		if got := NormalizeURL(v); got != want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", v, got, want)
		}
	}
}
