package splitmsg

import (
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{
			name:  "empty input yields no chunks",
			text:  "",
			limit: 10,
			want:  nil,
		},
		{
			name:  "short input is a single chunk",
			text:  "hello",
			limit: 10,
			want:  []string{"hello"},
		},
		{
			name:  "input at exactly the limit stays whole",
			text:  "1234567890",
			limit: 10,
			want:  []string{"1234567890"},
		},
		{
			name:  "cut prefers the newline",
			text:  "aaaa bbbb\ncccc dddd",
			limit: 12,
			want:  []string{"aaaa bbbb\n", "cccc dddd"},
		},
		{
			name:  "cut falls back to the last space",
			text:  "aaaa bbbb cccc",
			limit: 12,
			want:  []string{"aaaa bbbb ", "cccc"},
		},
		{
			name:  "single long word is cut hard",
			text:  "aaaaaaaaaaaaaaa",
			limit: 10,
			want:  []string{"aaaaaaaaaa", "aaaaa"},
		},
		{
			name:  "break point in the first half is ignored",
			text:  "ab cdefghijklmnop",
			limit: 10,
			want:  []string{"ab cdefghi", "jklmnop"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("Split() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitIsLossless(t *testing.T) {
	text := strings.Repeat("some words on a line\n", 500)
	chunks := Split(text, 100)

	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d is %d bytes, over the limit", i, len(c))
		}
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
	if joined := strings.Join(chunks, ""); joined != text {
		t.Error("concatenated chunks do not reproduce the input")
	}
}
