package log

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLevelParsing(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"ERROR", zerolog.ErrorLevel},
		{" info ", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := New(tt.in).GetLevel(); got != tt.want {
				t.Errorf("New(%q).GetLevel() = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
