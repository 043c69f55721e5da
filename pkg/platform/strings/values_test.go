package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanList(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		fold bool
		want []string
	}{
		{"nil stays nil", nil, false, nil},
		{"trims and drops empties", []string{" a ", "", "  ", "b"}, false, []string{"a", "b"}},
		{"keeps first occurrence", []string{"b", "a", "b "}, false, []string{"b", "a"}},
		{"case sensitive without fold", []string{"Failed", "failed"}, false, []string{"Failed", "failed"}},
		{"fold merges case", []string{"Failed", " failed", "SENT"}, true, []string{"failed", "sent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanList(tt.in, tt.fold))
		})
	}
}
