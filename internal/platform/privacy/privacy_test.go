package privacy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"192.168.1.47", "192.168.1.0"},
		{"127.0.0.1", "127.0.0.0"},
		{"::ffff:10.1.2.3", "10.1.2.0"},
		{"2001:db8:85a3::8a2e:370:7334", "2001:db8:85a3::"},
		{"", "unknown"},
		{"unknown", "unknown"},
		{"not-an-ip", "invalid"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, AnonymizeIP(tt.input), tt.input)
	}
}

func TestEmailRef(t *testing.T) {
	t.Run("stable across case and whitespace", func(t *testing.T) {
		assert.Equal(t, EmailRef("jo@x.com"), EmailRef("  JO@X.com "))
	})

	t.Run("hides the local part", func(t *testing.T) {
		ref := EmailRef("jo.doe@example.com")
		assert.NotContains(t, ref, "jo.doe")
		assert.True(t, strings.HasSuffix(ref, "@example.com"))
	})

	t.Run("empty stays empty", func(t *testing.T) {
		assert.Empty(t, EmailRef(""))
	})
}
