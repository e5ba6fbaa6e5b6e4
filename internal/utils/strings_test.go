package utils_test

import (
	"testing"

	"github.com/jkroepke/pam-oauth2-device/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestRedact(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name     string
		secret   string
		n        int
		expected string
	}{
		{"empty", "", 4, "***"},
		{"short secret", "abc", 4, "***"},
		{"equal length", "abcd", 4, "****"},
		{"long secret", "D1273234", 4, "D127..."},
		{"zero length", "D1273234", 0, "***"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, utils.Redact(tc.secret, tc.n))
		})
	}
}
