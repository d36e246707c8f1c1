package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", DefaultMaxCodeSize - 1, false},
		{"Exact Limit", DefaultMaxCodeSize, false},
		{"Over Limit", DefaultMaxCodeSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Code(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCode_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxCodeSize, "8")
	_, err := Code("123456789")
	assert.ErrorIs(t, err, ErrTooLarge)

	t.Setenv(EnvMaxCodeSize, "garbage")
	_, err = Code("123456789")
	assert.NoError(t, err)
}

func TestCode_ControlCharacters(t *testing.T) {
	got, err := Code("line1\n\tline2\r\n\x1b[31mred\x00\a")
	require.NoError(t, err)
	assert.Equal(t, "line1\n\tline2\r\n[31mred", got)
}

func TestCode_InvalidUTF8(t *testing.T) {
	_, err := Code("ok \xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestLabel(t *testing.T) {
	got, err := Label("  Send\nEmail\x1b ")
	require.NoError(t, err)
	assert.Equal(t, "SendEmail", got)

	got, err = Label("Envoyer un e-mail ✉")
	require.NoError(t, err)
	assert.Equal(t, "Envoyer un e-mail ✉", got)

	_, err = Label(strings.Repeat("x", MaxLabelSize+1))
	assert.ErrorIs(t, err, ErrTooLarge)
}
