package assets

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

// minimal PNG signature followed by padding
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func TestSave(t *testing.T) {
	s, err := NewStore(t.TempDir(), 1024)
	require.NoError(t, err)

	ref, err := s.Save(`C:\Users\me\My Payment.PNG`, bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, "_my-payment.png"), ref)
	assert.True(t, s.Exists(ref))

	data, err := os.ReadFile(filepath.Join(s.Dir(), ref))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestSaveRejects(t *testing.T) {
	s, err := NewStore(t.TempDir(), 64)
	require.NoError(t, err)

	cases := []struct {
		name string
		file string
		data []byte
	}{
		{"extension", "proof.gif", pngBytes},
		{"content", "proof.jpg", []byte("not an image at all")},
		{"size", "proof.png", append(pngBytes, bytes.Repeat([]byte{0}, 64)...)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Save(tc.file, bytes.NewReader(tc.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}

func TestExistsRejectsTraversal(t *testing.T) {
	s, err := NewStore(t.TempDir(), 0)
	require.NoError(t, err)
	assert.False(t, s.Exists("../etc/passwd"))
	assert.False(t, s.Exists(""))
}
