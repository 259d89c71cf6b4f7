package inspiration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURLForImages(t *testing.T) {
	url, err := DataURL("upload.png", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	url, err = DataURL("Photo.JPEG", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))
}

func TestDataURLRejectsUnsupported(t *testing.T) {
	_, err := DataURL("vacation.heic", []byte{1})
	assert.Error(t, err)

	_, err = DataURL("noextension", []byte{1})
	assert.Error(t, err)
}

func TestDataURLRejectsBrokenPDF(t *testing.T) {
	_, err := DataURL("doc.pdf", []byte("not a pdf"))
	assert.Error(t, err)
}
