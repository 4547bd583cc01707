package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestDetectEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{
			name:    "meta charset attribute",
			content: []byte(`<html><head><meta charset="utf-8"></head><body>Hello</body></html>`),
			want:    "utf-8",
		},
		{
			name:    "http-equiv content type",
			content: []byte(`<html><head><meta http-equiv="Content-Type" content="text/html; charset=utf-8"></head></html>`),
			want:    "utf-8",
		},
		{
			name:    "latin-1 declaration",
			content: []byte(`<html><head><meta charset="iso-8859-1"></head></html>`),
			want:    "iso-8859-1",
		},
		{
			name:    "uppercase declaration is normalized",
			content: []byte(`<html><head><meta CHARSET="UTF-8"></head></html>`),
			want:    "utf-8",
		},
		{
			name:    "single quoted declaration",
			content: []byte(`<html><head><meta charset='utf-8'></head></html>`),
			want:    "utf-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectEncoding(tt.content))
		})
	}

	t.Run("undeclared content still yields a name", func(t *testing.T) {
		// Sniffing may report windows-1252 for plain ASCII; the only
		// guarantee is a non-empty answer.
		assert.NotEmpty(t, DetectEncoding([]byte("<html><body>Hello</body></html>")))
		assert.NotEmpty(t, DetectEncoding(nil))
	})
}

func TestConvertToUTF8(t *testing.T) {
	t.Parallel()

	t.Run("utf-8 passes through untouched", func(t *testing.T) {
		in := []byte(`<html><head><meta charset="utf-8"></head><body>héllo wörld</body></html>`)
		out, err := ConvertToUTF8(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("latin-1 is re-encoded", func(t *testing.T) {
		// "café" with é as the single Latin-1 byte 0xE9.
		prefix := `<html><head><meta charset="iso-8859-1"></head><body>caf`
		latin1 := append([]byte(prefix), 0xE9)
		latin1 = append(latin1, []byte(`</body></html>`)...)

		out, err := ConvertToUTF8(latin1)
		require.NoError(t, err)
		assert.Contains(t, string(out), "café")
	})

	t.Run("unknown charset passes through", func(t *testing.T) {
		in := []byte(`<html><head><meta charset="x-no-such-encoding"></head><body>hi</body></html>`)
		out, err := ConvertToUTF8(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("windows-1252 smart quotes", func(t *testing.T) {
		enc := charmap.Windows1252.NewEncoder()
		raw, err := enc.Bytes([]byte(`<html><head><meta charset="windows-1252"></head><body>“quoted”</body></html>`))
		require.NoError(t, err)

		out, err := ConvertToUTF8(raw)
		require.NoError(t, err)
		assert.Contains(t, string(out), "“quoted”")
	})
}
