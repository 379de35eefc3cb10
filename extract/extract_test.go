package extract

import (
	"testing"

	"briefdraft-backend/formatter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	got, err := Text("notas.TXT", []byte("contrato de locação"))
	require.NoError(t, err)
	assert.Equal(t, "contrato de locação", got)

	got, err = Text("lixo.txt", []byte{'a', 0xff, 'b'})
	require.NoError(t, err)
	assert.Equal(t, "a�b", got)
}

func TestTextDocx(t *testing.T) {
	data, err := formatter.Render("Dos Fatos\nDo Direito", "", "")
	require.NoError(t, err)

	got, err := Text("peca.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "MOURA MARTINS ADVOGADOS\nDos Fatos\nDo Direito\n", got)
}

func TestTextErrors(t *testing.T) {
	_, err := Text("planilha.xlsx", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Text("sem-extensao", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Text("quebrado.pdf", []byte("not a pdf"))
	assert.Error(t, err)

	_, err = Text("quebrado.docx", []byte("not a zip"))
	assert.Error(t, err)
}

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.DOCX", "c.txt"} {
		assert.True(t, Supported(name), name)
	}
	for _, name := range []string{"a.doc", "b.odt", "c"} {
		assert.False(t, Supported(name), name)
	}
}
