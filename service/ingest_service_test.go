package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"briefdraft-backend/formatter"
	"briefdraft-backend/models"
	"briefdraft-backend/vectorstore"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		want models.Category
	}{
		{"Modelo_Inicial.docx", models.CategoryOfficeTemplate},
		{"minuta-contestacao.txt", models.CategoryOfficeTemplate},
		{"juris_stj.pdf", models.CategoryCaseLaw},
		{"ACÓRDÃO 123.pdf", models.CategoryCaseLaw},
		{"ementa.txt", models.CategoryCaseLaw},
		{"procuracao.pdf", models.CategoryClientDocument},
		{"documento_rg.pdf", models.CategoryClientDocument},
		{"anexo1.docx", models.CategoryClientDocument},
		{"modelo_doc.docx", models.CategoryOfficeTemplate},
		{"inicial_consumidor.docx", models.CategoryGeneratedBrief},
		{"contestacao.DOCX", models.CategoryGeneratedBrief},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.name))
		})
	}
}

func TestDetectArea(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Ação de indenização por descumprimento de CONTRATO", "civil"},
		{"O fornecedor responde pelo vício", "consumidor"},
		{"pedido de recuperação judicial", "empresarial"},
		{"verbas de rescisão do empregado", "trabalho"},
		{"denúncia por crime de furto", "penal"},
		{"impetra-se HABEAS CORPUS", "remedios_constitucionais"},
		{"texto sem palavras-chave", "geral"},
		// civil terms are checked before consumer terms
		{"contrato com o consumidor", "civil"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectArea(tt.text))
		})
	}
}

func TestIngestMetadata(t *testing.T) {
	assert.Equal(t, map[string]string{"tipo": "modelo", "assunto": "civil"},
		IngestMetadata(models.CategoryOfficeTemplate, "civil", "m.docx"))
	assert.Equal(t, map[string]string{"tipo": "juris", "origem": "penal", "url": ""},
		IngestMetadata(models.CategoryCaseLaw, "penal", "j.pdf"))
	assert.Equal(t, map[string]string{"tipo": "doc", "cliente": "", "processo": "", "nome": "anexo.pdf"},
		IngestMetadata(models.CategoryClientDocument, "geral", "anexo.pdf"))
	assert.Equal(t, map[string]string{"tipo": "peca", "cliente": "", "processo": ""},
		IngestMetadata(models.CategoryGeneratedBrief, "geral", "p.txt"))
}

func TestIngestDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}

	write("modelo_inicial.txt", []byte("modelo de petição sobre contrato"))
	write("ementa_stj.txt", []byte("crime de furto, pena reduzida"))
	write("vazio.txt", []byte("   \n"))
	write("planilha.xlsx", []byte("ignored"))
	write("quebrado.pdf", []byte("not a pdf"))
	docx, err := formatter.Render("Contestação trabalhista", "", "")
	require.NoError(t, err)
	write("contestacao.docx", docx)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	log, hook := test.NewNullLogger()
	store := vectorstore.NewStore(vectorstore.NewMemoryBackend(), vectorstore.WithEmbedder(wordEmbedder{}))
	svc := NewIngestService(store, log)

	results, err := svc.IngestDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byName := map[string]IngestResult{}
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.Equal(t, models.CategoryGeneratedBrief, byName["contestacao.docx"].Kind)
	assert.Equal(t, "trabalho", byName["contestacao.docx"].Area)
	assert.Equal(t, models.CategoryCaseLaw, byName["ementa_stj.txt"].Kind)
	assert.Equal(t, "penal", byName["ementa_stj.txt"].Area)
	assert.Equal(t, models.CategoryOfficeTemplate, byName["modelo_inicial.txt"].Kind)
	assert.Equal(t, "civil", byName["modelo_inicial.txt"].Area)

	stats, err := store.Stats(context.Background(), 1)
	require.NoError(t, err)
	for _, st := range stats {
		if st.Category == models.CategoryCaseLaw {
			require.Len(t, st.Samples, 1)
			assert.Equal(t, "penal", st.Samples[0].Metadata["origem"])
		}
	}

	// the empty and broken files are reported
	assert.GreaterOrEqual(t, len(hook.AllEntries()), 2)
}

func TestIngestDirMissing(t *testing.T) {
	svc := NewIngestService(vectorstore.NewStore(vectorstore.NewMemoryBackend()), nil)
	_, err := svc.IngestDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestIngestFileErrors(t *testing.T) {
	svc := NewIngestService(vectorstore.NewStore(vectorstore.NewMemoryBackend()), nil)

	_, err := svc.IngestFile(context.Background(), "vazio.txt", []byte(""))
	assert.ErrorIs(t, err, ErrEmptyDocument)

	// no embedder configured
	_, err = svc.IngestFile(context.Background(), "peca.txt", []byte("texto"))
	assert.ErrorIs(t, err, vectorstore.ErrNoEmbedder)
}
