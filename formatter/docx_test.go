package formatter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"

	"briefdraft-backend/storage"

	"baliance.com/gooxml/document"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraphs(t *testing.T, data []byte) []string {
	t.Helper()
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var out []string
	for _, p := range doc.Paragraphs() {
		var sb strings.Builder
		for _, r := range p.Runs() {
			sb.WriteString(r.Text())
		}
		out = append(out, sb.String())
	}
	return out
}

func TestRenderLayout(t *testing.T) {
	data, err := Render("EXCELENTÍSSIMO SENHOR\n\nI – Dos Fatos", "cli-9", "")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"MOURA MARTINS ADVOGADOS",
		"Cliente: cli-9 | Processo: —",
		"EXCELENTÍSSIMO SENHOR",
		"",
		"I – Dos Fatos",
	}, paragraphs(t, data))
}

func TestRenderWithoutClientOrCase(t *testing.T) {
	data, err := Render("linha única", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"MOURA MARTINS ADVOGADOS", "linha única"}, paragraphs(t, data))
}

func TestRenderStyles(t *testing.T) {
	data, err := Render("texto", "", "0001234-56.2024.8.09.0051")
	require.NoError(t, err)

	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	paras := doc.Paragraphs()
	require.Len(t, paras, 3)
	assert.Equal(t, "Title", paras[0].Style())
	assert.Equal(t, "Cliente: — | Processo: 0001234-56.2024.8.09.0051", paras[1].Runs()[0].Text())
}

var handlePattern = regexp.MustCompile(`^peca_[0-9a-f]{32}\.docx$`)

func TestFormatStoresDocument(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	f := NewDocxFormatter(store, log)

	handle, err := f.Format(context.Background(), "Termos em que pede deferimento.", "", "")
	require.NoError(t, err)
	assert.Regexp(t, handlePattern, handle)

	rc, err := store.Open(context.Background(), handle)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, paragraphs(t, data), "Termos em que pede deferimento.")
}

func TestConcurrentHandlesAreUnique(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	f := NewDocxFormatter(store, nil)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		handles = map[string]bool{}
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := f.Format(context.Background(), "mesmo texto", "c", "p")
			assert.NoError(t, err)
			mu.Lock()
			handles[h] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, handles, 10)
}

type brokenStorage struct {
	deleted []string
}

func (b *brokenStorage) Put(ctx context.Context, key string, data io.Reader, contentType string) error {
	return errors.New("disk full")
}
func (b *brokenStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, storage.ErrNotFound
}
func (b *brokenStorage) Exists(ctx context.Context, key string) (bool, error) { return false, nil }
func (b *brokenStorage) Delete(ctx context.Context, key string) error {
	b.deleted = append(b.deleted, key)
	return nil
}

func TestFormatStorageFailure(t *testing.T) {
	store := &brokenStorage{}
	f := NewDocxFormatter(store, nil)

	handle, err := f.Format(context.Background(), "texto", "", "")
	assert.ErrorIs(t, err, ErrFormattingFailed)
	assert.Empty(t, handle)
	require.Len(t, store.deleted, 1)
	assert.Regexp(t, handlePattern, store.deleted[0])
}
