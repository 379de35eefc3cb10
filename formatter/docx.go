package formatter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"briefdraft-backend/logger"
	"briefdraft-backend/storage"

	"baliance.com/gooxml/document"
	"baliance.com/gooxml/measurement"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrFormattingFailed wraps every failure to render or persist a document
var ErrFormattingFailed = errors.New("formatting failed")

const (
	OfficeName = "MOURA MARTINS ADVOGADOS"
	FontFamily = "Times New Roman"
	FontSize   = 12 * measurement.Point

	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Formatter renders brief text into a downloadable document
type Formatter interface {
	Format(ctx context.Context, text, clientID, caseID string) (string, error)
}

// DocxFormatter writes DOCX files into the generated-documents storage
type DocxFormatter struct {
	store storage.Storage
	log   logrus.FieldLogger
}

func NewDocxFormatter(store storage.Storage, log logrus.FieldLogger) *DocxFormatter {
	return &DocxFormatter{store: store, log: logger.Component(log, "formatter")}
}

// Format renders text and stores it under a fresh peca_{hex}.docx handle,
// which is returned. Nothing is left in storage on failure.
func (f *DocxFormatter) Format(ctx context.Context, text, clientID, caseID string) (string, error) {
	data, err := Render(text, clientID, caseID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFormattingFailed, err)
	}

	handle := NewHandle()
	if err := f.store.Put(ctx, handle, bytes.NewReader(data), docxContentType); err != nil {
		if delErr := f.store.Delete(context.WithoutCancel(ctx), handle); delErr != nil {
			f.log.WithError(delErr).WithField("handle", handle).Warn("failed to remove partial document")
		}
		return "", fmt.Errorf("%w: store %s: %v", ErrFormattingFailed, handle, err)
	}

	f.log.WithFields(logrus.Fields{
		"handle": handle,
		"bytes":  len(data),
	}).Info("document stored")
	return handle, nil
}

// NewHandle returns a unique file handle for a generated brief
func NewHandle() string {
	return "peca_" + strings.ReplaceAll(uuid.NewString(), "-", "") + ".docx"
}

// Render builds the DOCX bytes: office heading, optional client/case line,
// then one paragraph per line of text.
func Render(text, clientID, caseID string) ([]byte, error) {
	doc := document.New()

	heading := doc.AddParagraph()
	heading.SetStyle("Title")
	addRun(heading, OfficeName)

	if clientID != "" || caseID != "" {
		addRun(doc.AddParagraph(), fmt.Sprintf("Cliente: %s | Processo: %s", orDash(clientID), orDash(caseID)))
	}

	for _, line := range strings.Split(text, "\n") {
		addRun(doc.AddParagraph(), line)
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, fmt.Errorf("save docx: %w", err)
	}
	return buf.Bytes(), nil
}

func addRun(p document.Paragraph, text string) {
	run := p.AddRun()
	run.Properties().SetFontFamily(FontFamily)
	run.Properties().SetSize(FontSize)
	run.AddText(text)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
