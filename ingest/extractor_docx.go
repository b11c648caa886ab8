package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Compile-time interface check.
var _ Extractor = (*DOCXExtractor)(nil)

// maxZipEntrySize limits decompressed size of individual zip entries
// to prevent zip bomb attacks (100 MB).
const maxZipEntrySize = 100 << 20

// DOCXExtractor implements Extractor for DOCX documents. It streams OOXML
// tokens out of word/document.xml to extract paragraph and table text
// without loading the full DOM tree into memory.
type DOCXExtractor struct{}

// NewDOCXExtractor creates a DOCX extractor.
func NewDOCXExtractor() *DOCXExtractor { return &DOCXExtractor{} }

// Extract extracts plain text from a DOCX document. Table rows are
// flattened to labeled "Header: Value" paragraphs.
func (e *DOCXExtractor) Extract(content []byte) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("empty docx content")
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}
	docData, err := docxFindAndRead(zr)
	if err != nil {
		return "", err
	}
	return docxParseDocument(docData)
}

// docxFindAndRead locates and reads word/document.xml from a zip reader.
func docxFindAndRead(zr *zip.Reader) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			data, err := docxReadZipFile(f)
			if err != nil {
				return nil, fmt.Errorf("read document.xml: %w", err)
			}
			return data, nil
		}
	}
	return nil, fmt.Errorf("missing word/document.xml")
}

func docxReadZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	lr := io.LimitReader(rc, maxZipEntrySize+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if len(data) > maxZipEntrySize {
		return nil, fmt.Errorf("zip entry %s exceeds %d byte limit", f.Name, maxZipEntrySize)
	}
	return data, nil
}

// docxParseState tracks the streaming XML decoder state.
type docxParseState struct {
	text    strings.Builder
	decoder *xml.Decoder

	inParagraph    bool
	inRun          bool
	paragraphTexts []string

	inTable      bool
	inTableRow   bool
	tableHeaders []string
	tableRowIdx  int
	cellTexts    []string
	currentCell  strings.Builder
}

func docxParseDocument(data []byte) (string, error) {
	s := &docxParseState{
		decoder: xml.NewDecoder(bytes.NewReader(data)),
	}

	for {
		tok, err := s.decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			s.handleStart(t)
		case xml.EndElement:
			s.handleEnd(t)
		case xml.CharData:
			s.handleCharData(t)
		}
	}

	return strings.TrimSpace(s.text.String()), nil
}

func (s *docxParseState) handleStart(t xml.StartElement) {
	switch t.Name.Local {
	case "p":
		s.inParagraph = true
		s.paragraphTexts = nil
	case "r":
		s.inRun = true
	case "tbl":
		s.inTable = true
		s.tableHeaders = nil
		s.tableRowIdx = 0
	case "tr":
		s.inTableRow = true
		s.cellTexts = nil
	case "tc":
		s.currentCell.Reset()
	}
}

func (s *docxParseState) handleEnd(t xml.EndElement) {
	switch t.Name.Local {
	case "r":
		s.inRun = false
	case "tc":
		s.cellTexts = append(s.cellTexts, strings.TrimSpace(s.currentCell.String()))
	case "tr":
		s.inTableRow = false
		if !s.inTable {
			return
		}
		if s.tableRowIdx == 0 {
			s.tableHeaders = make([]string, len(s.cellTexts))
			copy(s.tableHeaders, s.cellTexts)
		} else {
			s.emitTableRow()
		}
		s.tableRowIdx++
	case "tbl":
		s.inTable = false
	case "p":
		s.endParagraph()
	}
}

func (s *docxParseState) handleCharData(data xml.CharData) {
	content := string(data)
	if s.inTable && s.inTableRow {
		s.currentCell.WriteString(content)
		return
	}
	if s.inParagraph && s.inRun {
		s.paragraphTexts = append(s.paragraphTexts, content)
	}
}

func (s *docxParseState) emitTableRow() {
	var fields []string
	for i, val := range s.cellTexts {
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		header := ""
		if i < len(s.tableHeaders) {
			header = s.tableHeaders[i]
		}
		if header != "" {
			fields = append(fields, fmt.Sprintf("%s: %s", header, val))
		} else {
			fields = append(fields, val)
		}
	}
	if len(fields) == 0 {
		return
	}
	if s.text.Len() > 0 {
		s.text.WriteString("\n\n")
	}
	s.text.WriteString(strings.Join(fields, ", "))
}

func (s *docxParseState) endParagraph() {
	s.inParagraph = false
	if s.inTable {
		return
	}
	paraText := strings.TrimSpace(strings.Join(s.paragraphTexts, ""))
	if paraText == "" {
		return
	}
	if s.text.Len() > 0 {
		s.text.WriteString("\n\n")
	}
	s.text.WriteString(paraText)
}
