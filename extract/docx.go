package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"

	docx "github.com/fumiama/go-docx"
)

// maxUnpacked bounds the declared uncompressed size of all archive members.
const maxUnpacked = 10 * MaxFileSize

var errUnpackedTooLarge = errors.New("docx expands beyond limit")

// DocxText returns the raw text of a .docx document: one entry per
// paragraph, separated by blank lines. Table cells contribute their
// paragraphs in reading order.
func DocxText(data []byte) (string, error) {
	if err := checkUnpacked(data); err != nil {
		return "", err
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var paras []string
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			paras = append(paras, it.String())
		case *docx.Table:
			paras = appendTable(paras, it)
		}
	}
	return strings.Join(paras, "\n\n"), nil
}

func appendTable(paras []string, t *docx.Table) []string {
	for _, row := range t.TableRows {
		for _, cell := range row.TableCells {
			for _, p := range cell.Paragraphs {
				paras = append(paras, p.String())
			}
			for _, nested := range cell.Tables {
				paras = appendTable(paras, nested)
			}
		}
	}
	return paras
}

// checkUnpacked rejects archives whose members expand past maxUnpacked.
// archive/zip refuses to read more than a member's declared size.
func checkUnpacked(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open docx: %w", err)
	}

	var total uint64
	for _, f := range zr.File {
		total += f.UncompressedSize64
		if total > maxUnpacked {
			return errUnpackedTooLarge
		}
	}
	return nil
}
