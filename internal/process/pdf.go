package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// PDFProcessor extracts text from PDF payloads natively via pdfcpu
// content-stream parsing. Scanned PDFs with no text layer come back
// empty here and should go through the external extractor instead.
type PDFProcessor struct{}

// NewPDFProcessor creates the native PDF processor.
func NewPDFProcessor() *PDFProcessor {
	return &PDFProcessor{}
}

func (p *PDFProcessor) Name() string { return "pdf" }

func (p *PDFProcessor) Priority() int { return 20 }

func (p *PDFProcessor) CanProcess(content *domain.FetchedContent) bool {
	if strings.Contains(strings.ToLower(content.MimeType), "application/pdf") {
		return true
	}
	return bytes.HasPrefix(content.Bytes, []byte("%PDF-"))
}

func (p *PDFProcessor) Process(ctx context.Context, content *domain.FetchedContent) (*domain.ProcessedContent, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(content.Bytes), conf)
	if err != nil {
		return nil, fmt.Errorf("pdf read: %w", err)
	}

	var text strings.Builder
	var title string
	pagesWithText := 0

	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageText := pageContentText(pdfCtx, pageNr)
		if pageText == "" {
			continue
		}
		pagesWithText++

		if title == "" {
			title = firstTextLine(pageText)
		}

		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(pageText)
	}

	if pagesWithText == 0 {
		return nil, fmt.Errorf("no text layer in pdf: %s", content.URL)
	}

	return &domain.ProcessedContent{
		Text:  text.String(),
		Title: title,
		Metadata: map[string]string{
			"source_url":      content.URL,
			"page_count":      strconv.Itoa(pdfCtx.PageCount),
			"pages_with_text": strconv.Itoa(pagesWithText),
		},
		Structure: &domain.DocumentOutline{Sections: pagesWithText},
	}, nil
}

// pageContentText extracts the text layer of a single page from its
// content stream.
func pageContentText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

// pdfLiteralRe matches PDF string literals in parentheses.
var pdfLiteralRe = regexp.MustCompile(`\(([^)]*)\)`)

// textFromContentStream walks content-stream operators and collects the
// shown text: Tj/TJ show strings, ' shows on the next line, Td/TD/T*
// move the text cursor.
func textFromContentStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfLiteralRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFLiteral(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfLiteralRe.FindAllSubmatch(line, -1) {
				if s := decodePDFLiteral(m[1]); s != "" {
					sb.WriteByte('\n')
					sb.WriteString(s)
				}
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return normalizePDFText(sb.String())
}

// decodePDFLiteral resolves backslash escapes, including octal codes.
func decodePDFLiteral(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// normalizePDFText collapses whitespace runs and drops non-printable
// runes.
func normalizePDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

func firstTextLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 200 {
			line = line[:200]
		}
		return line
	}
	return ""
}
