package service

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"awardforge-backend/models"

	"github.com/ledongthuc/pdf"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrSizeLimit         = errors.New("document exceeds size limit")
)

const maxDocumentSize = 10 * 1024 * 1024 // 10MB

// DocumentTextExtractor converts a binary document into plain text plus
// lightweight metadata. Leaf component with no dependencies on the rest of
// the pipeline.
type DocumentTextExtractor struct {
	maxSize int64
}

// NewDocumentTextExtractor creates an extractor with the default size limit.
func NewDocumentTextExtractor() *DocumentTextExtractor {
	return &DocumentTextExtractor{maxSize: maxDocumentSize}
}

// Extract converts doc into plain text, concatenating per-page text in page
// order. Fails with ErrUnsupportedFormat for non-PDF documents and
// ErrSizeLimit for oversized payloads.
func (e *DocumentTextExtractor) Extract(doc *models.RawDocument) (*models.ExtractedText, error) {
	if doc == nil || len(doc.Data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrUnsupportedFormat)
	}
	if !isPDFDocument(doc.MimeType, doc.Filename) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, doc.Filename)
	}
	size := doc.Size
	if size == 0 {
		size = int64(len(doc.Data))
	}
	if size > e.maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrSizeLimit, size, e.maxSize)
	}

	extracted := extractPDF(doc.Data)
	if extracted.Text == "" {
		// Malformed PDF internals: salvage whatever printable text exists
		// rather than failing the invocation.
		extracted.Text = extractPrintableText(doc.Data)
	}
	return extracted, nil
}

// isPDFDocument checks the declared type and the filename extension.
func isPDFDocument(mimeType, filename string) bool {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "application/pdf", "application/x-pdf":
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// extractPDF walks every page in order and concatenates the per-page plain
// text. The pdf library panics on some malformed files, so recover and fall
// back to an empty result the caller can salvage.
func extractPDF(data []byte) (out *models.ExtractedText) {
	out = &models.ExtractedText{}
	defer func() {
		if r := recover(); r != nil {
			out.Text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return out
	}

	out.PageCount = reader.NumPage()
	out.Title = docInfoString(reader, "Title")
	out.Author = docInfoString(reader, "Author")

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	out.Text = buf.String()
	return out
}

// docInfoString reads a string entry from the PDF trailer Info dictionary.
func docInfoString(reader *pdf.Reader, key string) string {
	v := reader.Trailer().Key("Info").Key(key)
	if v.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(v.RawString())
}

// extractPrintableText keeps printable runes and drops everything else. Last
// resort for payloads the PDF reader cannot parse.
func extractPrintableText(in []byte) string {
	var out bytes.Buffer
	for len(in) > 0 {
		r, size := utf8.DecodeRune(in)
		if r == utf8.RuneError && size == 1 {
			b := in[0]
			if b == '\n' || b == '\t' || (b >= 32 && b < 127) {
				out.WriteByte(b)
			}
			in = in[1:]
			continue
		}
		in = in[size:]
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			out.WriteRune(r)
		}
	}
	return out.String()
}

var (
	pageNumberLine = regexp.MustCompile(`^(?i)(page\s*)?\d+(\s*(/|of)\s*\d+)?$|^第\s*\d+\s*页$|^-\s*\d+\s*-$`)
	whitespaceRun  = regexp.MustCompile(`[ \t\x{3000}]+`)
)

// Preprocess cleans extracted text: collapses whitespace, strips running
// headers/footers and standalone page-number lines, and merges adjacent CJK
// text without intervening whitespace. Pure function.
func Preprocess(text string) string {
	rawLines := strings.Split(text, "\n")

	// Short lines repeated across pages are running headers or footers.
	counts := make(map[string]int)
	for _, line := range rawLines {
		line = strings.TrimSpace(line)
		if line != "" && utf8.RuneCountInString(line) <= 60 {
			counts[line]++
		}
	}

	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		line = whitespaceRun.ReplaceAllString(strings.TrimSpace(line), " ")
		if line == "" {
			continue
		}
		if pageNumberLine.MatchString(line) {
			continue
		}
		if utf8.RuneCountInString(line) <= 60 && counts[line] >= 3 {
			continue
		}
		lines = append(lines, line)
	}

	var buf strings.Builder
	for i, line := range lines {
		if i > 0 {
			prev, _ := utf8.DecodeLastRuneInString(lines[i-1])
			next, _ := utf8.DecodeRuneInString(line)
			// CJK text carries no inter-word spaces; joining with one would
			// invent whitespace the source never had.
			if !isCJK(prev) || !isCJK(next) {
				buf.WriteString(" ")
			}
		}
		buf.WriteString(line)
	}
	return strings.TrimSpace(buf.String())
}

func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

var (
	deadlinePattern = regexp.MustCompile(`(?i)deadline|due date|submit(ted)? by|closing date|截止|期限`)
	scorePattern    = regexp.MustCompile(`(?i)score|scoring|point(s)?\b|分数|积分|得分|评分`)
	memberPattern   = regexp.MustCompile(`(?i)member(ship)?|会员|成员`)
	activityPattern = regexp.MustCompile(`(?i)activit|event\b|活动`)
)

// keywordVocabulary is the fixed vocabulary ExtractKeyInformation scans for.
var keywordVocabulary = []string{
	"award", "indicator", "deadline", "score", "member", "activity",
	"team", "partner", "category", "incentive", "objective", "allocation",
	"奖项", "指标", "截止", "积分", "会员", "活动", "团队", "类别",
}

// ExtractKeyInformation performs lightweight pattern-matching against a fixed
// vocabulary. The result is supplementary signal only, never ground truth.
// Pure function.
func ExtractKeyInformation(text string) *models.KeySignals {
	lower := strings.ToLower(text)
	signals := &models.KeySignals{
		HasDeadline:     deadlinePattern.MatchString(text),
		HasScoreInfo:    scorePattern.MatchString(text),
		HasMemberInfo:   memberPattern.MatchString(text),
		HasActivityInfo: activityPattern.MatchString(text),
		Keywords:        make([]string, 0),
	}
	for _, kw := range keywordVocabulary {
		if strings.Contains(lower, kw) {
			signals.Keywords = append(signals.Keywords, kw)
		}
	}
	return signals
}
