package extraction

import (
	"bytes"
	"compress/zlib"
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/ayurankh/claims-processor/internal/store/model"
)

// PDFAdapter pulls best-effort text out of a lab-report PDF: literal strings
// from the content streams, inflating FlateDecode streams where possible.
// Garbled or partial output is acceptable; judging it is the validation
// engine's job.
type PDFAdapter struct{}

func NewPDFAdapter() *PDFAdapter {
	return &PDFAdapter{}
}

func (a *PDFAdapter) Extract(_ context.Context, path string) Result {
	return capture(model.RoleLabPDF, func() Result {
		data, err := os.ReadFile(path)
		if err != nil {
			return errorResult(model.RoleLabPDF, errors.Wrap(err, "read pdf file"))
		}
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			return errorResult(model.RoleLabPDF, errors.New("not a pdf: missing %PDF header"))
		}
		return textResult(model.RoleLabPDF, extractPDFText(data))
	})
}

func extractPDFText(data []byte) string {
	var out strings.Builder

	for _, stream := range contentStreams(data) {
		for _, line := range textShowStrings(stream) {
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	return out.String()
}

// contentStreams returns each stream body, inflated when it is zlib data.
func contentStreams(data []byte) [][]byte {
	var streams [][]byte

	rest := data
	for {
		start := bytes.Index(rest, []byte("stream"))
		if start < 0 {
			break
		}
		body := rest[start+len("stream"):]
		body = bytes.TrimPrefix(body, []byte("\r"))
		body = bytes.TrimPrefix(body, []byte("\n"))

		end := bytes.Index(body, []byte("endstream"))
		if end < 0 {
			break
		}

		stream := body[:end]
		if inflated, err := inflate(stream); err == nil {
			stream = inflated
		}
		streams = append(streams, stream)

		rest = body[end+len("endstream"):]
	}
	return streams
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// Tolerate truncated tails: keep whatever inflated cleanly.
	out, err := io.ReadAll(r)
	if len(out) == 0 && err != nil {
		return nil, err
	}
	return out, nil
}

// textShowStrings collects the literal strings fed to the Tj/TJ text-show
// operators inside BT/ET blocks.
func textShowStrings(stream []byte) []string {
	var lines []string

	rest := stream
	for {
		bt := bytes.Index(rest, []byte("BT"))
		if bt < 0 {
			break
		}
		block := rest[bt+2:]
		et := bytes.Index(block, []byte("ET"))
		if et < 0 {
			break
		}

		var line strings.Builder
		for _, s := range literalStrings(block[:et]) {
			line.WriteString(s)
		}
		if text := strings.TrimSpace(line.String()); text != "" {
			lines = append(lines, text)
		}

		rest = block[et+2:]
	}
	return lines
}

// literalStrings parses parenthesized PDF strings, honoring escapes and
// balanced nested parentheses.
func literalStrings(block []byte) []string {
	var strs []string
	var cur strings.Builder

	depth := 0
	for i := 0; i < len(block); i++ {
		c := block[i]
		switch {
		case depth > 0 && c == '\\' && i+1 < len(block):
			i++
			switch block[i] {
			case 'n':
				cur.WriteByte('\n')
			case 't':
				cur.WriteByte('\t')
			case 'r', '\n':
				// swallow
			default:
				cur.WriteByte(block[i])
			}
		case c == '(':
			if depth > 0 {
				cur.WriteByte(c)
			}
			depth++
		case c == ')':
			depth--
			if depth > 0 {
				cur.WriteByte(c)
			} else if depth == 0 {
				strs = append(strs, cur.String())
				cur.Reset()
			}
		case depth > 0:
			cur.WriteByte(c)
		}
	}
	return strs
}
