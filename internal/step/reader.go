package step

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ReaderVersion identifies the record reader in version strings.
const ReaderVersion = "1.2.0"

const (
	magic       = "ISO-10303-21"
	maxPoints   = 1 << 16
	checkEvery  = 512
	complexType = "COMPLEX"
)

var (
	ErrNotStep = errors.New("step: missing ISO-10303-21 header")
	ErrNoData  = errors.New("step: no DATA entities")
)

// Reader indexes ISO 10303-21 exchange files. It only splits records and
// tallies entity types; it does not evaluate geometry.
type Reader struct{}

// NewReader returns a ready reader.
func NewReader() *Reader {
	return &Reader{}
}

// Parse reads content and reports the outcome through done exactly once. A
// nil document signals failure.
func (r *Reader) Parse(ctx context.Context, content []byte, done func(*Document, error)) {
	doc, err := r.Read(ctx, content)
	if err != nil {
		done(nil, err)
		return
	}
	done(doc, nil)
}

// Read parses content synchronously.
func (r *Reader) Read(ctx context.Context, content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, " \t\r\n\uFEFF")
	if !bytes.HasPrefix(trimmed, []byte(magic)) {
		return nil, ErrNotStep
	}
	doc := &Document{Size: len(content), types: make(map[string]int)}
	section := ""
	n := 0
	err := splitRecords(trimmed, func(record string) error {
		n++
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		switch upper := strings.ToUpper(record); {
		case upper == "HEADER" || upper == "DATA":
			section = upper
			return nil
		case upper == "ENDSEC":
			section = ""
			return nil
		case strings.HasPrefix(upper, magic), strings.HasPrefix(upper, "END-"+magic):
			return nil
		}
		switch section {
		case "HEADER":
			readHeader(doc, record)
		case "DATA":
			return readEntity(doc, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc.Entities == 0 {
		return nil, ErrNoData
	}
	return doc, nil
}

// splitRecords calls fn with each ';'-terminated record, skipping comments
// and honouring quoted strings.
func splitRecords(src []byte, fn func(string) error) error {
	var b strings.Builder
	inString := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			b.WriteByte(c)
			if c == '\'' {
				if i+1 < len(src) && src[i+1] == '\'' {
					b.WriteByte('\'')
					i++
					continue
				}
				inString = false
			}
			continue
		}
		switch {
		case c == '\'':
			inString = true
			b.WriteByte(c)
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := bytes.Index(src[i+2:], []byte("*/"))
			if end < 0 {
				return errors.New("step: unterminated comment")
			}
			i += end + 3
		case c == ';':
			record := strings.TrimSpace(b.String())
			b.Reset()
			if record == "" {
				continue
			}
			if err := fn(record); err != nil {
				return err
			}
		case c == '\r' || c == '\n':
			// records may span lines
		default:
			b.WriteByte(c)
		}
	}
	if inString {
		return errors.New("step: unterminated string")
	}
	return nil
}

func readHeader(doc *Document, record string) {
	keyword, args := splitCall(record)
	switch strings.ToUpper(keyword) {
	case "FILE_NAME":
		doc.Name = firstString(args)
	case "FILE_DESCRIPTION":
		doc.Description = firstString(args)
	case "FILE_SCHEMA":
		doc.Schema = firstString(args)
	}
}

func readEntity(doc *Document, record string) error {
	if !strings.HasPrefix(record, "#") {
		return fmt.Errorf("step: malformed record %q", clip(record))
	}
	eq := strings.IndexByte(record, '=')
	if eq < 0 {
		return fmt.Errorf("step: malformed record %q", clip(record))
	}
	if _, err := strconv.Atoi(strings.TrimSpace(record[1:eq])); err != nil {
		return fmt.Errorf("step: bad instance name %q", clip(record[:eq]))
	}
	body := strings.TrimSpace(record[eq+1:])
	entityType := complexType
	args := ""
	if !strings.HasPrefix(body, "(") {
		entityType, args = splitCall(body)
		entityType = strings.ToUpper(entityType)
		if entityType == "" {
			return fmt.Errorf("step: missing entity type in %q", clip(record))
		}
	}
	doc.Entities++
	doc.types[entityType]++
	if entityType == "CARTESIAN_POINT" && len(doc.Points) < maxPoints {
		if p, ok := parsePoint(args); ok {
			doc.Points = append(doc.Points, p)
			doc.Bounds.extend(p)
		}
	}
	return nil
}

// splitCall separates KEYWORD(args) into its keyword and the text between
// the outermost parentheses.
func splitCall(s string) (string, string) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return strings.TrimSpace(s), ""
	}
	closing := strings.LastIndexByte(s, ')')
	if closing < open {
		closing = len(s)
	}
	return strings.TrimSpace(s[:open]), s[open+1 : closing]
}

func firstString(args string) string {
	start := strings.IndexByte(args, '\'')
	if start < 0 {
		return ""
	}
	var b strings.Builder
	for i := start + 1; i < len(args); i++ {
		if args[i] == '\'' {
			if i+1 < len(args) && args[i+1] == '\'' {
				b.WriteByte('\'')
				i++
				continue
			}
			break
		}
		b.WriteByte(args[i])
	}
	return b.String()
}

// parsePoint reads the coordinate list of CARTESIAN_POINT('name',(x,y,z)).
func parsePoint(args string) (Point, bool) {
	open := strings.LastIndexByte(args, '(')
	closing := strings.LastIndexByte(args, ')')
	if open < 0 || closing <= open {
		return Point{}, false
	}
	fields := strings.Split(args[open+1:closing], ",")
	if len(fields) < 2 || len(fields) > 3 {
		return Point{}, false
	}
	var coords [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Point{}, false
		}
		coords[i] = v
	}
	return Point{coords[0], coords[1], coords[2]}, true
}

// clip shortens s to at most 40 bytes without splitting a rune.
func clip(s string) string {
	if len(s) <= 40 {
		return s
	}
	cut := 40
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
