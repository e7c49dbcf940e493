package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"liscraper/pkg/models"
)

const (
	headerPrefix    = "LinkedIn Posts for: "
	extractedPrefix = "Extracted on: "
	countPrefix     = "Number of posts: "
	postPrefix      = "Post #"
	datePrefix      = "Date: "
	engagePrefix    = "Engagement: "

	// TimeLayout is the "Extracted on" timestamp format.
	TimeLayout = "2006-01-02 15:04:05"
)

var (
	headerRule = strings.Repeat("=", 80)
	recordRule = strings.Repeat("-", 80)

	engagementPattern = regexp.MustCompile(`^(\S+) likes, (\S+) comments, (\S+) shares$`)
)

// ErrMalformed is returned when a file does not follow the artifact layout.
var ErrMalformed = errors.New("malformed artifact")

// Artifact is the in-memory form of a posts file. ExtractedAt is zero when
// the file was written with the minimal header.
type Artifact struct {
	Label       string
	ExtractedAt time.Time
	Posts       []models.Post
}

// Encode renders a in the full artifact layout. Posts are numbered from 1 by
// position. Runes outside the Basic Multilingual Plane become '?'.
func Encode(a Artifact) string {
	var sb strings.Builder
	sb.WriteString(headerPrefix + oneLine(a.Label) + "\n")
	sb.WriteString(extractedPrefix + a.ExtractedAt.Format(TimeLayout) + "\n")
	writeBody(&sb, a, replaceAstral)
	return sb.String()
}

// EncodeFallback renders a as plain ASCII with a header that carries only
// the label and the count. Every other rune becomes '?'.
func EncodeFallback(a Artifact) string {
	var sb strings.Builder
	sb.WriteString(headerPrefix + toASCII(oneLine(a.Label)) + "\n")
	writeBody(&sb, a, toASCII)
	return sb.String()
}

func writeBody(sb *strings.Builder, a Artifact, clean func(string) string) {
	fmt.Fprintf(sb, "%s%d\n", countPrefix, len(a.Posts))
	sb.WriteString(headerRule + "\n\n")

	for i, p := range a.Posts {
		fmt.Fprintf(sb, "%s%d\n", postPrefix, i+1)
		sb.WriteString(datePrefix + clean(p.Date) + "\n")
		fmt.Fprintf(sb, "%s%s likes, %s comments, %s shares\n\n", engagePrefix,
			clean(p.Engagement.Likes), clean(p.Engagement.Comments), clean(p.Engagement.Shares))
		sb.WriteString(clean(p.Content) + "\n")
		sb.WriteString("\n" + recordRule + "\n\n")
	}
}

// oneLine collapses whitespace runs, line breaks included, to single spaces.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func replaceAstral(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return '?'
		}
		return r
	}, s)
}

func toASCII(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r >= utf8.RuneSelf {
			r = '?'
		}
		sb.WriteRune(r)
		s = s[size:]
	}
	return sb.String()
}

// ParseFile reads and parses the artifact at path.
func ParseFile(path string) (Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	a, err := ParseArtifact(f)
	if err != nil {
		return Artifact{}, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func (r *lineReader) next() (string, bool) {
	if !r.sc.Scan() {
		return "", false
	}
	r.line++
	return r.sc.Text(), true
}

func (r *lineReader) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformed, r.line, fmt.Sprintf(format, args...))
}

// expect reads the next line and returns the remainder after prefix.
func (r *lineReader) expect(prefix string) (string, error) {
	line, ok := r.next()
	if !ok {
		return "", r.errorf("unexpected end of file, want %q", prefix)
	}
	if !strings.HasPrefix(line, prefix) {
		return "", r.errorf("want %q, got %q", prefix, line)
	}
	return strings.TrimPrefix(line, prefix), nil
}

// ParseArtifact reads the layout produced by Encode or EncodeFallback. The
// header count must match the number of records.
func ParseArtifact(rd io.Reader) (Artifact, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	r := &lineReader{sc: sc}

	var a Artifact
	label, err := r.expect(headerPrefix)
	if err != nil {
		return Artifact{}, err
	}
	a.Label = label

	line, ok := r.next()
	if !ok {
		return Artifact{}, r.errorf("missing post count")
	}
	if ts, found := strings.CutPrefix(line, extractedPrefix); found {
		at, err := time.ParseInLocation(TimeLayout, ts, time.Local)
		if err != nil {
			return Artifact{}, r.errorf("bad timestamp %q", ts)
		}
		a.ExtractedAt = at
		if line, ok = r.next(); !ok {
			return Artifact{}, r.errorf("missing post count")
		}
	}

	countText, found := strings.CutPrefix(line, countPrefix)
	if !found {
		return Artifact{}, r.errorf("want %q, got %q", countPrefix, line)
	}
	count, err := strconv.Atoi(countText)
	if err != nil || count < 0 {
		return Artifact{}, r.errorf("bad post count %q", countText)
	}

	if line, ok = r.next(); !ok || line != headerRule {
		return Artifact{}, r.errorf("missing header rule")
	}
	if line, ok = r.next(); ok && line != "" {
		return Artifact{}, r.errorf("want blank line after header")
	}

	for {
		line, ok := r.next()
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, postPrefix) {
			return Artifact{}, r.errorf("want %q, got %q", postPrefix, line)
		}
		post, err := parseRecord(r)
		if err != nil {
			return Artifact{}, err
		}
		a.Posts = append(a.Posts, post)
	}
	if err := sc.Err(); err != nil {
		return Artifact{}, fmt.Errorf("failed to read artifact: %w", err)
	}

	if len(a.Posts) != count {
		return Artifact{}, fmt.Errorf("%w: header counts %d posts, found %d", ErrMalformed, count, len(a.Posts))
	}
	return a, nil
}

// parseRecord reads one record after its "Post #" line.
func parseRecord(r *lineReader) (models.Post, error) {
	date, err := r.expect(datePrefix)
	if err != nil {
		return models.Post{}, err
	}
	engText, err := r.expect(engagePrefix)
	if err != nil {
		return models.Post{}, err
	}
	m := engagementPattern.FindStringSubmatch(engText)
	if m == nil {
		return models.Post{}, r.errorf("bad engagement %q", engText)
	}
	if line, ok := r.next(); !ok || line != "" {
		return models.Post{}, r.errorf("want blank line before content")
	}

	var lines []string
	for {
		line, ok := r.next()
		if !ok {
			return models.Post{}, r.errorf("unterminated record")
		}
		if line == recordRule {
			break
		}
		lines = append(lines, line)
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	return models.Post{
		Content:    strings.Join(lines, "\n"),
		Date:       date,
		Engagement: models.Engagement{Likes: m[1], Comments: m[2], Shares: m[3]},
	}, nil
}
