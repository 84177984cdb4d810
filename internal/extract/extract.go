// Package extract turns a markdown specification document into a set of
// uniquely identified, level-classified requirement records.
//
// Identifiers are structural: section path plus ordinal index within that
// section. Re-running extraction on an unchanged document always yields the
// same identifiers, and a section whose text changed but whose location did
// not keeps its identifier, which is what makes diffing across revisions
// possible.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kabir/a2a-tck/internal/checksum"
	"github.com/kabir/a2a-tck/internal/models"
)

var (
	// Longest alternatives first so "MUST NOT" is never matched as "MUST".
	// Case-sensitive on purpose: lowercase "must" is prose.
	keywordRe  = regexp.MustCompile(`\b(MUST NOT|MUST|SHOULD NOT|SHOULD|RECOMMENDED|REQUIRED|MAY)\b`)
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	numberedRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+(.*)$`)
	bulletRe   = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
)

// ParseError reports a malformed specification document. It names the
// document and, when known, the section where parsing failed. A ParseError
// aborts the whole analysis run.
type ParseError struct {
	Doc     string
	Section string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("parse %s: section %q: %v", e.Doc, e.Section, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Doc, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Extract parses one specification document into an immutable SpecVersion.
// source names the document for diagnostics; label overrides the version
// label (frontmatter "version", falling back to a checksum prefix, is used
// when empty).
func Extract(source, label string, data []byte) (*models.SpecVersion, error) {
	cs := checksum.Sum(data)

	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, &ParseError{Doc: source, Err: err}
	}

	if label == "" {
		label = versionLabel(fm, cs)
	}

	reqs, err := scan(source, body)
	if err != nil {
		return nil, err
	}

	return &models.SpecVersion{
		Label:        label,
		Source:       source,
		Checksum:     cs,
		Requirements: reqs,
	}, nil
}

// section tracks the heading context requirements are attributed to.
type section struct {
	depth int    // markdown heading depth (number of '#')
	path  string // identifier prefix, e.g. "4.2" or "transport/streaming"
	top   string // top-level section title, drives the category topic
}

// scan walks the document body in order and synthesizes one requirement per
// normative keyword occurrence. Units (paragraphs and list items) that
// cannot be attributed to a heading land in the "preamble" section rather
// than being dropped.
func scan(source, body string) ([]models.Requirement, error) {
	cur := section{path: "preamble"}
	var stack []section
	ordinals := make(map[string]int)
	var reqs []models.Requirement

	var unit []string
	flush := func() {
		reqs = append(reqs, scanUnit(cur, unit, ordinals)...)
		unit = unit[:0]
	}

	inFence := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			// Code examples are illustrative, not normative.
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			depth := len(m[1])
			for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
				stack = stack[:len(stack)-1]
			}
			cur = enterSection(stack, depth, m[2])
			stack = append(stack, cur)
			continue
		}

		if trimmed == "" {
			flush()
			continue
		}
		unit = append(unit, line)
	}
	flush()

	if inFence {
		return nil, &ParseError{Doc: source, Section: cur.path, Err: errors.New("unterminated code fence")}
	}
	return reqs, nil
}

// enterSection derives the new section from its heading text and the
// remaining ancestor stack. Numbered headings ("4.2 Streaming") use the
// number as the full path since specification numbering is already
// hierarchical; unnumbered headings nest slugs under their parent.
func enterSection(stack []section, depth int, title string) section {
	top := title
	if len(stack) > 0 {
		top = stack[0].top
	}

	if m := numberedRe.FindStringSubmatch(title); m != nil {
		if len(stack) == 0 {
			top = m[2]
		}
		return section{depth: depth, path: m[1], top: top}
	}

	path := slug(title)
	if len(stack) > 0 {
		path = stack[len(stack)-1].path + "/" + path
	}
	return section{depth: depth, path: path, top: top}
}

// scanUnit splits a unit into statements (whole paragraphs, or individual
// list items) and yields one requirement per keyword occurrence, each
// carrying the full enclosing statement text.
func scanUnit(sec section, unit []string, ordinals map[string]int) []models.Requirement {
	var reqs []models.Requirement
	for _, stmt := range splitStatements(unit) {
		text := strings.Join(strings.Fields(stmt), " ")
		for _, kw := range keywordRe.FindAllString(text, -1) {
			level, ok := models.LevelFromKeyword(kw)
			if !ok {
				continue
			}
			ordinals[sec.path]++
			reqs = append(reqs, models.Requirement{
				ID:          fmt.Sprintf("%s-%d", sec.path, ordinals[sec.path]),
				Description: text,
				Level:       level,
				Section:     sec.path,
				Category:    category(level, sec.top),
			})
		}
	}
	return reqs
}

// splitStatements groups unit lines into statements: consecutive plain
// lines form one paragraph, while each list item stands on its own.
func splitStatements(unit []string) []string {
	var out []string
	var cur []string
	for _, line := range unit {
		if bulletRe.MatchString(line) && len(cur) > 0 {
			out = append(out, strings.Join(cur, " "))
			cur = cur[:0]
		}
		cur = append(cur, bulletRe.ReplaceAllString(line, ""))
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}

// category derives the requirement category from obligation class and the
// top-level section topic, e.g. "mandatory_json_rpc_transport".
func category(level models.Level, topTitle string) string {
	class := "optional"
	if level.Mandatory() {
		class = "mandatory"
	}
	return class + "_" + topic(topTitle)
}

// topic slugs a top-level section title with underscores, stripping any
// leading numbering. Requirements outside any heading map to "general".
func topic(title string) string {
	if m := numberedRe.FindStringSubmatch(title); m != nil {
		title = m[2]
	}
	s := slugWith(title, '_')
	if s == "" {
		return "general"
	}
	return s
}

func slug(s string) string { return slugWith(s, '-') }

func slugWith(s string, sep byte) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte(sep)
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}

// splitFrontmatter separates a YAML frontmatter block from the body.
// Unlike lenient note-taking parsers, a spec document that opens a
// frontmatter block must close it with valid YAML: silently treating a
// malformed header as body text would shift every ordinal in the file.
func splitFrontmatter(data []byte) (map[string]any, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, "", errors.New("unterminated frontmatter block")
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, "", fmt.Errorf("frontmatter: %w", err)
	}

	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body, nil
}

func versionLabel(fm map[string]any, cs string) string {
	if v, ok := fm["version"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
		return fmt.Sprint(v)
	}
	return checksum.Short(cs)
}
