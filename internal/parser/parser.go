// Package parser extracts frontmatter, wikilinks, and tags from Markdown content.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// Wikilinks: [[target]], [[target|display]], [[target#heading]],
	// [[target#^block|display]]. Group 1 is the target before any # or |.
	wikilinkRe = regexp.MustCompile(`\[\[([^\]|#]+)(?:#[^\]|]*)?(?:\|[^\]]+)?\]\]`)

	// Tags: #tag, #tag/subtag, #tag-name. The # must not be preceded by a
	// non-whitespace character, which excludes "issue#123" and URL fragments.
	tagRe = regexp.MustCompile(`(?:^|\s)#([\w/-]+)`)

	fencedCodeRe = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe = regexp.MustCompile("`[^`]+`")
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Title     string
	Aliases   []string
	Tags      []string
	Wikilinks []string
	Body      string
}

// Parse extracts title, aliases, tags, wikilinks, and body from raw
// Markdown bytes. The title is the filename without its .md extension.
// Tag and link extraction runs on a copy of the body with code blocks
// removed; the returned Body keeps them.
func Parse(data []byte, filename string) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w", filename, err)
	}

	stripped := stripCode(body)

	tags := append(normalizeList(fmValue(fm, "tags")), extractTags(stripped)...)

	return &Result{
		Title:     strings.TrimSuffix(filename, ".md"),
		Aliases:   dedupe(normalizeList(fmValue(fm, "aliases"))),
		Tags:      dedupe(tags),
		Wikilinks: dedupe(extractWikilinks(stripped)),
		Body:      body,
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := closingFence(rest)
	if idx < 0 {
		// No closing delimiter; treat everything as body.
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML falls back to treating everything as body.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// closingFence finds the closing frontmatter delimiter: a line that is
// exactly "---". Lines that merely start with --- (thematic breaks like
// "----") do not close the block.
func closingFence(rest []byte) int {
	const delim = "---"
	for search := 0; ; {
		i := bytes.Index(rest[search:], []byte("\n"+delim))
		if i < 0 {
			return -1
		}
		i += search
		after := rest[i+1+len(delim):]
		if len(after) == 0 || after[0] == '\n' || after[0] == '\r' {
			return i
		}
		search = i + 1
	}
}

// stripCode removes fenced code blocks and inline code spans so that
// tag/link extraction does not pick up false positives.
func stripCode(body string) string {
	s := fencedCodeRe.ReplaceAllString(body, "")
	return inlineCodeRe.ReplaceAllString(s, "")
}

func fmValue(fm map[string]interface{}, key string) interface{} {
	if fm == nil {
		return nil
	}
	return fm[key]
}

// normalizeList coerces a frontmatter value to a list of strings.
// A single string becomes a one-element list; a YAML sequence has each
// element stringified; any other type yields an empty list.
func normalizeList(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return nil
	}
}

// extractWikilinks returns raw wikilink targets in order of appearance.
func extractWikilinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		out = append(out, target)
	}
	return out
}

// extractTags returns inline #tags in order of appearance.
func extractTags(body string) []string {
	matches := tagRe.FindAllStringSubmatch(body, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// dedupe removes duplicates preserving first occurrence.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
