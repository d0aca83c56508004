// Package template splices generated filter statements into a hand-written
// RouterOS script at an anchor line.
package template

import (
	"strings"
)

// Anchor marks where the generated statements go. It must sit alone on its
// line and appear exactly once.
const Anchor = "#@BGP_FILTERS@#"

// Inject replaces the anchor line of templateText with block. The anchor's
// indentation is applied to every block line and the template's newline
// style (CRLF/LF) is kept. source only appears in error payloads.
func Inject(templateText, block, source string) (string, error) {
	if strings.TrimSpace(templateText) == "" {
		return "", templateError(source, "INVALID_ARGUMENT", "template 不能为空", 0, "")
	}

	newline := detectNewline(templateText)
	normalized := strings.ReplaceAll(templateText, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")

	at, err := findAnchor(lines, source)
	if err != nil {
		return "", err
	}

	block = strings.TrimRight(strings.ReplaceAll(block, "\r\n", "\n"), "\n")
	lines[at] = indentBlock(lines[at], block)

	out := strings.Join(lines, "\n")
	if newline == "\r\n" {
		out = strings.ReplaceAll(out, "\n", "\r\n")
	}
	return out, nil
}

func findAnchor(lines []string, source string) (int, error) {
	at := -1
	for i, line := range lines {
		if !strings.Contains(line, Anchor) {
			continue
		}
		if strings.TrimSpace(line) != Anchor {
			return -1, templateError(source, "TEMPLATE_SECTION_ERROR", "锚点必须独占一行", i+1, line)
		}
		if i > 0 && strings.HasSuffix(strings.TrimSpace(lines[i-1]), `\`) {
			return -1, templateError(source, "TEMPLATE_SECTION_ERROR", "锚点不能位于续行命令之中", i+1, lines[i-1])
		}
		if at >= 0 {
			return -1, templateError(source, "TEMPLATE_ANCHOR_DUP", "锚点 "+Anchor+" 重复出现", i+1, "")
		}
		at = i
	}
	if at < 0 {
		return -1, templateError(source, "TEMPLATE_ANCHOR_MISSING", "缺少锚点 "+Anchor, 0, "")
	}
	return at, nil
}

func indentBlock(anchorLine string, block string) string {
	indent := leadingWhitespace(anchorLine)
	if block == "" {
		return ""
	}
	blockLines := strings.Split(block, "\n")
	for i := range blockLines {
		if blockLines[i] != "" {
			blockLines[i] = indent + blockLines[i]
		}
	}
	return strings.Join(blockLines, "\n")
}

func leadingWhitespace(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

func detectNewline(s string) string {
	if strings.Contains(s, "\r\n") {
		return "\r\n"
	}
	return "\n"
}
