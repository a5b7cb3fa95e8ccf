// Package slicer implements the Slicer/Budgeter: composing skeletonized
// files into a token-budgeted XML slice, ranked by vector similarity when a
// query is present.
package slicer

import (
	"encoding/xml"
	"strings"
)

// FileNode is one per-file entry in the slice.
type FileNode struct {
	Path     string
	Language string
	Content  string
}

// crunchForCDATA trims trailing whitespace from every line and collapses
// runs of consecutive blank lines to one, matching the original XML
// builder's CDATA-preparation pass so output stays compact.
func crunchForCDATA(input string) string {
	lines := strings.Split(input, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	trimmed := strings.Join(lines, "\n")

	var b strings.Builder
	prevBlank := false
	for _, line := range strings.Split(trimmed, "\n") {
		isBlank := line == ""
		if isBlank && prevBlank {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		prevBlank = isBlank
	}
	return strings.TrimRight(b.String(), "\n \t\r")
}

// BuildXML assembles the context_slicer document: a root element, one
// <file path="..." language="..."> node per included file with its
// skeleton text in a CDATA section, and a <summary> node with the included
// file count and estimated token cost, per spec §3 Slice.
func BuildXML(files []FileNode, includedCount, estimatedTokens int, truncatedFiles int) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<context_slicer>\n")

	for _, f := range files {
		b.WriteString("  <file path=\"")
		xml.EscapeText(&b, []byte(f.Path))
		if f.Language != "" {
			b.WriteString("\" language=\"")
			xml.EscapeText(&b, []byte(f.Language))
		}
		b.WriteString("\"><![CDATA[")
		b.WriteString(escapeCDATA(crunchForCDATA(f.Content)))
		b.WriteString("]]></file>\n")
	}

	b.WriteString("  <summary included_files=\"")
	b.WriteString(itoa(includedCount))
	b.WriteString("\" estimated_tokens=\"")
	b.WriteString(itoa(estimatedTokens))
	if truncatedFiles > 0 {
		b.WriteString("\" truncated_files=\"")
		b.WriteString(itoa(truncatedFiles))
	}
	b.WriteString("\"/>\n")

	b.WriteString("</context_slicer>\n")
	return b.String()
}

// escapeCDATA guards against a literal "]]>" terminator sequence inside
// source text by splitting it across two CDATA sections — the one
// character-sequence CDATA content cannot otherwise represent.
func escapeCDATA(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}
