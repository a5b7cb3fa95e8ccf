package symbolgraph

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cortexast/internal/config"
	"cortexast/internal/langdriver"
	"cortexast/internal/scanner"
)

// maxPropagationFiles and maxPropagationChars are the hard caps from
// spec §4.5.7.
const (
	maxPropagationFiles    = 50
	maxPropagationChars    = 8000
	maxLineNumbersPerFile  = 5
)

// domainOrder fixes the named grouping order Proto -> Rust -> TypeScript ->
// Python required by spec §4.5.7; every other language (Go, JavaScript,
// unknown) collapses into a single trailing "Other" bucket.
var domainOrder = []langdriver.Language{
	langdriver.LangProto,
	langdriver.LangRust,
	langdriver.LangTypeScript,
	langdriver.LangPython,
}

// otherDomainLabel names the trailing bucket for languages not named in
// domainOrder.
const otherDomainLabel langdriver.Language = "other"

// PropagationFile is one file's entry in a propagation checklist.
type PropagationFile struct {
	Path  string
	Lines []int
	More  int // count of additional lines beyond the first maxLineNumbersPerFile
}

// PropagationGroup groups files by language domain.
type PropagationGroup struct {
	Language langdriver.Language
	Files    []PropagationFile
}

// PropagationResult is propagation_checklist's structured output.
type PropagationResult struct {
	Groups        []PropagationGroup
	TotalFiles    int
	OverflowFiles int
}

// PropagationChecklist implements spec §4.5.7: traces a symbol (plus
// caller-supplied and auto-generated casing aliases) across every language,
// grouping files by domain and capping the result to keep the output small
// enough for an agent to act on directly.
func PropagationChecklist(repoRoot string, cfg *config.Config, registry *langdriver.Registry, symbolName string, callerAliases []string, ignoreGitignore bool) (PropagationResult, error) {
	aliases := allAliases(symbolName, callerAliases)

	records, err := scanner.Walk(repoRoot, cfg, scanner.Options{IgnoreGitignore: ignoreGitignore})
	if err != nil {
		return PropagationResult{}, err
	}

	byLang := make(map[langdriver.Language][]PropagationFile)
	totalFiles := 0

	for _, rec := range records {
		if rec.SkipReason != scanner.SkipNone {
			continue
		}
		source, err := os.ReadFile(filepath.Join(repoRoot, rec.Path))
		if err != nil {
			continue
		}
		driver := registry.ForPath(rec.Path)

		lineSet := map[int]bool{}
		for _, alias := range aliases {
			usages, err := driver.ExtractUsages(rec.Path, source, alias)
			if err != nil {
				continue
			}
			for _, u := range usages {
				lineSet[u.Line] = true
			}
			symbols, _ := driver.ExtractDefinitions(rec.Path, source)
			for _, s := range symbols {
				if s.Name == alias {
					lineSet[s.LineStart] = true
				}
			}
		}
		if len(lineSet) == 0 {
			continue
		}

		var lines []int
		for l := range lineSet {
			lines = append(lines, l)
		}
		sort.Ints(lines)

		pf := PropagationFile{Path: rec.Path}
		if len(lines) > maxLineNumbersPerFile {
			pf.Lines = lines[:maxLineNumbersPerFile]
			pf.More = len(lines) - maxLineNumbersPerFile
		} else {
			pf.Lines = lines
		}

		byLang[driver.Language()] = append(byLang[driver.Language()], pf)
		totalFiles++
	}

	named := map[langdriver.Language]bool{}
	for _, lang := range domainOrder {
		named[lang] = true
	}

	var groups []PropagationGroup
	filesEmitted := 0
	overflow := 0

	for _, lang := range domainOrder {
		files, ok := byLang[lang]
		if !ok {
			continue
		}
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
		for _, f := range files {
			if filesEmitted >= maxPropagationFiles {
				overflow++
				continue
			}
			groups = appendToGroup(groups, lang, f)
			filesEmitted++
		}
	}

	var otherFiles []PropagationFile
	for lang, files := range byLang {
		if named[lang] {
			continue
		}
		otherFiles = append(otherFiles, files...)
	}
	sort.Slice(otherFiles, func(i, j int) bool { return otherFiles[i].Path < otherFiles[j].Path })
	for _, f := range otherFiles {
		if filesEmitted >= maxPropagationFiles {
			overflow++
			continue
		}
		groups = appendToGroup(groups, otherDomainLabel, f)
		filesEmitted++
	}

	return PropagationResult{Groups: groups, TotalFiles: totalFiles, OverflowFiles: overflow}, nil
}

func appendToGroup(groups []PropagationGroup, lang langdriver.Language, f PropagationFile) []PropagationGroup {
	for i := range groups {
		if groups[i].Language == lang {
			groups[i].Files = append(groups[i].Files, f)
			return groups
		}
	}
	return append(groups, PropagationGroup{Language: lang, Files: []PropagationFile{f}})
}

// Render formats the checklist, enforcing the 8000-character hard cap with
// a single BLAST RADIUS WARNING line on overflow, per spec §4.5.7.
func (r PropagationResult) Render() string {
	var b strings.Builder
	for _, g := range r.Groups {
		fmt.Fprintf(&b, "## %s\n", g.Language)
		for _, f := range g.Files {
			lineStrs := make([]string, len(f.Lines))
			for i, l := range f.Lines {
				lineStrs[i] = fmt.Sprintf("%d", l)
			}
			suffix := ""
			if f.More > 0 {
				suffix = "…"
			}
			fmt.Fprintf(&b, "%s: %s%s\n", f.Path, strings.Join(lineStrs, ", "), suffix)
		}
	}

	text := b.String()
	if len(text) > maxPropagationChars || r.OverflowFiles > 0 {
		warning := fmt.Sprintf("\nBLAST RADIUS WARNING: %d additional file(s) not shown\n", r.OverflowFiles)
		if limit := maxPropagationChars - len(warning); len(text) > limit {
			text = text[:limit]
		}
		text += warning
	}
	return text
}

// allAliases merges caller-supplied aliases with auto-generated casing
// variants (snake_case, camelCase, PascalCase) of symbolName.
func allAliases(symbolName string, callerAliases []string) []string {
	seen := map[string]bool{symbolName: true}
	aliases := []string{symbolName}
	for _, a := range callerAliases {
		if a != "" && !seen[a] {
			seen[a] = true
			aliases = append(aliases, a)
		}
	}
	for _, variant := range []string{toSnakeCase(symbolName), toCamelCase(symbolName), toPascalCase(symbolName)} {
		if variant != "" && !seen[variant] {
			seen[variant] = true
			aliases = append(aliases, variant)
		}
	}
	return aliases
}

func splitWords(name string) []string {
	var words []string
	var cur strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if r == '_' || r == '-' {
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
			continue
		}
		if i > 0 && r >= 'A' && r <= 'Z' && !(runes[i-1] >= 'A' && runes[i-1] <= 'Z') {
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

func toSnakeCase(name string) string {
	words := splitWords(name)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

func toCamelCase(name string) string {
	words := splitWords(name)
	var b strings.Builder
	for i, w := range words {
		if w == "" {
			continue
		}
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]) + strings.ToLower(w[1:]))
	}
	return b.String()
}

func toPascalCase(name string) string {
	words := splitWords(name)
	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]) + strings.ToLower(w[1:]))
	}
	return b.String()
}
