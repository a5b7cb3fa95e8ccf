//go:build cgo

package langdriver

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// treeSitterDriver is the cgo-backed Driver for Rust/TS/JS/Python/Go.
// Each call gets its own *sitter.Parser; parser instances are never shared
// across goroutines (tree-sitter parsers are not thread-safe).
type treeSitterDriver struct {
	lang Language
}

func newTreeSitterDriver(lang Language) Driver {
	return &treeSitterDriver{lang: lang}
}

func (d *treeSitterDriver) Language() Language { return d.lang }

func (d *treeSitterDriver) tsLanguage() *sitter.Language {
	switch d.lang {
	case LangGo:
		return golang.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangRust:
		return rust.GetLanguage()
	case LangPython:
		return python.GetLanguage()
	default:
		return nil
	}
}

// parse returns the best-effort root node. A nil return means tree-sitter
// could not produce any tree at all (e.g. empty source); it is never an
// error the caller must propagate, matching the "no operation throws on
// malformed source" failure semantics.
func (d *treeSitterDriver) parse(source []byte) *sitter.Node {
	tsLang := d.tsLanguage()
	if tsLang == nil {
		return nil
	}
	p := sitter.NewParser()
	p.SetLanguage(tsLang)
	tree, err := p.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		return nil
	}
	return tree.RootNode()
}

// IsAvailable reports whether the cgo tree-sitter build is active.
func IsAvailable() bool { return true }

// --- ExtractDefinitions ---------------------------------------------------

func (d *treeSitterDriver) ExtractDefinitions(path string, source []byte) ([]Symbol, error) {
	root := d.parse(source)
	if root == nil {
		return nil, nil
	}

	var symbols []Symbol

	for _, fn := range findNodes(root, functionNodeTypes(d.lang)) {
		if sym := d.buildFunctionSymbol(fn, source, path, ""); sym != nil {
			symbols = append(symbols, *sym)
		}
	}

	for _, cls := range findNodes(root, classNodeTypes(d.lang)) {
		sym := d.buildClassSymbol(cls, source, path)
		if sym == nil {
			continue
		}
		symbols = append(symbols, *sym)
		for _, m := range findNodes(cls, methodNodeTypes(d.lang)) {
			if m == cls {
				continue
			}
			if msym := d.buildFunctionSymbol(m, source, path, sym.Name); msym != nil {
				symbols = append(symbols, *msym)
			}
		}
	}

	return symbols, nil
}

func (d *treeSitterDriver) buildFunctionSymbol(node *sitter.Node, source []byte, path, container string) *Symbol {
	name := fieldOrChildIdentifierName(node, source, d.lang)
	if name == "" {
		return nil
	}
	kind := KindFunction
	if container != "" {
		kind = KindMethod
	}
	return &Symbol{
		Name:          name,
		Kind:          kind,
		Path:          path,
		ByteStart:     int(node.StartByte()),
		ByteEnd:       int(node.EndByte()),
		LineStart:     int(node.StartPoint().Row) + 1,
		LineEnd:       int(node.EndPoint().Row) + 1,
		Visibility:    visibilityOf(node, source, d.lang, name),
		SignatureText: extractSignature(node, source, '{'),
		ParentSymbol:  container,
	}
}

func (d *treeSitterDriver) buildClassSymbol(node *sitter.Node, source []byte, path string) *Symbol {
	name, kind := classNameAndKind(node, source, d.lang)
	if name == "" {
		return nil
	}
	return &Symbol{
		Name:          name,
		Kind:          kind,
		Path:          path,
		ByteStart:     int(node.StartByte()),
		ByteEnd:       int(node.EndByte()),
		LineStart:     int(node.StartPoint().Row) + 1,
		LineEnd:       int(node.EndPoint().Row) + 1,
		Visibility:    visibilityOf(node, source, d.lang, name),
		SignatureText: extractSignature(node, source, '{'),
	}
}

// --- Node-type tables, per language (grounded on complexity.GetFunctionNodeTypes) ---

func functionNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"function_declaration", "method_declaration"}
	case LangJavaScript, LangTypeScript:
		return []string{"function_declaration", "generator_function_declaration"}
	case LangPython:
		return []string{"function_definition"}
	case LangRust:
		return []string{"function_item"}
	default:
		return nil
	}
}

func classNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"type_declaration"}
	case LangJavaScript:
		return []string{"class_declaration"}
	case LangTypeScript:
		return []string{"class_declaration", "interface_declaration"}
	case LangPython:
		return []string{"class_definition"}
	case LangRust:
		return []string{"struct_item", "enum_item", "trait_item", "impl_item"}
	default:
		return nil
	}
}

func methodNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return nil // Go methods are top-level with receivers
	case LangJavaScript, LangTypeScript:
		return []string{"method_definition"}
	case LangPython:
		return []string{"function_definition"}
	case LangRust:
		return []string{"function_item"}
	default:
		return nil
	}
}

func fieldOrChildIdentifierName(node *sitter.Node, source []byte, lang Language) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil && lang == LangGo {
		for i := uint32(0); i < node.ChildCount(); i++ {
			if c := node.Child(int(i)); c != nil && c.Type() == "identifier" {
				nameNode = c
				break
			}
		}
	}
	if nameNode == nil {
		return ""
	}
	return string(source[nameNode.StartByte():nameNode.EndByte()])
}

func classNameAndKind(node *sitter.Node, source []byte, lang Language) (string, SymbolKind) {
	nodeType := node.Type()

	switch lang {
	case LangGo:
		for i := uint32(0); i < node.ChildCount(); i++ {
			child := node.Child(int(i))
			if child == nil || child.Type() != "type_spec" {
				continue
			}
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			kind := KindTypeAlias
			if underlying := child.ChildByFieldName("type"); underlying != nil {
				switch underlying.Type() {
				case "struct_type":
					kind = KindStruct
				case "interface_type":
					kind = KindInterface
				}
			}
			return string(source[nameNode.StartByte():nameNode.EndByte()]), kind
		}
		return "", ""

	case LangJavaScript, LangTypeScript:
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return "", ""
		}
		kind := KindClass
		if nodeType == "interface_declaration" {
			kind = KindInterface
		}
		return string(source[nameNode.StartByte():nameNode.EndByte()]), kind

	case LangPython:
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return "", ""
		}
		return string(source[nameNode.StartByte():nameNode.EndByte()]), KindClass

	case LangRust:
		switch nodeType {
		case "struct_item":
			if n := node.ChildByFieldName("name"); n != nil {
				return string(source[n.StartByte():n.EndByte()]), KindStruct
			}
		case "enum_item":
			if n := node.ChildByFieldName("name"); n != nil {
				return string(source[n.StartByte():n.EndByte()]), KindEnum
			}
		case "trait_item":
			if n := node.ChildByFieldName("name"); n != nil {
				return string(source[n.StartByte():n.EndByte()]), KindTrait
			}
		case "impl_item":
			if typeNode := node.ChildByFieldName("type"); typeNode != nil {
				return string(source[typeNode.StartByte():typeNode.EndByte()]), KindStruct
			}
		}
		return "", ""
	}
	return "", ""
}

func visibilityOf(node *sitter.Node, source []byte, lang Language, name string) string {
	switch lang {
	case LangGo:
		if len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z' {
			return "public"
		}
		return "private"
	case LangRust:
		text := string(source[node.StartByte():node.EndByte()])
		if strings.HasPrefix(strings.TrimSpace(text), "pub") {
			return "public"
		}
		return "private"
	case LangPython:
		if strings.HasPrefix(name, "_") {
			return "private"
		}
		return "public"
	default:
		return "public"
	}
}

// extractSignature returns the declaration text up to (not including) the
// first newline or stopByte. When neither occurs, text of 200 bytes or more
// is cut to its first 200 bytes plus "..." as a guard against
// pathologically long one-liners.
func extractSignature(node *sitter.Node, source []byte, stopByte byte) string {
	text := source[node.StartByte():node.EndByte()]
	for i, b := range text {
		if b == '\n' || b == stopByte {
			return strings.TrimSpace(string(text[:i]))
		}
	}
	if len(text) < 200 {
		return strings.TrimSpace(string(text))
	}
	return strings.TrimSpace(string(text[:200])) + "..."
}

// --- ExtractUsages ---------------------------------------------------------

func (d *treeSitterDriver) ExtractUsages(path string, source []byte, name string) ([]Usage, error) {
	root := d.parse(source)
	if root == nil {
		return nil, nil
	}

	idTypes := identifierNodeTypes(d.lang)
	var usages []Usage
	seen := make(map[int]map[UsageCategory]bool)

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if contains(idTypes, node.Type()) && string(source[node.StartByte():node.EndByte()]) == name {
			cat := categorizeUsage(node, d.lang)
			if cat != "" {
				off := int(node.StartByte())
				if seen[off] == nil {
					seen[off] = make(map[UsageCategory]bool)
				}
				if !seen[off][cat] {
					seen[off][cat] = true
					usages = append(usages, Usage{
						Path:       path,
						Line:       int(node.StartPoint().Row) + 1,
						ByteOffset: off,
						Category:   cat,
					})
				}
			}
		}
		for i := uint32(0); i < node.ChildCount(); i++ {
			walk(node.Child(int(i)))
		}
	}
	walk(root)
	return usages, nil
}

func identifierNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"identifier", "type_identifier", "field_identifier", "package_identifier"}
	case LangJavaScript, LangTypeScript:
		return []string{"identifier", "type_identifier", "property_identifier", "shorthand_property_identifier"}
	case LangPython:
		return []string{"identifier"}
	case LangRust:
		return []string{"identifier", "type_identifier", "field_identifier"}
	default:
		return nil
	}
}

// categorizeUsage never matches inside comment or string-literal nodes
// because those never produce identifier-kind nodes in any of these
// grammars; comments/strings are leaf tokens of a different node type.
func categorizeUsage(node *sitter.Node, lang Language) UsageCategory {
	parent := node.Parent()
	if parent == nil {
		return CategoryTypeRef
	}
	pt := parent.Type()

	switch pt {
	case "call_expression":
		if fn := parent.ChildByFieldName("function"); fn == node {
			return CategoryCall
		}
	case "member_expression", "field_expression", "attribute":
		if prop := parent.ChildByFieldName("property"); prop == node {
			return CategoryFieldAccess
		}
		if field := parent.ChildByFieldName("field"); field == node {
			return CategoryFieldAccess
		}
		if attr := parent.ChildByFieldName("attribute"); attr == node {
			return CategoryFieldAccess
		}
	case "field_initializer", "pair", "keyword_argument":
		return CategoryFieldInit
	case "generic_type", "type_annotation", "type_identifier", "implements_clause", "extends_clause":
		return CategoryTypeRef
	case "trait_bound", "impl_item":
		if grand := parent.ChildByFieldName("trait"); grand == node {
			return CategoryImpl
		}
		return CategoryTypeRef
	case "class_heritage":
		return CategoryImpl
	}

	switch node.Type() {
	case "type_identifier":
		return CategoryTypeRef
	case "field_identifier", "property_identifier":
		return CategoryFieldAccess
	}

	_ = lang
	return CategoryTypeRef
}

// --- ExtractOutgoingCalls ----------------------------------------------------

// trivialIntrinsics is filtered out of Outgoing Calls to reduce noise, per
// spec §4.2's "built-in trivial-intrinsics list" requirement.
var trivialIntrinsics = map[string]bool{
	"println": true, "print": true, "len": true, "String": true, "Println": true,
	"format": true, "Sprintf": true, "Printf": true, "vec": true,
}

func (d *treeSitterDriver) ExtractOutgoingCalls(path string, source []byte, sym Symbol) ([]OutgoingCall, error) {
	root := d.parse(source)
	if root == nil {
		return nil, nil
	}

	var body *sitter.Node
	var find func(*sitter.Node) *sitter.Node
	find = func(node *sitter.Node) *sitter.Node {
		if node == nil {
			return nil
		}
		if int(node.StartByte()) == sym.ByteStart && int(node.EndByte()) == sym.ByteEnd {
			return node
		}
		for i := uint32(0); i < node.ChildCount(); i++ {
			if r := find(node.Child(int(i))); r != nil {
				return r
			}
		}
		return nil
	}
	body = find(root)
	if body == nil {
		return nil, nil
	}

	var calls []OutgoingCall
	callTypes := []string{"call_expression"}
	for _, callNode := range findNodes(body, callTypes) {
		fn := callNode.ChildByFieldName("function")
		if fn == nil {
			continue
		}
		name := lastSegment(string(source[fn.StartByte():fn.EndByte()]))
		if name == "" || trivialIntrinsics[name] {
			continue
		}
		calls = append(calls, OutgoingCall{CalleeName: name, Line: int(callNode.StartPoint().Row) + 1})
	}
	return calls, nil
}

func lastSegment(text string) string {
	for _, sep := range []string{".", "::"} {
		if idx := strings.LastIndex(text, sep); idx >= 0 {
			text = text[idx+len(sep):]
		}
	}
	return strings.TrimSpace(text)
}

// --- ExtractImplementors -----------------------------------------------------

func (d *treeSitterDriver) ExtractImplementors(path string, source []byte, traitName string) ([]Implementor, error) {
	root := d.parse(source)
	if root == nil {
		return nil, nil
	}

	var out []Implementor
	switch d.lang {
	case LangRust:
		for _, n := range findNodes(root, []string{"impl_item"}) {
			traitNode := n.ChildByFieldName("trait")
			typeNode := n.ChildByFieldName("type")
			if traitNode == nil || typeNode == nil {
				continue
			}
			if string(source[traitNode.StartByte():traitNode.EndByte()]) == traitName {
				out = append(out, Implementor{
					TypeName: string(source[typeNode.StartByte():typeNode.EndByte()]),
					Path:     path,
					Line:     int(n.StartPoint().Row) + 1,
				})
			}
		}
	case LangTypeScript, LangJavaScript:
		for _, n := range findNodes(root, []string{"class_declaration"}) {
			heritage := childOfType(n, "class_heritage")
			if heritage == nil {
				continue
			}
			text := string(source[heritage.StartByte():heritage.EndByte()])
			if strings.Contains(text, traitName) {
				nameNode := n.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				out = append(out, Implementor{
					TypeName: string(source[nameNode.StartByte():nameNode.EndByte()]),
					Path:     path,
					Line:     int(n.StartPoint().Row) + 1,
				})
			}
		}
	}
	return out, nil
}

func childOfType(node *sitter.Node, t string) *sitter.Node {
	for i := uint32(0); i < node.ChildCount(); i++ {
		if c := node.Child(int(i)); c != nil && c.Type() == t {
			return c
		}
	}
	return nil
}

// --- Skeletonize -------------------------------------------------------------

func (d *treeSitterDriver) Skeletonize(source []byte, opts SkeletonOptions) (string, error) {
	root := d.parse(source)
	if root == nil {
		return skeletonizeFallbackText(source, opts), nil
	}

	bodyFieldNodes := findNodes(root, functionNodeTypes(d.lang))
	bodyFieldNodes = append(bodyFieldNodes, findNodes(root, methodNodeTypes(d.lang))...)

	var cuts []cut
	for _, fn := range bodyFieldNodes {
		body := fn.ChildByFieldName("body")
		if body == nil {
			continue
		}
		cuts = append(cuts, cut{int(body.StartByte()), int(body.EndByte())})
	}

	return renderSkeleton(source, cuts, d.lang, opts), nil
}

type cut struct{ start, end int }

func renderSkeleton(source []byte, cuts []cut, lang Language, opts SkeletonOptions) string {
	placeholder := skeletonPlaceholder(lang)

	// Sort cuts by start offset (small N, insertion sort is fine).
	for i := 1; i < len(cuts); i++ {
		for j := i; j > 0 && cuts[j-1].start > cuts[j].start; j-- {
			cuts[j-1], cuts[j] = cuts[j], cuts[j-1]
		}
	}

	var b strings.Builder
	pos := 0
	for _, c := range cuts {
		if c.start < pos {
			continue
		}
		b.Write(source[pos:c.start])
		b.WriteString(placeholder)
		pos = c.end
	}
	b.Write(source[pos:])

	return stripCommentsAndCollapseImports(b.String(), lang, opts)
}

func skeletonPlaceholder(lang Language) string {
	switch lang {
	case LangPython:
		return "\n    pass  # ...\n"
	default:
		return " { /* ... */ }"
	}
}

// stripCommentsAndCollapseImports drops comment-only lines (preserving
// TODO/FIXME markers when requested) and collapses a leading run of import
// lines into a single count hint, per spec §4.2.
func stripCommentsAndCollapseImports(text string, lang Language, opts SkeletonOptions) string {
	lines := strings.Split(text, "\n")
	importPrefixes := importLinePrefixes(lang)
	commentPrefixes := commentLinePrefixes(lang)
	blockOpen, blockClose := importBlockDelims(lang)

	var out []string
	importCount := 0
	inLeadingImports := true
	inImportBlock := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if inLeadingImports {
			switch {
			case inImportBlock:
				if trimmed == blockClose {
					inImportBlock = false
				} else if trimmed != "" {
					importCount++
				}
				continue
			case blockOpen != "" && trimmed == blockOpen:
				inImportBlock = true
				continue
			case matchesAnyPrefix(trimmed, importPrefixes):
				importCount++
				continue
			case trimmed != "" && !isPreambleLine(trimmed, lang):
				inLeadingImports = false
			}
		}

		if isImportHintLine(trimmed) {
			out = append(out, line)
			continue
		}

		if matchesAnyPrefix(trimmed, commentPrefixes) {
			if opts.PreserveTODOs && (strings.Contains(trimmed, "TODO") || strings.Contains(trimmed, "FIXME")) {
				out = append(out, line)
			}
			continue
		}
		out = append(out, line)
	}

	if importCount > 0 {
		hint := importHint(lang, importCount)
		out = append([]string{hint, ""}, out...)
	}

	return strings.Join(out, "\n")
}

// isPreambleLine reports whether a line that precedes the import block
// (a package/module declaration or a leading doc comment) should keep the
// scan in "leading imports" mode rather than ending it early. Without this,
// the package clause that opens nearly every real Go/Rust file would end
// the leading-import scan before a single import line is ever seen.
func isPreambleLine(trimmed string, lang Language) bool {
	if matchesAnyPrefix(trimmed, commentLinePrefixes(lang)) {
		return true
	}
	switch lang {
	case LangGo:
		return strings.HasPrefix(trimmed, "package ")
	case LangRust:
		return strings.HasPrefix(trimmed, "#![")
	case LangPython:
		return strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''")
	default:
		return false
	}
}

// importBlockDelims returns the open/close lines of a language's
// parenthesized multi-import form (Go's `import (...)`), so each path
// inside counts toward the collapsed total instead of only the opening
// line. Languages without this form return empty strings and are matched
// line-by-line via importLinePrefixes instead.
func importBlockDelims(lang Language) (open, close string) {
	if lang == LangGo {
		return "import (", ")"
	}
	return "", ""
}

// isImportHintLine recognizes a hint line synthesized by a prior
// Skeletonize pass so a second pass preserves it verbatim instead of
// discarding it as an ordinary comment, keeping Skeletonize idempotent.
func isImportHintLine(trimmed string) bool {
	return strings.HasSuffix(trimmed, "import(s) collapsed") &&
		(strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#"))
}

func importLinePrefixes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"import "}
	case LangRust:
		return []string{"use "}
	case LangPython:
		return []string{"import ", "from "}
	case LangTypeScript, LangJavaScript:
		return []string{"import "}
	default:
		return nil
	}
}

func commentLinePrefixes(lang Language) []string {
	switch lang {
	case LangPython:
		return []string{"#"}
	default:
		return []string{"//"}
	}
}

func matchesAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func importHint(lang Language, count int) string {
	prefix := "//"
	if lang == LangPython {
		prefix = "#"
	}
	return prefix + " " + itoa(count) + " import(s) collapsed"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// skeletonizeFallbackText is used when tree-sitter cannot produce a tree at
// all (e.g. genuinely empty input); it degrades to the regex-heuristic
// fallback rather than erroring.
func skeletonizeFallbackText(source []byte, opts SkeletonOptions) string {
	return fallbackSkeletonize(source, opts)
}

// findNodes walks the tree collecting every node whose type is in types.
func findNodes(root *sitter.Node, types []string) []*sitter.Node {
	if len(types) == 0 || root == nil {
		return nil
	}
	var result []*sitter.Node
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if contains(types, node.Type()) {
			result = append(result, node)
		}
		for i := uint32(0); i < node.ChildCount(); i++ {
			walk(node.Child(int(i)))
		}
	}
	walk(root)
	return result
}
