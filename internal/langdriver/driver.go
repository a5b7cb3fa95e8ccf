// Package langdriver implements the Language Driver Registry: a tagged
// language variant dispatched capability set (extract-definitions,
// extract-usages, extract-calls, extract-implementors, skeletonize), never
// subtype inheritance, per the "polymorphic drivers" design note.
package langdriver

import "strings"

// Language is the tagged variant identifying which grammar/heuristic a
// driver operates over.
type Language string

const (
	LangRust       Language = "rust"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangProto      Language = "proto"
	LangUnknown    Language = ""
)

// SymbolKind enumerates the Symbol.kind values from spec §3.
type SymbolKind string

const (
	KindFunction    SymbolKind = "function"
	KindMethod      SymbolKind = "method"
	KindStruct      SymbolKind = "struct"
	KindClass       SymbolKind = "class"
	KindInterface   SymbolKind = "interface"
	KindTrait       SymbolKind = "trait"
	KindEnum        SymbolKind = "enum"
	KindConst       SymbolKind = "const"
	KindStatic      SymbolKind = "static"
	KindTypeAlias   SymbolKind = "type_alias"
	KindMessage     SymbolKind = "message"
)

// UsageCategory enumerates the Usage.category values from spec §3.
type UsageCategory string

const (
	CategoryCall       UsageCategory = "call"
	CategoryTypeRef    UsageCategory = "type_ref"
	CategoryFieldInit  UsageCategory = "field_init"
	CategoryFieldAccess UsageCategory = "field_access"
	CategoryImpl       UsageCategory = "impl"
)

// Symbol is the driver-agnostic definition record, per spec §3.
type Symbol struct {
	Name          string
	Kind          SymbolKind
	Path          string
	ByteStart     int
	ByteEnd       int
	LineStart     int // 1-indexed
	LineEnd       int
	Visibility    string // "public" or "private"
	SignatureText string
	ParentSymbol  string
}

// Usage is the driver-agnostic reference record, per spec §3.
type Usage struct {
	Path       string
	Line       int
	ByteOffset int
	Category   UsageCategory
}

// OutgoingCall is a (callee_name, line) pair found inside a symbol's body.
type OutgoingCall struct {
	CalleeName string
	Line       int
}

// Implementor is a (type_name, path, line) tuple implementing a trait/interface.
type Implementor struct {
	TypeName string
	Path     string
	Line     int
}

// Driver is the capability set every language driver implements. Parse
// errors never propagate as panics or aborts: a driver does its best on
// malformed source and returns what it could extract.
type Driver interface {
	Language() Language
	ExtractDefinitions(path string, source []byte) ([]Symbol, error)
	ExtractUsages(path string, source []byte, name string) ([]Usage, error)
	ExtractOutgoingCalls(path string, source []byte, sym Symbol) ([]OutgoingCall, error)
	ExtractImplementors(path string, source []byte, traitName string) ([]Implementor, error)
	Skeletonize(source []byte, opts SkeletonOptions) (string, error)
}

// SkeletonOptions tunes the Skeletonize operation.
type SkeletonOptions struct {
	PreserveTODOs bool
}

// extToLanguage mirrors scanner's extension table; kept local so the
// registry has no import-cycle dependency on internal/scanner.
var extToLanguage = map[string]Language{
	".rs":    LangRust,
	".ts":    LangTypeScript,
	".tsx":   LangTypeScript,
	".js":    LangJavaScript,
	".jsx":   LangJavaScript,
	".mjs":   LangJavaScript,
	".cjs":   LangJavaScript,
	".py":    LangPython,
	".pyi":   LangPython,
	".go":    LangGo,
	".proto": LangProto,
}

// LanguageFromExtension maps a file extension (with leading dot) to a
// supported Language, or LangUnknown if no driver covers it.
func LanguageFromExtension(ext string) Language {
	return extToLanguage[strings.ToLower(ext)]
}

// Registry resolves a Language to its Driver, falling back to the regex
// heuristic driver for code-like-but-unsupported extensions.
type Registry struct {
	drivers  map[Language]Driver
	fallback Driver
}

// NewRegistry builds the registry with all supported drivers wired in.
func NewRegistry() *Registry {
	r := &Registry{
		drivers:  make(map[Language]Driver),
		fallback: newFallbackDriver(),
	}
	r.register(newTreeSitterDriver(LangRust))
	r.register(newTreeSitterDriver(LangTypeScript))
	r.register(newTreeSitterDriver(LangJavaScript))
	r.register(newTreeSitterDriver(LangPython))
	r.register(newTreeSitterDriver(LangGo))
	r.register(newProtoDriver())
	return r
}

func (r *Registry) register(d Driver) {
	r.drivers[d.Language()] = d
}

// ForPath resolves the driver for a repo-relative or absolute path's
// extension. Unsupported-but-code-like extensions resolve to the fallback
// driver rather than nil, so Skeletonize always has something to call.
func (r *Registry) ForPath(path string) Driver {
	ext := extOf(path)
	lang := LanguageFromExtension(ext)
	if lang == LangUnknown {
		return r.fallback
	}
	if d, ok := r.drivers[lang]; ok {
		return d
	}
	return r.fallback
}

// ForLanguage resolves a driver directly by language tag.
func (r *Registry) ForLanguage(lang Language) (Driver, bool) {
	d, ok := r.drivers[lang]
	return d, ok
}

// Languages returns every language with a concrete (non-fallback) driver,
// in the fixed domain grouping order used by find_implementations: Proto,
// Rust, TypeScript, JavaScript, Python, Go.
func (r *Registry) Languages() []Language {
	return []Language{LangProto, LangRust, LangTypeScript, LangJavaScript, LangPython, LangGo}
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' {
			break
		}
	}
	return ""
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
