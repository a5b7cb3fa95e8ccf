package langdriver

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// protoDriver extracts descriptor-level symbols from .proto sources via
// full compilation (protocompile), not regex scraping, so message/service
// shapes are exact even across imports within a single file.
type protoDriver struct{}

func newProtoDriver() Driver { return &protoDriver{} }

func (d *protoDriver) Language() Language { return LangProto }

func (d *protoDriver) compile(path string, source []byte) protoreflect.FileDescriptor {
	resolver := protocompile.WithStandardImports(&protocompile.SourceResolver{
		Accessor: protocompile.SourceAccessorFromMap(map[string]string{
			path: string(source),
		}),
	})
	compiler := protocompile.Compiler{Resolver: resolver}
	files, err := compiler.Compile(context.Background(), path)
	if err != nil || len(files) == 0 {
		return nil
	}
	return files[0]
}

func (d *protoDriver) ExtractDefinitions(path string, source []byte) ([]Symbol, error) {
	fd := d.compile(path, source)
	if fd == nil {
		return nil, nil
	}

	var symbols []Symbol
	cursor := make(map[string]int)

	msgs := fd.Messages()
	for i := 0; i < msgs.Len(); i++ {
		symbols = append(symbols, messageSymbol(msgs.Get(i), path, "", source, cursor))
		appendNestedMessages(&symbols, msgs.Get(i), path, source, cursor)
	}

	enums := fd.Enums()
	for i := 0; i < enums.Len(); i++ {
		e := enums.Get(i)
		name := string(e.Name())
		start, end, lineStart, lineEnd := locateAndMark(source, cursor, "enum", name)
		symbols = append(symbols, Symbol{
			Name:          name,
			Kind:          KindEnum,
			Path:          path,
			ByteStart:     start,
			ByteEnd:       end,
			LineStart:     lineStart,
			LineEnd:       lineEnd,
			Visibility:    "public",
			SignatureText: "enum " + name,
		})
	}

	services := fd.Services()
	for i := 0; i < services.Len(); i++ {
		svc := services.Get(i)
		svcName := string(svc.Name())
		svcStart, svcEnd, svcLineStart, svcLineEnd := locateAndMark(source, cursor, "service", svcName)
		symbols = append(symbols, Symbol{
			Name:          svcName,
			Kind:          KindInterface,
			Path:          path,
			ByteStart:     svcStart,
			ByteEnd:       svcEnd,
			LineStart:     svcLineStart,
			LineEnd:       svcLineEnd,
			Visibility:    "public",
			SignatureText: "service " + svcName,
		})
		methods := svc.Methods()
		for j := 0; j < methods.Len(); j++ {
			m := methods.Get(j)
			mName := string(m.Name())
			mStart, mEnd, mLineStart, mLineEnd := locateAndMark(source, cursor, "rpc", mName)
			symbols = append(symbols, Symbol{
				Name:          mName,
				Kind:          KindMethod,
				Path:          path,
				ByteStart:     mStart,
				ByteEnd:       mEnd,
				LineStart:     mLineStart,
				LineEnd:       mLineEnd,
				Visibility:    "public",
				SignatureText: "rpc " + mName + "(" + string(m.Input().FullName()) + ") returns (" + string(m.Output().FullName()) + ")",
				ParentSymbol:  svcName,
			})
		}
	}

	return symbols, nil
}

func messageSymbol(m protoreflect.MessageDescriptor, path, container string, source []byte, cursor map[string]int) Symbol {
	var fieldNames []string
	fields := m.Fields()
	for i := 0; i < fields.Len(); i++ {
		fieldNames = append(fieldNames, string(fields.Get(i).Name()))
	}
	name := string(m.Name())
	start, end, lineStart, lineEnd := locateAndMark(source, cursor, "message", name)
	return Symbol{
		Name:          name,
		Kind:          KindMessage,
		Path:          path,
		ByteStart:     start,
		ByteEnd:       end,
		LineStart:     lineStart,
		LineEnd:       lineEnd,
		Visibility:    "public",
		SignatureText: "message " + name + " { " + strings.Join(fieldNames, ", ") + " }",
		ParentSymbol:  container,
	}
}

func appendNestedMessages(symbols *[]Symbol, m protoreflect.MessageDescriptor, path string, source []byte, cursor map[string]int) {
	nested := m.Messages()
	for i := 0; i < nested.Len(); i++ {
		n := nested.Get(i)
		*symbols = append(*symbols, messageSymbol(n, path, string(m.Name()), source, cursor))
		appendNestedMessages(symbols, n, path, source, cursor)
	}
}

// locateAndMark finds the byte/line range of the nth occurrence (n = number
// of prior calls with the same keyword+name) of a "<keyword> <name>"
// declaration in source, since protocompile's descriptors carry no byte
// offsets of their own. The occurrence count disambiguates sibling
// declarations that share a name (e.g. same-named nested messages under
// different parents).
func locateAndMark(source []byte, cursor map[string]int, keyword, name string) (byteStart, byteEnd, lineStart, lineEnd int) {
	key := keyword + "|" + name
	occurrence := cursor[key]
	cursor[key] = occurrence + 1

	start, end, ok := locateProtoDecl(source, keyword, name, occurrence)
	if !ok {
		return 0, 0, 0, 0
	}
	return start, end, lineForByte(source, start), lineForByte(source, end)
}

func locateProtoDecl(source []byte, keyword, name string, occurrence int) (start, end int, ok bool) {
	pattern := regexp.MustCompile(`(?m)\b` + regexp.QuoteMeta(keyword) + `\s+` + regexp.QuoteMeta(name) + `\b`)
	matches := pattern.FindAllIndex(source, -1)
	if occurrence >= len(matches) {
		return 0, 0, false
	}
	start = matches[occurrence][0]
	end = closeProtoDecl(source, matches[occurrence][1], keyword)
	return start, end, true
}

// closeProtoDecl returns the byte offset just past the end of the
// declaration that begins at from: the matching '}' for message/enum/
// service bodies, or the terminating ';' (or, for streaming options, the
// matching '}') for an rpc method.
func closeProtoDecl(source []byte, from int, keyword string) int {
	if keyword == "rpc" {
		semi := indexByteFrom(source, from, ';')
		brace := indexByteFrom(source, from, '{')
		switch {
		case brace != -1 && (semi == -1 || brace < semi):
			return matchBrace(source, brace) + 1
		case semi != -1:
			return semi + 1
		default:
			return len(source)
		}
	}
	brace := indexByteFrom(source, from, '{')
	if brace == -1 {
		return len(source)
	}
	return matchBrace(source, brace) + 1
}

func indexByteFrom(source []byte, from int, b byte) int {
	idx := bytes.IndexByte(source[from:], b)
	if idx == -1 {
		return -1
	}
	return from + idx
}

func matchBrace(source []byte, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(source); i++ {
		switch source[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(source) - 1
}

func lineForByte(source []byte, pos int) int {
	if pos > len(source) {
		pos = len(source)
	}
	return bytes.Count(source[:pos], []byte("\n")) + 1
}

// ExtractUsages matches a field's type name against name, categorizing the
// reference as a type_ref; it is the only usage category proto buffers
// naturally produce (there are no calls or field-access expressions in a
// .proto schema file itself).
func (d *protoDriver) ExtractUsages(path string, source []byte, name string) ([]Usage, error) {
	fd := d.compile(path, source)
	if fd == nil {
		return nil, nil
	}

	var usages []Usage
	var walk func(m protoreflect.MessageDescriptor)
	walk = func(m protoreflect.MessageDescriptor) {
		fields := m.Fields()
		for i := 0; i < fields.Len(); i++ {
			f := fields.Get(i)
			if f.Kind() == protoreflect.MessageKind || f.Kind() == protoreflect.GroupKind {
				if string(f.Message().Name()) == name {
					usages = append(usages, Usage{Path: path, Category: CategoryTypeRef})
				}
			}
			if f.Kind() == protoreflect.EnumKind && string(f.Enum().Name()) == name {
				usages = append(usages, Usage{Path: path, Category: CategoryTypeRef})
			}
		}
		nested := m.Messages()
		for i := 0; i < nested.Len(); i++ {
			walk(nested.Get(i))
		}
	}
	msgs := fd.Messages()
	for i := 0; i < msgs.Len(); i++ {
		walk(msgs.Get(i))
	}
	return usages, nil
}

func (d *protoDriver) ExtractOutgoingCalls(path string, source []byte, sym Symbol) ([]OutgoingCall, error) {
	return nil, nil
}

func (d *protoDriver) ExtractImplementors(path string, source []byte, traitName string) ([]Implementor, error) {
	return nil, nil
}

// Skeletonize applies the fallback driver's text-shape heuristic, since a
// .proto schema has no executable bodies to strip: `message` and `enum`
// declaration lines are kept; `service`, `rpc` and field lines do not match
// that heuristic and are dropped along with comments.
func (d *protoDriver) Skeletonize(source []byte, opts SkeletonOptions) (string, error) {
	return fallbackSkeletonize(source, opts), nil
}
