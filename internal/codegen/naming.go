// Package codegen holds the helpers shared by the language emitters: identifier
// conversion, an indenting source writer and descriptor encoding.
package codegen

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Words splits an identifier into words at separators, lower-to-upper
// transitions and the end of acronyms ("HTTPServer" -> "HTTP", "Server").
func Words(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// Casers are stateful; emitters run concurrently, so each call gets its own.
func title(w string) string {
	return cases.Title(language.Und).String(w)
}

// PascalCase joins the words of s with each word capitalised.
func PascalCase(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(title(w))
	}
	return b.String()
}

// CamelCase is PascalCase with a lower-case first word.
func CamelCase(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(title(w))
	}
	return b.String()
}

// SnakeCase joins the lower-cased words of s with underscores.
func SnakeCase(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

var goInitialisms = map[string]bool{
	"API": true, "ASCII": true, "CPU": true, "CSS": true, "DNS": true, "EOF": true,
	"GRPC": true, "HTML": true, "HTTP": true, "HTTPS": true, "ID": true, "IP": true,
	"JSON": true, "RPC": true, "SDK": true, "SQL": true, "TCP": true, "TLS": true,
	"TTL": true, "UI": true, "URI": true, "URL": true, "UUID": true, "XML": true,
}

// GoName returns an exported Go identifier for s using the usual initialisms
// ("user_id" -> "UserID").
func GoName(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		if up := strings.ToUpper(w); goInitialisms[up] {
			b.WriteString(up)
			continue
		}
		b.WriteString(title(w))
	}
	return leadingLetter(b.String(), "X")
}

var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true, "assert": true,
	"async": true, "await": true, "break": true, "class": true, "continue": true, "def": true,
	"del": true, "elif": true, "else": true, "except": true, "finally": true, "for": true,
	"from": true, "global": true, "if": true, "import": true, "in": true, "is": true,
	"lambda": true, "nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
	// pydantic BaseModel attributes that fields must not shadow
	"schema": true, "json": true, "copy": true, "dict": true, "validate": true, "construct": true,
}

// PyName returns a snake_case Python identifier; keywords get a trailing underscore.
func PyName(s string) string {
	name := leadingLetter(SnakeCase(s), "_")
	if pythonKeywords[name] {
		name += "_"
	}
	return name
}

// Names the generated modules import or re-export next to the models.
var pythonImports = map[string]bool{
	"Annotated": true, "Any": true, "Dict": true, "List": true, "Literal": true, "Mapping": true,
	"Optional": true, "Tuple": true, "Union": true, "BaseModel": true, "ConfigDict": true, "Field": true,
	"ApiError": true, "Client": true, "ValidationError": true, "ValidationIssue": true,
}

// PyClassName returns a PascalCase Python class name. Keywords and names the
// generated modules import get a trailing underscore.
func PyClassName(s string) string {
	name := leadingLetter(PascalCase(s), "_")
	if pythonKeywords[name] || pythonImports[name] {
		name += "_"
	}
	return name
}

var tsReserved = map[string]bool{
	"any": true, "boolean": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true, "in": true, "instanceof": true,
	"never": true, "new": true, "null": true, "number": true, "object": true, "return": true,
	"string": true, "super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "undefined": true, "unknown": true, "var": true, "void": true,
	"while": true, "with": true,
}

// Names the generated index re-exports next to the types.
var tsExports = map[string]bool{
	"ApiError": true, "Client": true, "ClientOptions": true, "RequestOptions": true,
	"SchemaDescriptor": true, "SchemaName": true, "ValidationError": true, "ValidationIssue": true,
}

// TSTypeName returns a PascalCase TypeScript type name. Reserved words and the
// names the index re-exports get a leading underscore.
func TSTypeName(s string) string {
	name := leadingLetter(PascalCase(s), "_")
	if tsReserved[name] || tsExports[name] {
		name = "_" + name
	}
	return name
}

// IsTSIdentifier reports whether s can be used unquoted as a property key.
func IsTSIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// TSPropertyKey returns s as an object key, quoted when it is not an identifier.
// Wire names are kept as-is so that payloads round-trip unchanged.
func TSPropertyKey(s string) string {
	if IsTSIdentifier(s) {
		return s
	}
	return strconv.Quote(s)
}

func leadingLetter(s, prefix string) string {
	if s == "" {
		return prefix
	}
	if r := []rune(s)[0]; unicode.IsDigit(r) {
		return prefix + s
	}
	return s
}
