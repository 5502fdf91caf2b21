// # internal/engine/parser/loader.go
package parser

import (
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

const LanguageJava = "java"

// GrammarLoader owns the tree-sitter grammars the frontend can parse.
type GrammarLoader struct {
	languages  map[string]*sitter.Language
	extensions map[string]string
}

func NewGrammarLoader() *GrammarLoader {
	return &GrammarLoader{
		languages: map[string]*sitter.Language{
			LanguageJava: sitter.NewLanguage(tree_sitter_java.Language()),
		},
		extensions: map[string]string{".java": LanguageJava},
	}
}

func (gl *GrammarLoader) Language(name string) (*sitter.Language, bool) {
	lang, ok := gl.languages[name]
	return lang, ok
}

// LanguageForPath maps a file name to its grammar by extension.
func (gl *GrammarLoader) LanguageForPath(path string) (string, bool) {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "", false
	}
	lang, ok := gl.extensions[strings.ToLower(path[idx:])]
	return lang, ok
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	extensions := make([]string, 0, len(gl.extensions))
	for ext := range gl.extensions {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}
