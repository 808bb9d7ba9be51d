package lang

import (
	"github.com/smacker/go-tree-sitter/swift"
)

func init() {
	Languages["swift"] = &Language{
		Name:       "swift",
		Extensions: []string{".swift"},
		lang:       swift.GetLanguage(),
	}
}
