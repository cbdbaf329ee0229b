// Package preprocess strips '//' line comments from tsmini source before
// it reaches the lexer, the one place in tsmini that keeps the teacher's
// goparsec-combinator parsing style (pkg/asm/parsing.go, pkg/vm/parsing.go
// both define the identical 'pComment' combinator below). Everything
// downstream of this package is hand-written recursive descent (see
// pkg/tsmini/lexer.go, parser.go) because the grammar needs a pulled
// single-token lookahead goparsec does not expose; comment stripping has
// no such requirement; it's a flat "comment | string | anything-else"
// scan, exactly the shape goparsec is built for.
package preprocess

import (
	"fmt"
	"strings"

	pc "github.com/prataprc/goparsec"
)

var ast = pc.NewAST("preprocess", 0)

var (
	// pComment is lifted verbatim from the teacher's pkg/asm/parsing.go
	// and pkg/vm/parsing.go: a '//' atom followed by the rest of the line.
	pComment = ast.And("comment", nil, pc.Atom("//", "//"), pc.Token(`(?m).*$`, "COMMENT"))

	// pString keeps a whole quoted literal — escapes and all, including
	// any '//' that happens to appear inside one — as a single token, so
	// Strip never mistakes string contents for a comment.
	pString = pc.Token(`"(\\.|[^"\\])*"`, "STRING")

	// pOther is the catch-all: any character not consumed by the two
	// productions above, kept in the output unchanged.
	pOther = pc.Token(`(?s).`, "CHAR")

	pDocument = ast.ManyUntil("document", nil, ast.OrdChoice("item", nil, pComment, pString, pOther), pc.End())
)

// Strip removes every '//' line comment from 'source', preserving string
// literals and every other byte (including newlines, so downstream line
// numbers stay close to the original for diagnostics) exactly as found.
func Strip(source string) (string, error) {
	root, success := ast.Parsewith(pDocument, pc.NewScanner([]byte(source)))
	if !success || root.GetName() != "document" {
		return "", fmt.Errorf("preprocess: failed to scan source")
	}

	var out strings.Builder
	for _, child := range root.GetChildren() {
		switch child.GetName() {
		case "comment":
			continue // dropped entirely; the line's trailing newline is its own CHAR token
		case "STRING", "CHAR":
			out.WriteString(child.GetValue())
		default:
			return "", fmt.Errorf("preprocess: unrecognized node '%s'", child.GetName())
		}
	}
	return out.String(), nil
}
