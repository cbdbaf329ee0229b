package tsmini

import "fmt"

// component tags the pipeline stage that raised a diagnostic, per
// spec.md §4.6/§7: every error is fatal, single-line, and prefixed with
// one of these tags.
type component string

const (
	compLexer    component = "Lexer"
	compParser   component = "Parser"
	compSemantic component = "Semantic"
	compCodeGen  component = "CodeGen"
)

// tsError is the single error shape produced anywhere in the pipeline.
// There is no recovery: every constructor below is used at a point that
// unwinds the current pass immediately.
type tsError struct {
	tag component
	pos *Pos
	msg string
}

func (e *tsError) Error() string {
	if e.pos != nil {
		return fmt.Sprintf("[%s] %s (at %s)", e.tag, e.msg, e.pos)
	}
	return fmt.Sprintf("[%s] %s", e.tag, e.msg)
}

func lexErrorf(pos Pos, format string, args ...any) error {
	return &tsError{tag: compLexer, pos: &pos, msg: fmt.Sprintf(format, args...)}
}

func parseErrorf(pos Pos, format string, args ...any) error {
	return &tsError{tag: compParser, pos: &pos, msg: fmt.Sprintf(format, args...)}
}

func semanticErrorf(format string, args ...any) error {
	return &tsError{tag: compSemantic, msg: fmt.Sprintf(format, args...)}
}

func codegenErrorf(format string, args ...any) error {
	return &tsError{tag: compCodeGen, msg: fmt.Sprintf(format, args...)}
}
