package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"cuelang.org/go/cue/token"

	"github.com/roach88/prolly/internal/brain"
	"github.com/roach88/prolly/internal/compiler"
	"github.com/roach88/prolly/internal/engine"
	"github.com/roach88/prolly/internal/parse"
	"github.com/roach88/prolly/internal/term"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeParse       = "E002" // Clause or query text does not parse
	ErrCodeNoFiles     = "E003" // No knowledge files found
	ErrCodeLoadFailed  = "E004" // CUE load failed or unsupported file
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeCompile     = "E006" // CUE knowledge base does not compile
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeMalformed   = "E008" // Database rejected a clause or goal
	ErrCodeQuota       = "E009" // Query exceeded its step quota
	ErrCodeTimeout     = "E010" // Query timed out
	ErrCodeRuntime     = "E011" // Other query runtime error
)

// LoadError represents an error that occurred while loading knowledge.
type LoadError struct {
	Code    string
	Message string
	Line    int       // line in a text file, if known
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadKnowledge reads clauses from the given files and directories.
// Errors are returned as *LoadError.
func LoadKnowledge(paths []string) ([]term.Clause, error) {
	if len(paths) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: "no knowledge files given"}
	}
	clauses, err := compiler.Load(paths...)
	if err != nil {
		return nil, classifyError(err)
	}
	return clauses, nil
}

// newBrain builds a database over clauses. A rejected clause is returned
// as *LoadError.
func newBrain(clauses []term.Clause, logger *slog.Logger, opts ...engine.Option) (*brain.Brain, error) {
	db := brain.New(
		brain.WithLogger(logger),
		brain.WithResolverOptions(opts...),
	)
	if err := db.AddAll(clauses...); err != nil {
		return nil, classifyError(err)
	}
	return db, nil
}

// classifyError maps loading and query errors to CLI error codes.
func classifyError(err error) *LoadError {
	var (
		le *LoadError
		pe *parse.Error
		ce *compiler.CompileError
	)
	switch {
	case errors.As(err, &le):
		return le
	case errors.As(err, &pe):
		return &LoadError{Code: ErrCodeParse, Message: err.Error(), Line: pe.Line, Err: err}
	case errors.As(err, &ce):
		return &LoadError{Code: ErrCodeCompile, Message: ce.Message, Pos: ce.Pos, Err: err}
	case brain.IsMalformedClause(err):
		return &LoadError{Code: ErrCodeMalformed, Message: err.Error(), Err: err}
	case errors.Is(err, compiler.ErrNoKnowledgeFiles):
		return &LoadError{Code: ErrCodeNoFiles, Message: err.Error(), Err: err}
	case errors.Is(err, compiler.ErrUnsupportedExtension):
		return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), Err: err}
	case errors.Is(err, fs.ErrNotExist):
		return &LoadError{Code: ErrCodeNotFound, Message: err.Error(), Err: err}
	case engine.IsQuotaError(err):
		return &LoadError{Code: ErrCodeQuota, Message: err.Error(), Err: err}
	default:
		return &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Err: err}
	}
}
