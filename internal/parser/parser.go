// Package parser turns raw bank/broker export files into canonical
// transactions. Each supported institution registers one Parser under its
// source key; the Registry dispatches and rejects unknown keys before any
// parsing logic runs.
package parser

import (
	"fmt"
	"strings"

	"github.com/moneta-dev/moneta/internal/model"
)

// ParseResult is the outcome of parsing one export file. Row-level problems
// travel as Warnings; a result is unsuccessful only when no usable rows came
// out at all.
type ParseResult struct {
	Success      bool
	Transactions []model.CanonicalTransaction
	Errors       []string
	Warnings     []string
}

// Failure builds an unsuccessful result from error messages.
func Failure(errs ...string) ParseResult {
	return ParseResult{Success: false, Errors: errs}
}

// Parser converts the raw bytes of one institution's export format into
// canonical transactions.
type Parser interface {
	// SourceKey is the institution identifier the parser registers under.
	SourceKey() string
	// MIMETypes lists the content types the parser accepts.
	MIMETypes() []string
	// Parse decodes and converts the file. It never panics on malformed
	// input; bad rows become warnings.
	Parse(content []byte, mimeType string) ParseResult
}

// Registry holds parsers keyed by institution source key.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate source key.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.SourceKey())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser source key: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for a source key, or nil.
func (r *Registry) Get(sourceKey string) Parser {
	return r.parsers[strings.ToLower(sourceKey)]
}

// SourceKeys returns the registered source keys.
func (r *Registry) SourceKeys() []string {
	keys := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		keys = append(keys, k)
	}
	return keys
}

// Parse resolves sourceKey and dispatches. An unknown key or a MIME type the
// parser does not accept is a hard failure; nothing is parsed.
func (r *Registry) Parse(sourceKey string, content []byte, mimeType string) ParseResult {
	p := r.Get(sourceKey)
	if p == nil {
		return Failure("unsupported source")
	}
	if mimeType != "" && !accepts(p, mimeType) {
		return Failure(fmt.Sprintf("unsupported mime type %q for source %q", mimeType, p.SourceKey()))
	}
	return p.Parse(content, mimeType)
}

func accepts(p Parser, mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	for _, m := range p.MIMETypes() {
		if mt == m {
			return true
		}
	}
	return false
}

// finish assembles a ParseResult from parsed rows and row-level warnings.
// Zero usable rows turns the warnings into a batch failure.
func finish(txns []model.CanonicalTransaction, warnings []string) ParseResult {
	if len(txns) == 0 {
		errs := warnings
		if len(errs) == 0 {
			errs = []string{"no usable rows"}
		}
		return ParseResult{Success: false, Errors: errs}
	}
	return ParseResult{Success: true, Transactions: txns, Warnings: warnings}
}

// csvMIMETypes are the content types banks use for CSV exports.
var csvMIMETypes = []string{"text/csv", "application/csv", "application/vnd.ms-excel", "text/plain"}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&BoursoramaParser{})
	r.Register(&CreditAgricoleParser{})
	r.Register(&RevolutParser{})
	return r
}
