// Package assistant is the seam where document retrieval and generation would plug in.
// Only a stub exists today: it never reads the documents it is handed.
package assistant

import (
	"context"
	"fmt"
)

// Assistant answers a free-text query with the help of uploaded documents.
type Assistant interface {
	Name() string
	RetrieveAndGenerate(ctx context.Context, query string, documentPaths []string) (string, error)
}

// Stub counts the documents and echoes the query.
type Stub struct{}

func NewStub() *Stub { return &Stub{} }

func (s *Stub) Name() string { return "stub" }

func (s *Stub) RetrieveAndGenerate(ctx context.Context, query string, documentPaths []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Generated a response for '%s' using %d document(s).", query, len(documentPaths)), nil
}
