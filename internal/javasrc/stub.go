//go:build !cgo

// Package javasrc implements the fact provider on top of a tree-sitter parse
// of the Java source tree. This stub is used when CGO is not available.
package javasrc

import (
	"context"

	txerrors "txlens/internal/errors"
	"txlens/internal/facts"
	"txlens/internal/identity"
	"txlens/internal/logging"
)

// Options configure the indexing walk.
type Options struct {
	Roots            []string
	Ignore           []string
	MaxFileSizeBytes int
}

// Provider is a stub implementation when CGO is not available.
type Provider struct{}

// NewProvider creates a stub provider.
func NewProvider(logger *logging.Logger) *Provider {
	return &Provider{}
}

// Index always fails: parsing requires the tree-sitter runtime.
func (p *Provider) Index(ctx context.Context, opts Options) error {
	return txerrors.New(txerrors.SourceUnreadable, "source parsing requires a build with CGO enabled")
}

func (p *Provider) MethodFacts(ctx context.Context, id identity.MethodID) (*facts.MethodFacts, error) {
	return nil, nil
}

func (p *Provider) CallSites(ctx context.Context, id identity.MethodID) ([]facts.CallSite, error) {
	return nil, nil
}

func (p *Provider) Callers(ctx context.Context, id identity.MethodID) ([]facts.CallerRef, error) {
	return nil, nil
}

func (p *Provider) Implementations(ctx context.Context, id identity.MethodID) ([]identity.MethodID, error) {
	return nil, nil
}

func (p *Provider) Entity(typeName string) *facts.EntityFacts { return nil }

func (p *Provider) RepositoryEntity(typeName string) string { return "" }

func (p *Provider) FindMethods(query string) []identity.MethodID { return nil }

// IsAvailable returns whether source parsing is available.
func IsAvailable() bool {
	return false
}
