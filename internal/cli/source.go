package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/funnel/pkg/adapters/share"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/schema"
)

// FunnelRefPrefix marks a source as the id of a published funnel.
const FunnelRefPrefix = "funnel:"

// Source is a resolved funnel document.
type Source struct {
	Document *domain.Document
	// Name identifies the funnel in logs and derived session ids.
	Name string
	// RemoteFunnelID binds leads to a published funnel. Empty for local documents.
	RemoteFunnelID string
	// Path is the file the document came from, if any.
	Path string
}

// ResolveSource loads a funnel from a file path, a share link or "funnel:<id>".
// A share link without an embedded document falls back to the published funnel it names.
func ResolveSource(ctx context.Context, ref string, funnels ports.FunnelSource) (*Source, error) {
	switch {
	case ref == "":
		return nil, fmt.Errorf("funnel source is required")
	case strings.HasPrefix(ref, FunnelRefPrefix):
		return fetchPublished(ctx, strings.TrimPrefix(ref, FunnelRefPrefix), funnels)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return fromLink(ctx, ref, funnels)
	}

	doc, err := schema.DecodeFile(ref)
	if err != nil {
		return nil, err
	}
	return &Source{
		Document: doc,
		Name:     strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref)),
		Path:     ref,
	}, nil
}

func fromLink(ctx context.Context, link string, funnels ports.FunnelSource) (*Source, error) {
	id, err := share.FunnelID(link)
	if err != nil {
		return nil, err
	}
	doc, err := share.DecodeURL(link)
	switch {
	case err == nil:
		name := id
		if name == "" {
			name = "shared"
		}
		return &Source{Document: doc, Name: name, RemoteFunnelID: id}, nil
	case errors.Is(err, share.ErrNoConfig) && id != "":
		return fetchPublished(ctx, id, funnels)
	default:
		return nil, err
	}
}

func fetchPublished(ctx context.Context, id string, funnels ports.FunnelSource) (*Source, error) {
	if id == "" {
		return nil, fmt.Errorf("funnel id is required")
	}
	if funnels == nil {
		return nil, fmt.Errorf("published funnel %s: persistence service %w", id, ErrNotConfigured)
	}
	published, err := funnels.GetPublishedFunnel(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Source{Document: published.Document, Name: id, RemoteFunnelID: id}, nil
}
