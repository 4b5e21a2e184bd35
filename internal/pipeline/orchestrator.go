package pipeline

import (
	"context"
	"fmt"

	"wb-content-manager/internal/model"
	"wb-content-manager/internal/source"
)

// LinkResolver turns a remote tree path into a direct download URL.
type LinkResolver interface {
	ResolveDownloadURL(ctx context.Context, treePath string) (string, error)
}

// Marketplace is the product search and media upload surface of the content
// API client.
type Marketplace interface {
	ResolveProductID(ctx context.Context, vendorCode string) (int64, error)
	UploadURLs(ctx context.Context, productID int64, urls []string) error
	UploadFile(ctx context.Context, productID int64, path string, photoNumber uint) error
}

// Orchestrator runs the enumerate-resolve-upload sequence for one set of
// vendor codes. Per-code failures are recorded and never abort the run; only
// setup failures do.
type Orchestrator struct {
	state *RunState
	src   source.Source
	enum  source.Enumerator
	links LinkResolver // remote source only, nil otherwise
	api   Marketplace
}

// Config wires an orchestrator. Links may be nil for local sources.
type Config struct {
	State      *RunState
	Source     source.Source
	Enumerator source.Enumerator
	Links      LinkResolver
	API        Marketplace
}

func NewOrchestrator(cfg Config) *Orchestrator {
	return &Orchestrator{
		state: cfg.State,
		src:   cfg.Source,
		enum:  cfg.Enumerator,
		links: cfg.Links,
		api:   cfg.API,
	}
}

// State exposes the run state for readers (dashboard, reports).
func (o *Orchestrator) State() *RunState { return o.state }

// Run executes one full pass over the vendor codes in input order. It returns
// an error only for setup failures; per-code failures end up in the run
// state's failed list.
func (o *Orchestrator) Run(ctx context.Context, vendorCodes []string) error {
	if len(vendorCodes) == 0 {
		return fmt.Errorf("%w: no vendor codes given", model.ErrValidation)
	}
	if err := o.state.Start(len(vendorCodes)); err != nil {
		return err
	}

	o.state.Logf("enumerating %s source for %d vendor codes", o.src.Kind, len(vendorCodes))
	files, err := o.enum.Enumerate(ctx, vendorCodes)
	if err != nil {
		o.state.Abort(err)
		return err
	}
	o.state.Logf("enumeration finished: %d files matched", len(files))

	for _, code := range vendorCodes {
		if err := ctx.Err(); err != nil {
			o.state.Abort(err)
			return err
		}
		o.state.MarkProcessing(code)
		if err := o.processCode(ctx, code, files); err != nil {
			o.state.MarkFailed(code, err)
		} else {
			o.state.Logf("code %s done", code)
		}
		o.state.MarkProcessed()
	}

	o.state.Complete()
	return nil
}

func (o *Orchestrator) processCode(ctx context.Context, code string, all []model.FileDescriptor) error {
	productID, err := o.api.ResolveProductID(ctx, code)
	if err != nil {
		return fmt.Errorf("resolve product: %w", err)
	}

	files := model.FilterByCode(all, code)
	if len(files) == 0 {
		return fmt.Errorf("%w: no files for vendor code %q", model.ErrNotFound, code)
	}

	switch o.src.Kind {
	case source.SingleFile:
		for _, f := range files {
			if err := o.api.UploadFile(ctx, productID, f.StagingPath, f.PhotoNumber); err != nil {
				return fmt.Errorf("upload file %s: %w", f.Name, err)
			}
		}
		return nil
	case source.LocalDir:
		urls := make([]string, 0, len(files))
		for _, f := range files {
			urls = append(urls, "file://"+f.StagingPath)
		}
		if err := o.api.UploadURLs(ctx, productID, urls); err != nil {
			return fmt.Errorf("upload media: %w", err)
		}
		return nil
	default:
		urls := make([]string, 0, len(files))
		for _, f := range files {
			u, err := o.links.ResolveDownloadURL(ctx, f.TreePath)
			if err != nil {
				return fmt.Errorf("resolve link for %s: %w", f.Name, err)
			}
			urls = append(urls, u)
		}
		if err := o.api.UploadURLs(ctx, productID, urls); err != nil {
			return fmt.Errorf("upload media: %w", err)
		}
		return nil
	}
}
