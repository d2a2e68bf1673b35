// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert defines the document conversion capability consumed by
// the batch orchestrator, with pluggable backends (docling, llamaparse).
package convert

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/hoohahaBIGHEAD/PdfParsing/internal/container"
	"github.com/hoohahaBIGHEAD/PdfParsing/pkg/types"
)

// ErrMissingAPIKey reports a cloud backend selected without credentials.
// Surfaced before any batch work starts.
var ErrMissingAPIKey = errors.New("llamaparse backend requires an API key: set .secrets/llama-cloud-api-key or converter.api_key")

// Converter transforms a PDF file into a structured Document. Instances are
// not assumed to be safe for concurrent use: the orchestrator builds a fresh
// Converter per work item through a Factory.
type Converter interface {
	// Convert reads the PDF at pdfPath and returns the parsed document.
	Convert(pdfPath string) (*Document, error)
}

// Factory builds a fresh Converter instance. Called once per work item so
// that no engine state is shared across concurrent conversions.
type Factory func() (Converter, error)

// NewFactory validates cfg and returns a Factory for the configured backend.
// Backend prerequisites (container image presence, API credentials) are
// checked here, up front, so a misconfigured run fails before any work item
// is dispatched.
func NewFactory(cfg types.ConverterConfig) (Factory, error) {
	switch cfg.Backend {
	case types.BackendDocling, "":
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		if err := rt.ImageExists(imageDocling); err != nil {
			return nil, fmt.Errorf("docling image not available in %s: %w", rt.Name(), err)
		}
		return func() (Converter, error) {
			return NewDoclingConverter(rt, cfg), nil
		}, nil

	case types.BackendLlamaParse:
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		return func() (Converter, error) {
			return NewLlamaParseConverter(cfg), nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown conversion backend %q", cfg.Backend)
	}
}

// ImageRefMode controls how AsMarkdown serializes image assets.
type ImageRefMode string

const (
	// ImagesReferenced keeps asset links pointing at files on disk.
	ImagesReferenced ImageRefMode = "referenced"
	// ImagesEmbedded inlines assets as base64 data URIs.
	ImagesEmbedded ImageRefMode = "embedded"
)

// Asset is one auxiliary artifact produced by a backend: a page render or
// an extracted figure.
type Asset struct {
	// Name is the asset filename relative to the item's artifacts directory.
	Name string

	Data []byte
}

// Document is the structured result of one conversion.
type Document struct {
	// Markdown is the layout-preserving serialization with referenced
	// asset links.
	Markdown string

	// PlainText is the flat text serialization; may be empty when the
	// backend produced markdown only.
	PlainText string

	// PageCount is the source page count, 0 when unknown.
	PageCount int

	Assets []Asset
}

// AsMarkdown serializes the document. In referenced mode the markdown is
// returned as produced; in embedded mode every asset link is replaced with
// a base64 data URI so the document is self-contained.
func (d *Document) AsMarkdown(mode ImageRefMode) string {
	if mode != ImagesEmbedded || len(d.Assets) == 0 {
		return d.Markdown
	}

	md := d.Markdown
	for _, a := range d.Assets {
		uri := "data:" + mimeFor(a.Name) + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
		md = strings.ReplaceAll(md, "("+a.Name+")", "("+uri+")")
	}
	return md
}

// AsText returns the plain-text serialization, falling back to the markdown
// when the backend produced no separate text result.
func (d *Document) AsText() string {
	if d.PlainText != "" {
		return d.PlainText
	}
	return d.Markdown
}

func mimeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".jpg"), strings.HasSuffix(name, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(name, ".gif"):
		return "image/gif"
	case strings.HasSuffix(name, ".webp"):
		return "image/webp"
	default:
		return "image/png"
	}
}
