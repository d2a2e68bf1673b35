// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/hoohahaBIGHEAD/PdfParsing/internal/container"
	"github.com/hoohahaBIGHEAD/PdfParsing/pkg/types"
)

const imageDocling = "docling-serve:latest"

// doclingEnvelope is the JSON document the docling-serve image writes to
// stdout: serializations plus base64-encoded assets keyed by filename.
type doclingEnvelope struct {
	Markdown  string            `json:"markdown"`
	Text      string            `json:"text"`
	PageCount int               `json:"page_count"`
	Assets    map[string]string `json:"assets"`
}

// DoclingConverter converts PDFs by piping them through the docling-serve
// container image. It depends on a container.Runtime (docker or podman)
// injected at construction time.
type DoclingConverter struct {
	runtime container.Runtime
	cfg     types.ConverterConfig
}

// NewDoclingConverter creates a converter that runs the docling-serve image
// with pipeline options derived from cfg.
func NewDoclingConverter(rt container.Runtime, cfg types.ConverterConfig) *DoclingConverter {
	return &DoclingConverter{runtime: rt, cfg: cfg}
}

// Convert pipes the PDF at pdfPath through the docling container and
// decodes the JSON envelope it emits.
func (d *DoclingConverter) Convert(pdfPath string) (*Document, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := d.runtime.Run(imageDocling, d.engineArgs(), f, &out); err != nil {
		return nil, fmt.Errorf("converting %s with docling: %w", pdfPath, err)
	}

	if out.Len() == 0 {
		return nil, fmt.Errorf("docling produced empty output for %s", pdfPath)
	}

	var env doclingEnvelope
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		return nil, fmt.Errorf("decoding docling output for %s: %w", pdfPath, err)
	}

	doc := &Document{
		Markdown:  env.Markdown,
		PlainText: env.Text,
		PageCount: env.PageCount,
	}

	// Stable asset order keeps artifact writes deterministic.
	names := make([]string, 0, len(env.Assets))
	for name := range env.Assets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := base64.StdEncoding.DecodeString(env.Assets[name])
		if err != nil {
			return nil, fmt.Errorf("decoding docling asset %s for %s: %w", name, pdfPath, err)
		}
		doc.Assets = append(doc.Assets, Asset{Name: name, Data: data})
	}

	return doc, nil
}

func (d *DoclingConverter) engineArgs() []string {
	scale := d.cfg.ImageScale
	if scale <= 0 {
		scale = 2.0
	}
	args := []string{"--to", "json", "--image-scale", strconv.FormatFloat(scale, 'g', -1, 64)}
	if d.cfg.GeneratePageImages {
		args = append(args, "--page-images")
	}
	if d.cfg.GeneratePictureImages {
		args = append(args, "--picture-images")
	}
	return args
}
