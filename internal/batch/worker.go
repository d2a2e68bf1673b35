// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hoohahaBIGHEAD/PdfParsing/internal/convert"
	"github.com/hoohahaBIGHEAD/PdfParsing/internal/encode"
	"github.com/hoohahaBIGHEAD/PdfParsing/pkg/types"
)

// artifactsSuffix names the per-item asset subdirectory: <stem>_artifacts/.
const artifactsSuffix = "_artifacts"

// convertItem converts one work item with a freshly constructed Converter
// and writes all artifacts under item.DestDir/item.Name/. Any failure from
// the converter or an artifact write is captured into a Failure outcome
// with the partial elapsed time; convertItem never returns an error and
// never panics the batch.
func convertItem(item types.WorkItem, factory convert.Factory, cfg types.BatchConfig) (out types.Outcome) {
	start := time.Now()
	fail := func(err error) types.Outcome {
		return types.Outcome{Item: item, Message: err.Error(), Elapsed: time.Since(start)}
	}
	defer func() {
		if r := recover(); r != nil {
			out = fail(fmt.Errorf("converter panicked: %v", r))
		}
	}()

	conv, err := factory()
	if err != nil {
		return fail(err)
	}

	itemDir := filepath.Join(item.DestDir, item.Name)
	if err := os.MkdirAll(itemDir, 0o755); err != nil {
		return fail(err)
	}

	doc, err := conv.Convert(item.SourcePath)
	if err != nil {
		return fail(err)
	}

	// Assets go to disk first so the markdown's references have targets.
	assetCount, err := writeAssets(itemDir, item.Name, doc.Assets)
	if err != nil {
		return fail(err)
	}

	artifacts, textLen, err := writeText(itemDir, item, doc, cfg.Converter)
	if err != nil {
		return fail(err)
	}

	if cfg.WriteMetadata {
		if err := writeMetadata(itemDir, item, doc, textLen, assetCount, time.Since(start)); err != nil {
			return fail(err)
		}
	}

	return types.Outcome{
		Item:          item,
		OK:            true,
		ArtifactPaths: artifacts,
		AssetCount:    assetCount,
		Elapsed:       time.Since(start),
	}
}

// writeAssets persists page renders and extracted figures under
// itemDir/<stem>_artifacts/ and returns how many were written.
func writeAssets(itemDir, stem string, assets []convert.Asset) (int, error) {
	if len(assets) == 0 {
		return 0, nil
	}

	dir := filepath.Join(itemDir, stem+artifactsSuffix)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating artifacts directory: %w", err)
	}

	count := 0
	for _, a := range assets {
		path := filepath.Join(dir, filepath.Base(a.Name))
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return count, fmt.Errorf("writing asset %s: %w", a.Name, err)
		}
		count++
	}
	return count, nil
}

// writeText persists the primary text artifact (markdown or plain text)
// and, when dual output is enabled, the secondary plain-text file. Markdown
// is run through the path encoder before the final write so asset links
// with special characters stay resolvable.
func writeText(itemDir string, item types.WorkItem, doc *convert.Document, cfg types.ConverterConfig) ([]string, int, error) {
	var artifacts []string
	textLen := 0

	write := func(path, content string) error {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
		}
		artifacts = append(artifacts, path)
		return nil
	}

	if cfg.Mode == types.ResultText {
		text := doc.AsText()
		textLen = len(text)
		return artifacts, textLen, write(filepath.Join(itemDir, item.Name+".txt"), text)
	}

	md := encode.ImagePaths(doc.AsMarkdown(convert.ImagesReferenced))
	textLen = len(md)
	if err := write(filepath.Join(itemDir, item.Name+".md"), md); err != nil {
		return artifacts, textLen, err
	}

	if cfg.DualText && doc.PlainText != "" {
		if err := write(filepath.Join(itemDir, item.Name+".txt"), doc.PlainText); err != nil {
			return artifacts, textLen, err
		}
	}
	return artifacts, textLen, nil
}

// itemMetadata is the <stem>_meta.json artifact persisted alongside the
// converted text.
type itemMetadata struct {
	Name              string  `json:"name"`
	ProcessingSeconds float64 `json:"processing_time_seconds"`
	PageCount         int     `json:"page_count,omitempty"`
	TextLength        int     `json:"text_length"`
	AssetCount        int     `json:"asset_count"`
}

func writeMetadata(itemDir string, item types.WorkItem, doc *convert.Document, textLen, assetCount int, elapsed time.Duration) error {
	meta := itemMetadata{
		Name:              item.Name,
		ProcessingSeconds: elapsed.Seconds(),
		PageCount:         doc.PageCount,
		TextLength:        textLen,
		AssetCount:        assetCount,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	path := filepath.Join(itemDir, item.Name+"_meta.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}
