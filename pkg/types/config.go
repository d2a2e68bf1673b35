// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DeviceClass identifies the compute acceleration available on the host.
// It is probed once per run and used only to pick a worker-count ceiling.
type DeviceClass string

const (
	DeviceNone DeviceClass = "cpu"
	DeviceCUDA DeviceClass = "cuda"
	DeviceMPS  DeviceClass = "mps"
)

// WorkerLimits maps a DeviceClass to the maximum number of concurrent
// conversions. Accelerated devices get fewer workers because each conversion
// holds GPU memory; CPU-only hosts can afford more.
type WorkerLimits struct {
	CUDA int `json:"cuda" yaml:"cuda"`
	MPS  int `json:"mps" yaml:"mps"`
	CPU  int `json:"cpu" yaml:"cpu"`
}

// DefaultWorkerLimits returns the stock ceilings: 2 for either accelerator
// class, 4 for CPU-only.
func DefaultWorkerLimits() WorkerLimits {
	return WorkerLimits{CUDA: 2, MPS: 2, CPU: 4}
}

// Limit returns the ceiling for the given device class. Unset or negative
// values fall back to the defaults.
func (l WorkerLimits) Limit(class DeviceClass) int {
	d := DefaultWorkerLimits()
	switch class {
	case DeviceCUDA:
		if l.CUDA > 0 {
			return l.CUDA
		}
		return d.CUDA
	case DeviceMPS:
		if l.MPS > 0 {
			return l.MPS
		}
		return d.MPS
	default:
		if l.CPU > 0 {
			return l.CPU
		}
		return d.CPU
	}
}

// ConversionBackend identifies the document-to-markdown engine.
type ConversionBackend string

const (
	BackendDocling    ConversionBackend = "docling"
	BackendLlamaParse ConversionBackend = "llamaparse"
)

// ResultMode selects the primary serialization produced by a backend.
type ResultMode string

const (
	ResultMarkdown ResultMode = "markdown"
	ResultText     ResultMode = "text"
)

// HTTPConfig holds shared HTTP settings for backends that call remote APIs.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pdfparsing/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ConverterConfig holds per-backend conversion settings. A fresh Converter
// is built from this value for every work item; the struct itself carries
// no engine state.
type ConverterConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects the conversion engine: docling or llamaparse.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// ImageScale is the render resolution multiplier for page and picture
	// images (default 2.0).
	ImageScale float64 `json:"image_scale" yaml:"image_scale"`

	// GeneratePageImages materializes a render of every page as an asset.
	GeneratePageImages bool `json:"generate_page_images" yaml:"generate_page_images"`

	// GeneratePictureImages materializes extracted figures as assets.
	GeneratePictureImages bool `json:"generate_picture_images" yaml:"generate_picture_images"`

	// Language is a parsing hint for backends that accept one (default "en").
	Language string `json:"language" yaml:"language"`

	// Mode selects the primary output serialization (default markdown).
	Mode ResultMode `json:"mode" yaml:"mode"`

	// DualText additionally writes a plain-text artifact next to the
	// markdown when the backend produced one.
	DualText bool `json:"dual_text" yaml:"dual_text"`

	// APIKey authenticates cloud backends. Loaded from .secrets/ when empty.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// BatchConfig holds settings for one batch conversion run.
type BatchConfig struct {
	// InputDir is scanned flat (non-recursive) for *.pdf documents.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir receives one subdirectory per input document.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Workers forces the worker count when > 0, skipping device probing.
	Workers int `json:"workers" yaml:"workers"`

	// Limits are the per-device worker ceilings used when Workers is 0.
	Limits WorkerLimits `json:"limits" yaml:"limits"`

	// WriteMetadata persists a <stem>_meta.json artifact per document.
	WriteMetadata bool `json:"write_metadata" yaml:"write_metadata"`

	// HistoryDB is the path of the SQLite run ledger. Empty disables history.
	HistoryDB string `json:"history_db" yaml:"history_db"`

	Converter ConverterConfig `json:"converter" yaml:"converter"`
}
