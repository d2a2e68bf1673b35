// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package device probes the host for compute acceleration and sizes the
// conversion worker pool from the result.
package device

import (
	"os/exec"
	"runtime"

	"github.com/hoohahaBIGHEAD/PdfParsing/pkg/types"
)

const binNvidiaSMI = "nvidia-smi"

// prober abstracts host introspection for testing.
type prober interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	GOOS() string
	GOARCH() string
}

// osProber is the production prober backed by os/exec and the runtime package.
type osProber struct{}

func (o *osProber) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osProber) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osProber) GOOS() string   { return runtime.GOOS }
func (o *osProber) GOARCH() string { return runtime.GOARCH }

var defaultProber prober = &osProber{}

// Probe detects the best available compute device. CUDA wins when nvidia-smi
// is on PATH and responds; Apple Silicon reports MPS. Any probe failure
// degrades silently to DeviceNone — detection must never abort a run.
func Probe() types.DeviceClass {
	return probe(defaultProber)
}

func probe(p prober) types.DeviceClass {
	if _, err := p.LookPath(binNvidiaSMI); err == nil {
		if p.RunSilent(binNvidiaSMI, "-L") == nil {
			return types.DeviceCUDA
		}
	}
	if p.GOOS() == "darwin" && p.GOARCH() == "arm64" {
		return types.DeviceMPS
	}
	return types.DeviceNone
}

// Workers resolves the worker count for a device class: the per-class
// ceiling from limits, clamped to hostCPUs, floored at 1.
func Workers(class types.DeviceClass, limits types.WorkerLimits, hostCPUs int) int {
	n := limits.Limit(class)
	if hostCPUs > 0 && n > hostCPUs {
		n = hostCPUs
	}
	if n < 1 {
		n = 1
	}
	return n
}

// HostCPUs returns the number of processing units available to the process.
func HostCPUs() int {
	return runtime.NumCPU()
}
