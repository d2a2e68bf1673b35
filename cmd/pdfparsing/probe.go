// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hoohahaBIGHEAD/PdfParsing/internal/device"
	"github.com/hoohahaBIGHEAD/PdfParsing/pkg/types"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show the detected compute device and resolved worker count",
	Run: func(cmd *cobra.Command, args []string) {
		class := device.Probe()
		limits := types.WorkerLimits{
			CUDA: viper.GetInt("limits.cuda"),
			MPS:  viper.GetInt("limits.mps"),
			CPU:  viper.GetInt("limits.cpu"),
		}
		cpus := device.HostCPUs()

		fmt.Printf("Device:  %s\n", class)
		fmt.Printf("CPUs:    %d\n", cpus)
		fmt.Printf("Workers: %d\n", device.Workers(class, limits, cpus))
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
