//go:build !withcv
// +build !withcv

package main

import (
	"github.com/urfave/cli/v2"

	"github.com/LdDl/buoy-go/detector"
)

func cameraAction(c *cli.Context) error {
	return detector.ErrOpenCVUnavailable
}
