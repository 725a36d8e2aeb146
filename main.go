//go:build !(js && wasm)

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/voxelsplace/meshsdf/api"
	"github.com/voxelsplace/meshsdf/config"
	"github.com/voxelsplace/meshsdf/meshsdf"
	"github.com/voxelsplace/meshsdf/utils"
)

func usage() {
	fmt.Println("Usage: meshsdftool <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  mesh2sdf input.glb output.msdf [resolution]     (voxelize a mesh into a distance field)")
	fmt.Println("  cube2sdf output.msdf [resolution]               (distance field of the built-in unit cube)")
	fmt.Println("  batch output_dir input1.glb [input2.glb ...]    (voxelize several meshes concurrently)")
	fmt.Println("  sdfinfo input.msdf                              (print header, range and checksum)")
	fmt.Println("  sdf2glb input.msdf output.glb [iso]             (extract the iso surface with marching cubes)")
	fmt.Println("  sdfblocks input.msdf output.glb [threshold]     (greedy block mesh of the voxels below threshold)")
	fmt.Println("  genshape box|sphere|cylinder|capsule|cube output.glb  (write a test mesh)")
	fmt.Println("Settings are read from MESHSDF_* environment variables (resolution, flood mode, quality, iterations, ...).")
}

func fail(err error) {
	fmt.Println("Error:", err)
	os.Exit(1)
}

func parseFloat(arg string) float32 {
	var v float32
	if _, err := fmt.Sscan(arg, &v); err != nil {
		fail(err)
	}
	return v
}

func parseInt(arg string) int {
	var v int
	if _, err := fmt.Sscan(arg, &v); err != nil {
		fail(err)
	}
	return v
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	meshsdf.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	settings := api.Settings{
		Resolution: cfg.Resolution,
		Padding:    cfg.Padding,
		Options:    cfg.Options(),
		Encode:     cfg.EncodeOptions(),
	}

	switch os.Args[1] {
	case "mesh2sdf":
		if len(os.Args) != 4 && len(os.Args) != 5 {
			usage()
			os.Exit(1)
		}
		if len(os.Args) == 5 {
			settings.Resolution = parseInt(os.Args[4])
		}
		if err := utils.RunMesh2SDF(ctx, os.Args[2], os.Args[3], settings); err != nil {
			fail(err)
		}
	case "cube2sdf":
		if len(os.Args) != 3 && len(os.Args) != 4 {
			usage()
			os.Exit(1)
		}
		if len(os.Args) == 4 {
			settings.Resolution = parseInt(os.Args[3])
		}
		if err := utils.RunCube2SDF(ctx, os.Args[2], settings); err != nil {
			fail(err)
		}
	case "batch":
		if len(os.Args) < 4 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunBatchMesh2SDF(ctx, os.Args[3:], os.Args[2], settings); err != nil {
			fail(err)
		}
	case "sdfinfo":
		if len(os.Args) != 3 {
			usage()
			os.Exit(1)
		}
		info, err := utils.RunSDFInfo(os.Args[2])
		if err != nil {
			fail(err)
		}
		fmt.Println(info)
		return
	case "sdf2glb":
		if len(os.Args) != 4 && len(os.Args) != 5 {
			usage()
			os.Exit(1)
		}
		var iso float32
		if len(os.Args) == 5 {
			iso = parseFloat(os.Args[4])
		}
		if err := utils.RunSDF2GLB(os.Args[2], os.Args[3], iso, cfg.IsoCells); err != nil {
			fail(err)
		}
	case "sdfblocks":
		if len(os.Args) != 4 && len(os.Args) != 5 {
			usage()
			os.Exit(1)
		}
		var threshold float32
		if len(os.Args) == 5 {
			threshold = parseFloat(os.Args[4])
		}
		if err := utils.RunSDFBlocks(os.Args[2], os.Args[3], threshold); err != nil {
			fail(err)
		}
	case "genshape":
		if len(os.Args) != 4 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunGenShape(os.Args[2], os.Args[3], cfg.IsoCells); err != nil {
			fail(err)
		}
	default:
		usage()
		os.Exit(1)
	}

	fmt.Println("Operation completed!")
}
