package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/voxelsplace/meshsdf/api"
	"github.com/voxelsplace/meshsdf/meshsdf"
)

// RunMesh2SDF voxelizes a .glb/.gltf file into a .msdf file.
func RunMesh2SDF(ctx context.Context, inPath, outPath string, s api.Settings) error {
	m, err := meshsdf.LoadGLTF(inPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", inPath, err)
	}
	f, err := api.MeshToField(ctx, m, s)
	if err != nil {
		return fmt.Errorf("%s: %w", inPath, err)
	}
	return meshsdf.SaveField(f, outPath, s.Encode)
}

// RunCube2SDF writes the field of the built-in unit cube.
func RunCube2SDF(ctx context.Context, outPath string, s api.Settings) error {
	data, err := api.CubeToFieldBytes(ctx, s)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0644)
}

// RunBatchMesh2SDF converts every input mesh into outDir, one .msdf per
// input, reading and voxelizing files concurrently. All errors are reported.
func RunBatchMesh2SDF(ctx context.Context, inputFiles []string, outDir string, s api.Settings) error {
	if len(inputFiles) == 0 {
		return fmt.Errorf("no mesh files provided")
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	errs := make([]error, len(inputFiles))
	var wg sync.WaitGroup
	for i := range inputFiles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := inputFiles[i]
			name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + ".msdf"
			errs[i] = RunMesh2SDF(ctx, in, filepath.Join(outDir, name), s)
		}(i)
	}
	wg.Wait()

	var failed []string
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err.Error())
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d conversions failed: %s", len(failed), len(inputFiles), strings.Join(failed, "; "))
	}
	return nil
}
