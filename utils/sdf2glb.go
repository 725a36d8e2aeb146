package utils

import (
	"os"

	"github.com/voxelsplace/meshsdf/api"
)

// RunSDF2GLB writes the iso surface of a .msdf file as .glb.
func RunSDF2GLB(inPath, outPath string, iso float32, cells int) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	glb, err := api.FieldToGLB(data, iso, cells)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, glb, 0644)
}

// RunSDFBlocks writes the voxels of a .msdf file below threshold as a blocky
// .glb mesh.
func RunSDFBlocks(inPath, outPath string, threshold float32) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	glb, err := api.FieldBlocksToGLB(data, threshold)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, glb, 0644)
}

// RunGenShape writes an analytic test shape as .glb.
func RunGenShape(name, outPath string, cells int) error {
	glb, err := api.ShapeToGLB(name, cells)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, glb, 0644)
}
