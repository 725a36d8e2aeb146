package utils

import (
	"os"

	"github.com/voxelsplace/meshsdf/api"
)

// RunSDFInfo describes a .msdf file.
func RunSDFInfo(inPath string) (api.Info, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return api.Info{}, err
	}
	return api.FieldInfo(data)
}
