package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

func GenerateThumbnail(srcPath, dstPath string, width, height int) error {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return err
	}

	thumb := imaging.Fit(img, width, height, imaging.Lanczos)
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return err
	}
	return imaging.Save(thumb, dstPath)
}
