package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KevinMFinch/Cos426-final/engine/md5"
	"github.com/KevinMFinch/Cos426-final/engine/renderer/metadata"
)

type MD5MeshLoader struct{}

/**
 * @brief Parses an .md5mesh file. params may be a []md5.ParseOption; the
 * model is named after the file unless an option says otherwise.
 */
func (ml *MD5MeshLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	opts := []md5.ParseOption{md5.WithModelName(filepath.Base(path))}
	switch p := params.(type) {
	case nil:
	case []md5.ParseOption:
		opts = append(opts, p...)
	default:
		return nil, fmt.Errorf("md5mesh loader: unexpected params type %T", params)
	}

	model, err := md5.ParseReader(file, opts...)
	if err != nil {
		return nil, fmt.Errorf("md5mesh loader: %s: %w", path, err)
	}

	return &metadata.Resource{
		Type:     metadata.ResourceTypeMD5Mesh,
		Name:     model.Name,
		FullPath: path,
		DataSize: uint64(info.Size()),
		Data:     model,
	}, nil
}

func (ml *MD5MeshLoader) Unload(res *metadata.Resource) error {
	if res != nil {
		res.Data = nil
	}
	return nil
}
