package assets

import "github.com/KevinMFinch/Cos426-final/engine/renderer/metadata"

type Loader interface {
	Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) // `interface{}` here allows loaders to take their own options
	Unload(*metadata.Resource) error
}
