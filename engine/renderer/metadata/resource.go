package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Not something the asset manager tracks. */
	ResourceTypeNone ResourceType = iota
	/** @brief A Doom 3 skeletal mesh (.md5mesh). */
	ResourceTypeMD5Mesh
	/** @brief Image resource type (tga, png, jpg, bmp). */
	ResourceTypeImage
	/** @brief Custom resource type. Used by loaders outside the core engine. */
	ResourceTypeCustom
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceTypeMD5Mesh:
		return "md5mesh"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeCustom:
		return "custom"
	}
	return "none"
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The type the loader produced. */
	Type ResourceType
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}
