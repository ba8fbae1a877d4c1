package metadata

/** @brief Describes a type of job */
type JobType int

const (
	/**
	 * @brief A general job that does not have any specific thread requirements.
	 * This means it matters little which job thread this job runs on.
	 */
	JOB_TYPE_GENERAL JobType = 0x02
	/**
	 * @brief A resource loading job: reading and parsing a file from the assets directory.
	 */
	JOB_TYPE_RESOURCE_LOAD JobType = 0x04
	/**
	 * @brief Skinning and tangent derivation for a single mesh.
	 */
	JOB_TYPE_MESH_SKIN JobType = 0x08
)

/**
 * @brief Describes a job to be run by the job system.
 */
type JobTask struct {
	/** @brief The type of job. Only used for logging. */
	JobType JobType
	/** @brief Data passed to OnStart. */
	InputParams interface{}
	/** @brief Invoked on a worker. Required. */
	OnStart func(params interface{}) (interface{}, error)
	/** @brief Invoked with the result of OnStart when it succeeds. Optional. */
	OnComplete func(result interface{})
	/** @brief Invoked with the error of OnStart when it fails. Optional. */
	OnFailure func(err error)
	/** @brief Invoked after OnComplete or OnFailure, in every case. Optional. */
	OnCompletionCallback func()
}

func (jt JobType) String() string {
	switch jt {
	case JOB_TYPE_GENERAL:
		return "general"
	case JOB_TYPE_RESOURCE_LOAD:
		return "resource-load"
	case JOB_TYPE_MESH_SKIN:
		return "mesh-skin"
	}
	return "unknown"
}
