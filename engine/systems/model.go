package systems

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/KevinMFinch/Cos426-final/engine/assets"
	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/md5"
	"github.com/KevinMFinch/Cos426-final/engine/renderer"
	"github.com/KevinMFinch/Cos426-final/engine/renderer/metadata"
)

var ErrModelNotLoaded = errors.New("model not loaded")

// Load stages recorded in ModelSystem.Metrics.
const (
	STAGE_PARSE    string = "parse"
	STAGE_TEXTURES string = "textures"
	STAGE_SKIN     string = "skin"
	STAGE_UPLOAD   string = "upload"
)

type ModelSystemConfig struct {
	/** @brief Flip V (v = 1 - v) while parsing. */
	FlipV bool
	/** @brief How degenerate triangles are handled during tangent derivation. */
	Policy md5.DegeneratePolicy
	/** @brief Prepended to material names before texture lookup. */
	TexturePrefix string
}

/**
 * @brief A model that went through the whole pipeline. MeshErrors and
 * Geometries have one slot per mesh; a mesh that failed to skin has an
 * error and a nil geometry.
 */
type LoadedModel struct {
	Model      *md5.Model
	MeshErrors []error
	Geometries []*metadata.Geometry
}

// Uploaded returns the number of meshes that reached the renderer.
func (lm *LoadedModel) Uploaded() int {
	n := 0
	for _, g := range lm.Geometries {
		if g != nil {
			n++
		}
	}
	return n
}

type ModelSystem struct {
	Config  *ModelSystemConfig
	Metrics *core.StageMetrics

	mutex  sync.RWMutex
	models map[string]*LoadedModel
	// sub systems
	assetManager *assets.AssetManager
	jobSystem    *JobSystem
	textures     TextureFinder
	renderer     *renderer.Renderer
}

func NewModelSystem(config *ModelSystemConfig, am *assets.AssetManager, js *JobSystem, textures TextureFinder, r *renderer.Renderer) (*ModelSystem, error) {
	if am == nil || js == nil || textures == nil || r == nil {
		err := fmt.Errorf("func NewModelSystem - asset manager, job system, texture finder and renderer are required")
		core.LogError(err.Error())
		return nil, err
	}
	return &ModelSystem{
		Config:       config,
		Metrics:      core.NewStageMetrics(),
		models:       make(map[string]*LoadedModel),
		assetManager: am,
		jobSystem:    js,
		textures:     textures,
		renderer:     r,
	}, nil
}

// Initialize subscribes the model system to asset changes for hot reload.
func (ms *ModelSystem) Initialize() error {
	ms.assetManager.OnChange(ms.onAssetEvent)
	return nil
}

func (ms *ModelSystem) Shutdown() error {
	for _, name := range ms.Names() {
		if err := ms.Unload(name); err != nil {
			return err
		}
	}
	return nil
}

/**
 * @brief Parses, textures, skins and uploads the model stored under name
 * (relative to the assets directory). Loading a name again replaces the
 * previous model and its geometry.
 *
 * @return The loaded model. A parse failure is returned as an error;
 * per-mesh skinning failures are reported in LoadedModel.MeshErrors.
 */
func (ms *ModelSystem) Load(name string) (*LoadedModel, error) {
	name = assets.NormalizeName(name)
	clock := core.NewClock()

	clock.Start()
	opts := []md5.ParseOption{md5.WithModelName(name)}
	if ms.Config.FlipV {
		opts = append(opts, md5.WithFlipV())
	}
	res, err := ms.assetManager.LoadAsset(name, metadata.ResourceTypeMD5Mesh, opts)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	model := res.Data.(*md5.Model)
	ms.record(STAGE_PARSE, clock)
	for _, w := range model.Warnings {
		core.LogWarn("%s: %s", name, w)
	}

	clock.Start()
	ms.resolveMaterials(model)
	ms.record(STAGE_TEXTURES, clock)

	lm := &LoadedModel{Model: model}
	if err := ms.skinAndUpload(lm, nil); err != nil {
		return nil, err
	}

	ms.mutex.Lock()
	previous := ms.models[name]
	ms.models[name] = lm
	ms.mutex.Unlock()
	if previous != nil {
		ms.destroyStale(previous, len(model.Meshes))
	}

	core.LogInfo("loaded model %s: %d/%d meshes uploaded", name, lm.Uploaded(), len(model.Meshes))
	return lm, nil
}

/**
 * @brief Loads the model on the job system and reports the result to cb
 * from a worker goroutine.
 */
func (ms *ModelSystem) LoadAsync(name string, cb func(*LoadedModel, error)) error {
	return ms.jobSystem.Submit(metadata.JobTask{
		JobType:     metadata.JOB_TYPE_RESOURCE_LOAD,
		InputParams: name,
		OnStart: func(params interface{}) (interface{}, error) {
			return ms.Load(params.(string))
		},
		OnComplete: func(result interface{}) {
			cb(result.(*LoadedModel), nil)
		},
		OnFailure: func(err error) {
			cb(nil, err)
		},
	})
}

/**
 * @brief Re-skins a loaded model against skeleton and re-uploads its
 * meshes. A nil skeleton restores the bind pose.
 */
func (ms *ModelSystem) Skin(name string, skeleton md5.Skeleton) (*LoadedModel, error) {
	lm := ms.Get(name)
	if lm == nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotLoaded, name)
	}
	if err := ms.skinAndUpload(lm, skeleton); err != nil {
		return nil, err
	}
	return lm, nil
}

// Get returns the loaded model, or nil.
func (ms *ModelSystem) Get(name string) *LoadedModel {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()
	return ms.models[assets.NormalizeName(name)]
}

// Unload destroys the geometry of a loaded model and forgets it.
func (ms *ModelSystem) Unload(name string) error {
	name = assets.NormalizeName(name)
	ms.mutex.Lock()
	lm, ok := ms.models[name]
	delete(ms.models, name)
	ms.mutex.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrModelNotLoaded, name)
	}
	ms.destroyStale(lm, 0)
	return nil
}

// Names returns the loaded model names in sorted order.
func (ms *ModelSystem) Names() []string {
	ms.mutex.RLock()
	names := make([]string, 0, len(ms.models))
	for name := range ms.models {
		names = append(names, name)
	}
	ms.mutex.RUnlock()
	sort.Strings(names)
	return names
}

// skinAndUpload skins every mesh of lm, in parallel when there is more than
// one mesh and more than one worker, then uploads the ones that are drawable. lm.MeshErrors and lm.Geometries are replaced.
func (ms *ModelSystem) skinAndUpload(lm *LoadedModel, skeleton md5.Skeleton) error {
	model := lm.Model
	if skeleton == nil {
		skeleton = model.Skeleton
	}
	opts := md5.TangentOptions{Policy: ms.Config.Policy}
	clock := core.NewClock()

	clock.Start()
	var meshErrors []error
	if len(model.Meshes) < 2 || ms.jobSystem.Workers() < 2 {
		meshErrors = model.Skin(skeleton, opts)
	} else {
		tasks := make([]func() error, len(model.Meshes))
		for i, mesh := range model.Meshes {
			i, mesh := i, mesh
			tasks[i] = func() error {
				if _, err := mesh.Skin(skeleton, opts); err != nil {
					return fmt.Errorf("%s mesh %d: %w", model.Name, i, err)
				}
				return nil
			}
		}
		meshErrors = ms.jobSystem.RunAll(metadata.JOB_TYPE_MESH_SKIN, tasks)
	}
	ms.record(STAGE_SKIN, clock)

	clock.Start()
	geometries := make([]*metadata.Geometry, len(model.Meshes))
	for i, mesh := range model.Meshes {
		geometryName := model.GeometryName(i)
		if meshErrors[i] != nil {
			core.LogError(meshErrors[i].Error())
			if err := ms.renderer.DestroyGeometry(geometryName); err != nil {
				core.LogWarn("destroying geometry %s: %s", geometryName, err)
			}
			continue
		}
		config := mesh.GeometryConfig(geometryName)
		if config == nil {
			meshErrors[i] = fmt.Errorf("%s mesh %d: %w", model.Name, i, md5.ErrIncompleteMesh)
			core.LogError(meshErrors[i].Error())
			continue
		}
		g, err := ms.renderer.UploadGeometry(config)
		if err != nil {
			return err
		}
		geometries[i] = g
	}
	ms.record(STAGE_UPLOAD, clock)

	lm.MeshErrors = meshErrors
	lm.Geometries = geometries
	return nil
}

func (ms *ModelSystem) resolveMaterials(model *md5.Model) {
	for _, mesh := range model.Meshes {
		ResolveMaterial(ms.textures, &mesh.Material, ms.Config.TexturePrefix)
	}
}

// destroyStale destroys the geometries of lm from mesh index keep onwards.
func (ms *ModelSystem) destroyStale(lm *LoadedModel, keep int) {
	for i := keep; i < len(lm.Model.Meshes); i++ {
		name := lm.Model.GeometryName(i)
		if err := ms.renderer.DestroyGeometry(name); err != nil {
			core.LogWarn("destroying geometry %s: %s", name, err)
		}
	}
}

func (ms *ModelSystem) record(stage string, clock *core.Clock) {
	clock.Stop()
	ms.Metrics.Record(stage, clock.Elapsed())
	core.LogDebug("stage %s took %s (avg %s)", stage, clock.Elapsed(), ms.Metrics.Average(stage))
}

func (ms *ModelSystem) onAssetEvent(e assets.AssetEvent) {
	switch e.Type {
	case metadata.ResourceTypeMD5Mesh:
		if ms.Get(e.Path) == nil {
			return
		}
		if e.Op == assets.AssetRemoved {
			core.LogInfo("model %s removed", e.Path)
			if err := ms.Unload(e.Path); err != nil {
				core.LogWarn("unloading %s: %s", e.Path, err)
			}
			return
		}
		core.LogInfo("model %s changed, reloading", e.Path)
		if _, err := ms.Load(e.Path); err != nil {
			core.LogError("reloading %s: %s", e.Path, err)
		}

	case metadata.ResourceTypeImage:
		invalidated := false
		if inv, ok := ms.textures.(interface{ Invalidate(string) bool }); ok {
			invalidated = inv.Invalidate(e.Path)
		}
		if e.Op == assets.AssetRemoved && !invalidated {
			return
		}
		ms.mutex.RLock()
		loaded := make([]*LoadedModel, 0, len(ms.models))
		for _, lm := range ms.models {
			loaded = append(loaded, lm)
		}
		ms.mutex.RUnlock()
		for _, lm := range loaded {
			ms.resolveMaterials(lm.Model)
		}
	}
}
