package testbed

import (
	"github.com/spaghettifunk/helios/engine/assets"
	"github.com/spaghettifunk/helios/engine/config"
	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/loaders/gltf"
	"github.com/spaghettifunk/helios/engine/platform"
	"github.com/spaghettifunk/helios/engine/renderer/vulkan"
	"github.com/spaghettifunk/helios/engine/scene"
)

/**
 * @brief A small host application that brings the engine up, loads one
 * scene and keeps it alive, reloading it when its assets change on disk.
 */
type Game struct {
	cfg      *config.Config
	platform *platform.Platform
	backend  *vulkan.VulkanBackend
	assets   *assets.AssetManager
	loader   *gltf.GLTFLoader

	sceneFile string
	scene     *scene.Scene
}

func New(configPath string) (*Game, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	core.SetLogLevel(cfg.LogLevel)

	return &Game{
		cfg:   cfg,
		scene: scene.New("empty"),
	}, nil
}

func (g *Game) Initialize() error {
	p, err := platform.New()
	if err != nil {
		return err
	}
	if err := p.Startup("Helios Testbed", 1280, 720); err != nil {
		return err
	}
	g.platform = p

	g.backend = vulkan.New()
	if err := g.backend.Initialize("Helios Testbed", p.GetRequiredExtensionNames()); err != nil {
		return err
	}

	am, err := assets.NewAssetManager(g.cfg.AssetsDir)
	if err != nil {
		return err
	}
	if err := am.Watch(); err != nil {
		core.LogWarn("asset watching unavailable: %s", err.Error())
	}
	g.assets = am

	g.loader = gltf.NewGLTFLoader(g.backend, g.cfg)
	return nil
}

func (g *Game) LoadScene(fileName string) error {
	g.sceneFile = fileName
	if err := g.loader.LoadScene(fileName, g.scene); err != nil {
		return err
	}

	core.LogInfo("scene %s loaded: %d nodes, %d meshes, %d materials, %d textures",
		g.scene.Name,
		len(g.scene.Nodes()),
		len(scene.Components[*scene.Mesh](g.scene)),
		len(scene.Components[*scene.Material](g.scene)),
		len(scene.Components[*scene.Texture](g.scene)))
	return nil
}

// Run pumps window events until the window closes, reloading the scene
// whenever one of its assets changes on disk.
func (g *Game) Run() error {
	for !g.platform.Window.ShouldClose() {
		g.platform.PumpMessages()

		select {
		case changed := <-g.assets.Changed:
			core.LogInfo("reloading scene after change to %s", changed)
			if err := g.LoadScene(g.sceneFile); err != nil {
				core.LogError("scene reload failed: %s", err.Error())
			}
		default:
		}
	}
	return nil
}

func (g *Game) Shutdown() error {
	if g.assets != nil {
		if err := g.assets.Shutdown(); err != nil {
			core.LogWarn("asset manager shutdown: %s", err.Error())
		}
	}
	if g.backend != nil {
		g.backend.Shutdown()
	}
	if g.platform != nil {
		if err := g.platform.Shutdown(); err != nil {
			return err
		}
	}
	return nil
}
