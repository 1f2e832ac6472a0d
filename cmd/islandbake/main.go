// islandbake bakes an island scene file into a render mesh bundle and a JSON summary.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"IslandBuilder/internal/island"
	"IslandBuilder/internal/logger"
	"IslandBuilder/internal/meshio"

	"go.uber.org/zap"
)

func main() {
	scenePath := flag.String("scene", "island.yaml", "scene file with settings and shapes")
	settingsPath := flag.String("settings", "", "optional YAML or JSON settings overriding the scene's")
	outDir := flag.String("out", ".", "output directory")
	reference := flag.Int("reference", 0, "also write a marching cubes reference mesh with this many cells (0 to skip)")
	obj := flag.Bool("obj", false, "also write the baked mesh as island.obj")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debug {
		logger.InitDebug()
	} else {
		logger.Init()
	}
	defer logger.Sync()

	if err := run(*scenePath, *settingsPath, *outDir, *reference, *obj); err != nil {
		logger.Log.Error("bake failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(scenePath, settingsPath, outDir string, referenceCells int, writeOBJ bool) error {
	settings, shapes, err := island.LoadScene(scenePath)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	if settingsPath != "" {
		if settings, err = island.LoadSettings(settingsPath); err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
	}

	data := island.New(logger.Log)
	data.SetSettings(settings)
	data.SetShapes(shapes)

	bundle, summary, err := data.Export()
	if err != nil {
		return fmt.Errorf("bake %s: %w", filepath.Base(scenePath), err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	if err := writeOutput(outDir, "island.mesh", bundle); err != nil {
		return err
	}
	if err := writeOutput(outDir, "island.json", summary); err != nil {
		return err
	}

	if writeOBJ {
		var buf bytes.Buffer
		if err := meshio.WriteOBJ(&buf, data.MeshBaked()); err != nil {
			return fmt.Errorf("obj: %w", err)
		}
		if err := writeOutput(outDir, "island.obj", buf.Bytes()); err != nil {
			return err
		}
	}

	if referenceCells > 0 {
		ref, err := meshio.EncodeMeshBinary(meshio.FromTriangleMesh(data.ReferenceMesh(referenceCells)))
		if err != nil {
			return fmt.Errorf("reference mesh: %w", err)
		}
		if err := writeOutput(outDir, "reference.mesh", ref); err != nil {
			return err
		}
	}

	logger.Log.Info("island baked",
		zap.String("scene", scenePath),
		zap.String("out", outDir),
		zap.Float32("volume", data.Volume()),
		zap.Int("hulls", len(data.Hulls())),
	)
	return nil
}

func writeOutput(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	logger.Log.Debug("wrote output", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}
