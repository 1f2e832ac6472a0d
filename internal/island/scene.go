package island

import (
	"fmt"
	"os"
	"path/filepath"

	"IslandBuilder/internal/shape"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// ShapeSpec describes one primitive in a scene file.
type ShapeSpec struct {
	Kind      string `yaml:"kind" json:"kind"`
	Operation string `yaml:"operation" json:"operation"`

	Position        mgl32.Vec3 `yaml:"position" json:"position"`
	RotationDegrees mgl32.Vec3 `yaml:"rotation_degrees" json:"rotation_degrees"`
	// A zero scale means unscaled
	Scale mgl32.Vec3 `yaml:"scale" json:"scale"`

	Radius     float32    `yaml:"radius" json:"radius"`
	Ring       float32    `yaml:"ring" json:"ring"`
	Height     float32    `yaml:"height" json:"height"`
	Dimensions mgl32.Vec3 `yaml:"dimensions" json:"dimensions"`
	Edge       float32    `yaml:"edge" json:"edge"`
}

// Scene is a settings block plus the shapes to bake.
type Scene struct {
	Settings Settings    `yaml:"settings" json:"settings"`
	Shapes   []ShapeSpec `yaml:"shapes" json:"shapes"`
}

// Transform composes translation, XYZ Euler rotation and scale.
func (s ShapeSpec) Transform() mgl32.Mat4 {
	scale := s.Scale
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	rotation := mgl32.AnglesToQuat(
		mgl32.DegToRad(s.RotationDegrees[0]),
		mgl32.DegToRad(s.RotationDegrees[1]),
		mgl32.DegToRad(s.RotationDegrees[2]),
		mgl32.XYZ,
	).Mat4()

	return mgl32.Translate3D(s.Position[0], s.Position[1], s.Position[2]).
		Mul4(rotation).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// Shape builds the primitive.
func (s ShapeSpec) Shape() (shape.Shape, error) {
	kind, err := shape.ParseKind(s.Kind)
	if err != nil {
		return shape.Shape{}, err
	}
	op, err := shape.ParseOperation(s.Operation)
	if err != nil {
		return shape.Shape{}, err
	}

	transform := s.Transform()
	if transform.Det() == 0 {
		return shape.Shape{}, fmt.Errorf("%s: transform is not invertible", s.Kind)
	}

	switch kind {
	case shape.RoundedBox:
		return shape.NewRoundedBox(transform, s.Dimensions, s.Edge, op), nil
	case shape.RoundedCylinder:
		return shape.NewRoundedCylinder(transform, s.Height, s.Radius, s.Edge, op), nil
	case shape.Torus:
		return shape.NewTorus(transform, s.Ring, s.Radius, op), nil
	}
	return shape.NewSphere(transform, s.Radius, op), nil
}

// ParseScene decodes a YAML scene. Settings missing from the document keep their defaults.
func ParseScene(raw []byte) (Settings, shape.List, error) {
	scene := Scene{Settings: DefaultSettings()}
	if err := yaml.Unmarshal(raw, &scene); err != nil {
		return Settings{}, nil, err
	}
	if err := scene.Settings.Validate(); err != nil {
		return Settings{}, nil, fmt.Errorf("settings: %w", err)
	}

	shapes := make(shape.List, 0, len(scene.Shapes))
	for i, spec := range scene.Shapes {
		s, err := spec.Shape()
		if err != nil {
			return Settings{}, nil, fmt.Errorf("shape %d: %w", i, err)
		}
		shapes = append(shapes, s)
	}
	return scene.Settings, shapes, nil
}

// LoadScene reads a YAML scene file.
func LoadScene(path string) (Settings, shape.List, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, nil, err
	}
	settings, shapes, err := ParseScene(raw)
	if err != nil {
		return Settings{}, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return settings, shapes, nil
}
