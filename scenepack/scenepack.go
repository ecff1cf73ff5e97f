// Package scenepack builds the named demonstration scenes.
package scenepack

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"lumen/bvh"
	"lumen/camera"
	"lumen/geometry"
	"lumen/material"
	"lumen/scene"
	"lumen/texture"
	"lumen/vmath/vec3"
)

type loadConfig struct {
	flat bool
}

type Option func(*loadConfig)

// Flat makes Load return an unaccelerated geometry.List world instead of a
// BVH.
func Flat() Option {
	return func(c *loadConfig) {
		c.flat = true
	}
}

type builder func(rng *rand.Rand) (*camera.Camera, []geometry.Intersectable)

var builders = map[string]builder{
	"random":      randomSpheres,
	"two-spheres": twoSpheres,
	"materials":   materials,
	"checker":     checker,
	"noise":       noise,
	"globe":       globe,
}

// Names lists the available scenes, sorted.
func Names() []string {
	names := []string{}
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load builds the named scene.  rng drives any random placement; scenes that
// do not use it ignore it.
func Load(name string, rng *rand.Rand, opts ...Option) (*scene.Scene, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q, want one of %v", name, Names())
	}

	cfg := &loadConfig{}
	for _, o := range opts {
		o(cfg)
	}

	cam, items := b(rng)

	var world geometry.Intersectable
	if cfg.flat {
		world = &geometry.List{Items: items}
	} else {
		world = bvh.Build(items)
	}

	return &scene.Scene{
		Name:   name,
		World:  world,
		Camera: cam,
	}, nil
}

// bookCamera is the elevated view shared by the showcase scenes.
func bookCamera(aperture float64) *camera.Camera {
	return camera.New(camera.Params{
		VFov:        20,
		AspectRatio: 3.0 / 2.0,
		LookFrom:    vec3.T{13, 2, 3},
		LookAt:      vec3.T{0, 0, 0},
		Up:          vec3.T{0, 1, 0},
		FocusDist:   10,
		Aperture:    aperture,
	})
}

// frontCamera looks down -z from the origin.
func frontCamera() *camera.Camera {
	return camera.New(camera.Params{
		VFov:        90,
		AspectRatio: 16.0 / 9.0,
		LookFrom:    vec3.T{0, 0, 0},
		LookAt:      vec3.T{0, 0, -1},
		Up:          vec3.T{0, 1, 0},
		FocusDist:   1,
	})
}

func groundChecker() texture.Map {
	return texture.CheckerVolume(
		math.Pi/10,
		texture.Solid(vec3.T{0.2, 0.3, 0.1}),
		texture.Solid(vec3.T{0.9, 0.9, 0.9}),
	)
}

// randomSpheres is a checkered ground covered in a jittered grid of small
// spheres, with three large showcase spheres in the middle.
func randomSpheres(rng *rand.Rand) (*camera.Camera, []geometry.Intersectable) {
	items := []geometry.Intersectable{
		geometry.NewSphere(vec3.T{0, -1000, -1}, 1000, &material.Lambertian{Albedo: groundChecker()}),
	}

	// One shared glass material for every small dielectric sphere.
	glass := material.NewDielectric(1.5)

	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := rng.Float64()
			center := vec3.T{float64(a) + 0.9*rng.Float64(), 0.2, float64(b) + 0.9*rng.Float64()}

			if vec3.SubVV(center, vec3.T{4, 0.2, 0}).Norm() <= 0.9 {
				continue
			}

			var m material.Material
			switch {
			case chooseMat < 0.7:
				m = material.NewLambertian(vec3.RandomRange(0, 1, rng))
			case chooseMat < 0.85:
				m = material.NewMetal(vec3.RandomRange(0, 1, rng), 0.5*rng.Float64())
			default:
				m = glass
			}
			items = append(items, geometry.NewSphere(center, 0.2, m))
		}
	}

	items = append(items,
		geometry.NewSphere(vec3.T{0, 1, 0}, 1, material.NewDielectric(1.5)),
		geometry.NewSphere(vec3.T{-4, 1, 0}, 1, material.NewLambertian(vec3.T{0.4, 0.2, 0.1})),
		geometry.NewSphere(vec3.T{4, 1, 0}, 1, material.NewMetal(vec3.T{0.7, 0.6, 0.5}, 0)),
	)

	return bookCamera(0.1), items
}

// twoSpheres is a small diffuse sphere resting on a huge diffuse ground
// sphere.
func twoSpheres(rng *rand.Rand) (*camera.Camera, []geometry.Intersectable) {
	return frontCamera(), []geometry.Intersectable{
		geometry.NewSphere(vec3.T{0, 0, -1}, 0.5, material.NewLambertian(vec3.T{0.1, 0.2, 0.5})),
		geometry.NewSphere(vec3.T{0, -100.5, -1}, 100, material.NewLambertian(vec3.T{0.8, 0.8, 0.0})),
	}
}

// materials puts glass, diffuse and metal spheres side by side.
func materials(rng *rand.Rand) (*camera.Camera, []geometry.Intersectable) {
	return frontCamera(), []geometry.Intersectable{
		geometry.NewSphere(vec3.T{0, -100.5, -1}, 100, material.NewLambertian(vec3.T{0.8, 0.8, 0.0})),
		geometry.NewSphere(vec3.T{0, 0, -1}, 0.5, material.NewLambertian(vec3.T{0.1, 0.2, 0.5})),
		geometry.NewSphere(vec3.T{-1, 0, -1}, 0.5, material.NewDielectric(1.5)),
		geometry.NewSphere(vec3.T{1, 0, -1}, 0.5, material.NewMetal(vec3.T{0.8, 0.6, 0.2}, 0.3)),
	}
}

// checker is two large spheres sharing one volume checker texture.
func checker(rng *rand.Rand) (*camera.Camera, []geometry.Intersectable) {
	m := &material.Lambertian{Albedo: groundChecker()}
	return bookCamera(0), []geometry.Intersectable{
		geometry.NewSphere(vec3.T{0, -10, 0}, 10, m),
		geometry.NewSphere(vec3.T{0, 10, 0}, 10, m),
	}
}

// noise is a Perlin-noise ground under a marbled sphere.
func noise(rng *rand.Rand) (*camera.Camera, []geometry.Intersectable) {
	return bookCamera(0), []geometry.Intersectable{
		geometry.NewSphere(vec3.T{0, -1000, 0}, 1000, &material.Lambertian{Albedo: texture.Noise(4)}),
		geometry.NewSphere(vec3.T{0, 2, 0}, 2, &material.Lambertian{Albedo: texture.Marble(4)}),
	}
}

// globe shows the sphere's surface parameterization with a UV checker.
func globe(rng *rand.Rand) (*camera.Camera, []geometry.Intersectable) {
	uvChecker := texture.CheckerSurface(
		0.05,
		texture.Solid(vec3.T{0.8, 0.1, 0.1}),
		texture.Solid(vec3.T{0.9, 0.9, 0.9}),
	)
	return bookCamera(0), []geometry.Intersectable{
		geometry.NewSphere(vec3.T{0, -1000, 0}, 1000, &material.Lambertian{Albedo: groundChecker()}),
		geometry.NewSphere(vec3.T{0, 2, 0}, 2, &material.Lambertian{Albedo: uvChecker}),
	}
}
