// Command evdview opens a window and draws random helix tracks through the
// Vulkan backend. R reloads a fresh event, Escape quits.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"runtime"

	"github.com/andewx/evdvk"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

const (
	WIDTH  = 1024
	HEIGHT = 768
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "TOML config file")
	points := flag.Int("points", 20000, "points per event")
	multi := flag.Bool("multi", false, "one vertex buffer per track")
	verbosity := flag.Int("v", 0, "debug verbosity, validation layers at 2 and above")
	flag.Parse()

	logger := evdvk.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := loadConfig(*configPath, *multi, *verbosity)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(cfg, *points, logger); err != nil {
		fmt.Fprintf(os.Stderr, "evdview: %+v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string, multi bool, verbosity int) (evdvk.Config, error) {
	if path != "" {
		return evdvk.LoadConfig(path)
	}
	usage := evdvk.NewUsage("evdview", 5)
	usage.String_props[evdvk.UsageAppName] = "evdview"
	usage.Bool_props[evdvk.UsageMultiBuffer] = multi
	usage.Int_props[evdvk.UsageVerbosity] = verbosity
	return evdvk.ConfigFromUsage(usage)
}

func run(cfg evdvk.Config, points int, logger evdvk.Logger) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		return err
	}

	window, err := glfw.CreateWindow(WIDTH, HEIGHT, cfg.AppName, nil, nil)
	if err != nil {
		return err
	}
	defer window.Destroy()

	backend := evdvk.NewCoreBackend(cfg, logger)
	if err := backend.Init(evdvk.NewCoreDisplay(window)); err != nil {
		return err
	}
	defer backend.Shutdown()

	rng := rand.New(rand.NewSource(1))
	if err := backend.LoadVertexData(helixEvent(rng, points)); err != nil {
		return err
	}

	var loopErr error
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		if err := backend.Resize(width, height); err != nil {
			loopErr = err
		}
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyR:
			if err := backend.LoadVertexData(helixEvent(rng, points)); err != nil {
				loopErr = err
			}
		}
	})

	start := glfw.GetTime()
	for !window.ShouldClose() && loopErr == nil {
		glfw.PollEvents()
		if err := frame(backend, window, float32(glfw.GetTime()-start)); !skippable(err) {
			return err
		}
		if s := backend.Stats(); s.Frames%120 == 0 {
			window.SetTitle(fmt.Sprintf("%s: %d points, %d buffers, %d rebuilds",
				cfg.AppName, s.Vertices, s.Buffers, s.Rebuilds))
		}
	}
	return loopErr
}

// skippable reports whether the loop can carry on after a frame returned
// err. A surface still stale after its rebuild, typically mid-drag, only
// costs the frame; the next one rebuilds again.
func skippable(err error) bool {
	return err == nil || errors.Is(err, evdvk.ErrTransientSurface)
}

func frame(backend evdvk.Backend, window *glfw.Window, t float32) error {
	if err := backend.PrepareDraw(); err != nil {
		return err
	}
	width, height := window.GetFramebufferSize()
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	projection := evdvk.VulkanPerspective(mgl32.DegToRad(45), aspect, 0.1, 100)
	eye := mgl32.Vec3{
		8 * float32(math.Cos(float64(t*0.3))),
		3,
		8 * float32(math.Sin(float64(t*0.3))),
	}
	view := mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	if err := backend.SetMatrices(projection, view); err != nil {
		return err
	}
	return backend.FinishDraw()
}

// helixEvent fakes one event: tracks leaving the origin on helices of
// random curvature, one partition per track.
func helixEvent(rng *rand.Rand, points int) [][]float32 {
	const perTrack = 200
	tracks := points / perTrack
	if tracks < 1 {
		tracks = 1
	}
	event := make([][]float32, tracks)
	for i := range event {
		radius := 0.5 + 3*rng.Float64()
		pitch := 0.02 + 0.05*rng.Float64()
		phase := 2 * math.Pi * rng.Float64()
		charge := 1.0
		if rng.Intn(2) == 0 {
			charge = -1
		}
		track := make([]float32, 0, 3*perTrack)
		for j := 0; j < perTrack; j++ {
			a := charge * float64(j) * 0.03
			x := radius * (math.Cos(phase+a) - math.Cos(phase))
			y := radius * (math.Sin(phase+a) - math.Sin(phase))
			z := pitch * float64(j)
			track = append(track, float32(x), float32(z), float32(y))
		}
		event[i] = track
	}
	return event
}
