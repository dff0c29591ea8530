// Package build is the single entry point that turns a manifest into
// integration files: freeze, resolve, plan, generate, write.
package build

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goplus/llman/internal/emit"
	"github.com/goplus/llman/internal/generate"
	"github.com/goplus/llman/internal/layout"
	"github.com/goplus/llman/internal/registry"
	"github.com/goplus/llman/internal/resolve"
	"github.com/goplus/llman/manifest"
	"github.com/goplus/llman/settings"
)

// DefaultBuildType is used when neither the request nor its settings name
// a build type.
const DefaultBuildType = "Release"

// Request describes one install.
type Request struct {
	ProjectRoot string
	BuildType   string // falls back to the build_type setting, then DefaultBuildType
	Settings    settings.Settings
	Manifest    *manifest.Manifest
	// Kinds overrides the generators requested by the manifest.
	Kinds []string
}

// Result is what an install produced. Report is nil for Prepare.
type Result struct {
	Packages  []resolve.Package
	Settings  settings.Settings // restricted to the manifest's axes
	Plan      layout.Plan
	Kinds     []string
	Artifacts []generate.Artifact
	Report    *emit.Report
}

// Options configures a Builder.
type Options struct {
	Registry registry.Registry // optional
	Pipeline *generate.Pipeline
	Logger   *log.Logger
}

// Builder runs installs.
type Builder struct {
	registry registry.Registry
	pipeline *generate.Pipeline
	logger   *log.Logger
}

// NewBuilder returns a Builder. A nil Pipeline means generate.NewPipeline
// and a nil Logger discards output.
func NewBuilder(opts Options) *Builder {
	b := &Builder{registry: opts.Registry, pipeline: opts.Pipeline, logger: opts.Logger}
	if b.pipeline == nil {
		b.pipeline = generate.NewPipeline()
	}
	if b.logger == nil {
		b.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return b
}

// Install resolves req, plans its layout, generates its artifacts and
// writes them. The first error stops the install; nothing is written
// unless resolution, planning and generation all succeed.
func (b *Builder) Install(ctx context.Context, req Request) (*Result, error) {
	res, err := b.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	report, err := emit.NewWriter(b.logger).Write(ctx, res.Plan, res.Artifacts)
	if err != nil {
		return nil, err
	}
	b.logger.Info("wrote artifacts",
		"dir", res.Plan.Generators,
		"written", len(report.Written),
		"unchanged", len(report.Unchanged),
		"took", time.Since(start).Round(time.Millisecond))
	res.Report = report
	return res, nil
}

// Prepare does everything Install does except writing. It freezes
// req.Manifest.
func (b *Builder) Prepare(ctx context.Context, req Request) (*Result, error) {
	m := req.Manifest
	if m == nil {
		return nil, errors.New("build: no manifest")
	}
	m.Freeze()

	buildType := req.BuildType
	if buildType == "" {
		buildType = req.Settings.Value(settings.BuildType)
	}
	if buildType == "" {
		buildType = DefaultBuildType
	}
	s := req.Settings.With(settings.BuildType, buildType)

	start := time.Now()
	pkgs, err := resolve.Resolve(ctx, m, s, &resolve.Options{Registry: b.registry, Logger: b.logger})
	if err != nil {
		return nil, err
	}
	b.logger.Info("resolved", "packages", len(pkgs), "took", time.Since(start).Round(time.Millisecond))

	s = s.Restrict(m.SettingsAxes())
	plan, err := layout.New(req.ProjectRoot, buildType, s)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("planned", "generators", plan.Generators, "output", plan.Output)

	kinds := req.Kinds
	if len(kinds) == 0 {
		kinds = m.Generators()
	}
	if len(kinds) == 0 {
		kinds = generate.DefaultKinds
	}
	arts, err := b.pipeline.Generate(&generate.Input{Packages: pkgs, Plan: plan, Settings: s}, kinds)
	if err != nil {
		return nil, err
	}
	return &Result{Packages: pkgs, Settings: s, Plan: plan, Kinds: kinds, Artifacts: arts}, nil
}
