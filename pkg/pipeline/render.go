package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/tessellate/pkg/cache"
	"github.com/matzehuels/tessellate/pkg/core/plan"
	"github.com/matzehuels/tessellate/pkg/imgio"
	"github.com/matzehuels/tessellate/pkg/observability"
)

// RenderWithCacheInfo draws p with in's tiles and encodes it once per
// format. The result is served from cache only when every format is cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, in *Inputs, p plan.Plan, opts Options) (map[string][]byte, bool, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	formats := opts.Formats
	if len(formats) == 0 {
		formats = []string{FormatPNG}
	}

	planData, err := plan.Marshal(p)
	if err != nil {
		return nil, false, err
	}
	base := cache.Hash(append([]byte(in.MatrixKey), planData...))

	artifacts := make(map[string][]byte, len(formats))
	if !opts.Refresh {
		for _, f := range formats {
			data, ok := r.get(ctx, "artifact", r.Keyer.ArtifactKey(base, cache.ArtifactKeyOpts{Format: f}))
			if !ok {
				break
			}
			artifacts[f] = data
		}
		if len(artifacts) == len(formats) {
			return artifacts, true, nil
		}
	}

	if err := CheckPlan(p, in); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, formats)
	start := time.Now()
	artifacts, err = render(in, p, formats)
	hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for f, data := range artifacts {
		r.set(ctx, "artifact", r.Keyer.ArtifactKey(base, cache.ArtifactKeyOpts{Format: f}), data, cache.TTLArtifact)
	}
	return artifacts, false, nil
}

func render(in *Inputs, p plan.Plan, formats []string) (map[string][]byte, error) {
	img, err := in.Mosaic.Render(p)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(formats))
	for _, f := range formats {
		var buf bytes.Buffer
		if err := imgio.Encode(&buf, img, f); err != nil {
			return nil, err
		}
		out[f] = buf.Bytes()
	}
	return out, nil
}

// RenderPlan renders a previously computed plan. Target and tiles are
// loaded with opts, on the plan's grid.
func (r *Runner) RenderPlan(ctx context.Context, p plan.Plan, opts Options) (map[string][]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	opts.SetDefaults()
	opts.GridWidth, opts.GridHeight = p.GridWidth, p.GridHeight
	// Reuse is already fixed by the plan; only the tile count must match.
	opts.MaxOccurrences = max(opts.MaxOccurrences, len(p.Cells))

	in, err := r.load(ctx, opts, opts.GridSize())
	if err != nil {
		return nil, err
	}
	artifacts, _, err := r.RenderWithCacheInfo(ctx, in, p, opts)
	return artifacts, err
}
