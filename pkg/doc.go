// Package pkg provides the libraries behind Tessellate, a photo mosaic
// builder.
//
// # Overview
//
// Tessellate cuts a target image into a grid of equal cells and places one
// tile image in every cell. Choosing the tiles is an assignment problem:
// score every cell against every tile, then pick the placement with the
// lowest total score while no tile is used more often than allowed.
//
// # Architecture
//
// The data flow through Tessellate:
//
//	target image + tile directory
//	         ↓
//	    [imgio] + [core/grid] (decode, partition, fit tiles)
//	         ↓
//	    [core/metric] → [core/matrix] (cell × tile cost matrix)
//	         ↓
//	    [core/solver] (Hungarian, greedy or auction assignment)
//	         ↓
//	    [core/plan] (placements, JSON, rendering)
//	         ↓
//	    PNG/JPEG/GIF/BMP/TIFF output
//
// # Quick Start
//
//	m, _ := mosaic.New(target, tiles, grid.Size{W: 32, H: 24}, 2)
//	fn, _ := metric.ByName(metric.Default)
//	costs, _ := m.DistanceMatrix(ctx, fn, 0)
//	s, _ := solver.New(solver.KindHungarian)
//	img, _ := m.Build(ctx, costs, s)
//
// # Main Packages
//
// ## Engine
//
// [core/matrix] - Row-major integer cost matrix with tiling, so a column can
// stand for the same tile several times.
//
// [core/solver] - The solver family behind one interface. Hungarian is
// exact; greedy and auction trade optimality for speed.
//
// [core/metric] - Cell/tile distances (L1, L2, luminance, average colour,
// CIE-Lab) and parallel matrix fill.
//
// [core/grid] - Partitions a target into cells, cropping the remainder.
//
// [core/plan] - A solved placement that can be stored and rendered later.
//
// [core/colormatch] - Histogram equalisation and palette transfer between
// target and tiles.
//
// [mosaic] - Ties grid, tiles, matrix, solver and plan together.
//
// ## Infrastructure
//
// [pipeline] - Load → matrix → solve → render with stage caching, shared by
// the CLI and the HTTP server.
//
// [cache] - File, Redis and null caches with content-hash keys.
//
// [store] - Plan records in memory, SQLite or MongoDB.
//
// [server] - HTTP planning API.
//
// [render/usage] - Graphviz diagram of tile reuse.
//
// [observability] - Hooks for stage timings, cache traffic and requests.
//
// [errors] - Coded errors and input validation for the outer surfaces.
package pkg
