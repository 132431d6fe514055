// Package pkg provides the core libraries for dungen procedural layout generation.
//
// # Overview
//
// Dungen assembles dungeon layouts from themed module catalogs: each run picks
// weighted modules, attaches them door to door, and backtracks out of dead
// ends until the target count is met. The pkg directory is organized into
// five main areas:
//
//  1. [dungeon] - Generation engine (sampling, constraints, backtracking)
//  2. [theme] - Theme definitions, TOML loading, and validation
//  3. [geom] - Reference 2D world (placement, alignment, collision)
//  4. [layout] - Persisted layout format and DOT/SVG/PNG rendering
//  5. [store] - Layout storage backends (memory, file, redis, mongo, sqlite)
//
// # Architecture
//
// The typical data flow through dungen:
//
//	Theme (TOML)
//	     ↓
//	theme.LoadFile → validated catalog
//	     ↓
//	dungeon.Generator + geom.World → placed modules and links
//	     ↓
//	layout.New → serializable layout
//	     ↓
//	layout.ToDOT / RenderSVG / RenderPNG, store.Store
//
// The [pipeline] package orchestrates this flow end to end and is what the
// CLI and the HTTP API call into. Cross-cutting concerns live in [errors]
// (coded errors with user messages), [sampler] (alias-method weighted
// sampling), and [observability] (optional instrumentation hooks).
package pkg
