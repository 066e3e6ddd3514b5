// Package pkg provides the core libraries for gestalt layout synthesis.
//
// # Overview
//
// Gestalt turns a content package (ordered content blocks, design intent
// and hard constraints) into a validated LayoutSpecification: pages or
// slides holding positioned regions of blocks. The pkg directory is
// organized into three areas:
//
//  1. Engine: [content], [rules], [compose], [validate], [layout], [geom]
//  2. Orchestration: [pipeline], [cache], [advisory]
//  3. Infrastructure: [config], [server], [observability], [telemetry],
//     [render], [errors], [buildinfo]
//
// # Architecture
//
// One composition flows through:
//
//	content.Package (JSON/YAML)
//	         ↓
//	    [content] normalize and measure blocks
//	         ↓
//	    fingerprint → [cache] single-flight lookup
//	         ↓ (miss)
//	    [rules] principle plan → [compose] pages and regions
//	         ↓
//	    [validate] hard checks, one orphan repair
//	         ↓
//	    cache commit → [advisory] optional overlay
//	         ↓
//	    layout.Specification
//
// # Quick Start
//
//	runner := pipeline.NewRunner(pipeline.Options{})
//	defer runner.Close()
//
//	res, err := runner.Compose(ctx, pkg)
//	if err != nil {
//	    // errors.IsStructural(err): the content cannot be laid out
//	}
//	data, _ := layout.Marshal(res.Spec)
//
// [content]: github.com/matzehuels/gestalt/pkg/content
// [rules]: github.com/matzehuels/gestalt/pkg/rules
// [compose]: github.com/matzehuels/gestalt/pkg/compose
// [validate]: github.com/matzehuels/gestalt/pkg/validate
// [layout]: github.com/matzehuels/gestalt/pkg/layout
// [geom]: github.com/matzehuels/gestalt/pkg/geom
// [pipeline]: github.com/matzehuels/gestalt/pkg/pipeline
// [cache]: github.com/matzehuels/gestalt/pkg/cache
// [advisory]: github.com/matzehuels/gestalt/pkg/advisory
// [config]: github.com/matzehuels/gestalt/pkg/config
// [server]: github.com/matzehuels/gestalt/pkg/server
// [observability]: github.com/matzehuels/gestalt/pkg/observability
// [telemetry]: github.com/matzehuels/gestalt/pkg/telemetry
// [render]: github.com/matzehuels/gestalt/pkg/render
// [errors]: github.com/matzehuels/gestalt/pkg/errors
// [buildinfo]: github.com/matzehuels/gestalt/pkg/buildinfo
package pkg
