// Package pkg provides the libraries behind the photocard compositor.
//
// # Overview
//
// A photocard is a single raster image composed from a background, an
// artwork image and a few lines of text, placed by a declarative layout
// document. The pkg directory is organized into three areas:
//
//  1. Composition: [layout], [text], [fonts], [compose]
//  2. Orchestration: [pipeline], [resource]
//  3. Infrastructure: [cache], [storage], [template], [integrations], [httputil],
//     [observability], [errors]
//
// # Architecture
//
// The data flow of one render:
//
//	RenderRequest (size, layout document, artwork, substitutions)
//	         ↓
//	    [layout] package (parse JSON/YAML, defaults, validation)
//	         ↓
//	    [pipeline] package (substitutions, cache lookup, concurrent image loads)
//	         ↓
//	    [resource] package (http, registry, data: and qr: references; placeholders)
//	         ↓
//	    [compose] package (background, fitted images, wrapped text)
//	         ↓
//	    JPEG/PNG bytes
//
// Every failure on the way to the canvas is recovered: an invalid layout is
// replaced by the default layout and an unreachable image by a placeholder.
// Only encoding the finished canvas can fail a render.
//
// # Quick Start
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(128), nil, logger)
//	defer runner.Close()
//
//	result, err := runner.Render(ctx, pipeline.RenderRequest{
//	    LayoutSource: layoutYAML,
//	    Artwork: pipeline.Artwork{
//	        Title:    "Water Lilies",
//	        ImageURL: "https://example.com/lilies.jpg",
//	    },
//	    Substitutions: map[string]string{"summary": summary},
//	    Format:        pipeline.FormatPNG,
//	})
//
// # Service
//
// The HTTP API in internal/server combines these packages with a
// [template] store, a [storage] file store and the [integrations] clients
// of the exhibition and chat services to create, store and serve cards.
//
// [layout]: https://pkg.go.dev/github.com/matzehuels/photocard/pkg/layout
// [text]: https://pkg.go.dev/github.com/matzehuels/photocard/pkg/text
// [fonts]: https://pkg.go.dev/github.com/matzehuels/photocard/pkg/fonts
// [compose]: https://pkg.go.dev/github.com/matzehuels/photocard/pkg/compose
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/photocard/pkg/pipeline
// [resource]: https://pkg.go.dev/github.com/matzehuels/photocard/pkg/resource
// [cache]: https://pkg.go.dev/github.com/matzehuels/photocard/pkg/cache
// [storage]: https://pkg.go.dev/github.com/matzehuels/photocard/pkg/storage
// [template]: https://pkg.go.dev/github.com/matzehuels/photocard/pkg/template
// [integrations]: https://pkg.go.dev/github.com/matzehuels/photocard/pkg/integrations
// [httputil]: https://pkg.go.dev/github.com/matzehuels/photocard/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/photocard/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/photocard/pkg/errors
package pkg
