// Package testutil provides testing utilities for sarstore.
//
// This package is intended for use in tests and benchmarks only.
// It provides deterministic random sources, image byte patterns whose
// every byte encodes its logical position, and an in-memory positioned
// file.
//
// # Patterns
//
//	img := raster.Image{Rows: 123, Cols: 456, Bands: 2, BytesPerPixel: 4}
//	full := testutil.ImagePattern(img)              // whole image, buffer layout
//	part := testutil.Crop(full, img, window)        // what ReadWindow must return
//
// # In-memory files
//
//	f := testutil.NewMemFile(0)
//	f.WriteAt(ctx, p, off)
//	f.ReadAt(ctx, p, off)
package testutil
