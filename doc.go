// Package sarstore stores very large multi-band sensor images and
// phase-history signal data in size-constrained binary containers.
//
// An image is planned into row-range segments that respect the container's
// per-segment row and byte ceilings (NITF 2.1 by default). Windows are
// written in any order through a write session that rejects duplicate
// cells and refuses to finalize until every cell is covered. Finalized
// images can be block coded with any registered compression codec and are
// read back window by window, decoding only the blocks a window touches.
//
// Phase-history containers address samples by channel, vector and sample,
// with per-vector parameters and named support arrays alongside.
//
// # Quick Start
//
//	db, err := sarstore.Open(blobstore.NewLocalStore("./data"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	img := raster.Image{Rows: 120_000, Cols: 8192, Bands: 1, BytesPerPixel: 8}
//	w, _ := db.CreateImage(ctx, "scene.ntf", img)
//	for _, tile := range tiles {
//		_ = w.WriteWindow(ctx, tile.Window, tile.Data)
//	}
//	if err := w.Finalize(ctx); err != nil {
//		// errors.Is(err, sarstore.ErrIncompleteWrite): write the gap, finalize again
//	}
//
//	r, _ := db.OpenImage(ctx, "scene.ntf")
//	defer r.Close()
//	chip, _ := r.ReadWindow(ctx, raster.Window{Row: 50_000, Col: 1024, Rows: 512, Cols: 512})
//
// # Cloud Storage
//
//	store, _ := s3.New(ctx, "imagery", "collects/")
//	db, _ := sarstore.Open(store, sarstore.WithProfile(profile))
//
// # Errors
//
// Every failure matches one of the sentinels re-exported here, for example
// errors.Is(err, sarstore.ErrOutOfRange).
package sarstore
