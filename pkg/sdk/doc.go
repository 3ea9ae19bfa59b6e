// Package conesearch embeds the cone-search engine in a Go program: the same catalog
// registry and dispatch the HTTP service runs, without the HTTP layer.
//
// Catalogs live in a Valkey or Redis keyspace (indexed), in a directory of parquet
// partitions (partitioned), or both:
//
//	client, _ := conesearch.New(ctx,
//	    conesearch.WithValkey("localhost:6379", ""),
//	    conesearch.WithCatalogRoot("/data/catalogs"),
//	)
//	defer client.Close()
//
//	hits, _ := client.Any(ctx, conesearch.Request{
//	    RA: 5, Dec: 5,
//	    Catalogs: []conesearch.Spec{
//	        {Kind: conesearch.Partitioned, Name: "ROSATfsc", RadiusArcsec: 3600},
//	        {Kind: conesearch.Indexed, Name: "milliquas", RadiusArcsec: 60, PostFilter: "z > 0.5"},
//	    },
//	})
package conesearch
