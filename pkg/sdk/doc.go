// Package offpath is an in-process Go client for the offpath travel blog search engine.
//
// The client opens the document store directly (SQLite, Redis or Valkey), builds the
// BM25 and vector indexes lazily on the first search, and ranks posts with exactly one
// strategy per call.
//
//	client, _ := offpath.New(ctx, offpath.WithSQLite("data/offpath.db"))
//	defer client.Close()
//
//	results, _ := client.Search(ctx, "quiet fjord hikes", offpath.ModeBM25, 10)
//	for _, r := range results {
//	    fmt.Println(r.Rank, r.Destination, r.Score)
//	}
//
// Vector search needs an embedder for the query text:
//
//	client, _ := offpath.New(ctx,
//	    offpath.WithRedis("localhost:6379", ""),
//	    offpath.WithEmbedder(myEmbedder, "nomic-ai/modernbert-embed-base", 768),
//	    offpath.WithInstructions("search_document: ", "search_query: "),
//	)
//	results, _ := client.Search(ctx, "street food night markets", offpath.ModeVector, 5)
package offpath
