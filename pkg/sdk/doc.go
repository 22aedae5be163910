// Package showroomdex is an embedded Go client for showroom discovery.
//
// It runs the same engine as the HTTP service in-process, either against a
// Redis instance with the search module or against a fixture snapshot.
//
//	client, _ := showroomdex.New(ctx, showroomdex.WithRedis("localhost:6379", ""))
//	defer client.Close()
//
//	page, _ := client.Query().City("Aalborg").Brand("Ganni").Limit(20).List(ctx)
//	for page.HasMore {
//	    page, _ = client.Query().City("Aalborg").Brand("Ganni").After(page.NextCursor).List(ctx)
//	}
//
//	n, _ := client.Query().Near(57.05, 9.92).Km(5).Count(ctx)
//	hints, _ := client.Query().Text("nor").Suggest(ctx)
package showroomdex
