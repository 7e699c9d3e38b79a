// Package pagination provides cursor-based page navigation for Torn API
// endpoints that return partial result sets.
//
// Paginated responses carry a _metadata.links object with absolute URLs
// to the adjacent pages. Fetch wraps a dispatcher call in a Page that
// exposes the decoded data plus Next/Previous navigation, and Pages
// turns a page into a sequential iterator:
//
//	page, err := pagination.Fetch[AttacksResponse](ctx, c, "/user/attacks", nil)
//	for page, err := range page.Pages(ctx) {
//		if err != nil {
//			return err
//		}
//		process(page.Data.Attacks)
//	}
//
// Every page produced by navigation shares the originating client, so
// rate-limit accounting stays consistent across a traversal.
package pagination
