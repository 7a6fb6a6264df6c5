// Package pagination provides parallel batch fetching for paginated
// collections.
//
// The fetcher reads the first page to learn the total page count, then
// fans the remaining pages out across a worker pool. Page fetches are
// expected to go through the request scheduler, so the pool size here
// only bounds in-flight fan-out, not actual network concurrency.
//
// Example usage:
//
//	fetcher := pagination.NewBatchFetcher(apiClient, pagination.DefaultConfig())
//	pages, err := fetcher.FetchAllPages(ctx, "/articles")
//
// Individual page failures do not stop the fan-out: every page that could
// be fetched is returned, alongside the first error observed.
package pagination
