// Package docindex keeps a search index in sync with a documentation site.
// It crawls the site, splits every page into heading-bounded sections,
// fingerprints each section and reconciles the crawl against the index,
// upserting new or changed sections and deleting the ones that disappeared.
//
// This package contains domain types, interfaces and the pure parts of the
// pipeline (cleaning, fingerprinting, reconciliation, batching) following
// Ben Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., goquery/,
// sqlite/, upstash/).
package docindex
