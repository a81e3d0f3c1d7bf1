// Package interfaces documents the core abstractions used throughout the application.
//
// Interfaces are declared by the package that consumes them and kept small.
// Concrete types live in their own packages and are matched up in checks.go,
// so a renamed or missing method fails the build instead of the wiring in
// internal/entrypoint.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - MangaStore, LibraryStore: manga records and library queries (internal/http)
//   - LocalStore: lookup and insert by (url, source) for reconciliation (internal/manga)
//   - UpdateStore: sparse partial updates, single and atomic batch (internal/manga)
//   - ChapterStore, CategoryStore, TrackStore: facets copied by a migration (internal/migration)
//   - SourcePreferences: stored migration source choices (internal/migration)
//
// ## Source Interfaces
//
//   - Catalogue: a remote content source (internal/source/catalogue.go)
//   - Reconciler: resolves fetched manga to local records (internal/source, internal/migration)
//   - CatalogueResolver, CatalogueGetter, CatalogueLister: views of the source manager
//
// ## Service Interfaces
//
//   - Refresher: re-reads one manga and its chapters from its source (internal/migration)
//   - Searcher, SingleMigrator: the parts of a batch source migration (internal/migration)
//   - LibraryRunner, MangaRefresher: work run by the task queue (internal/tasks)
//   - Enqueuer: hands scheduled work to the task queue (internal/scheduler)
//
// ## Progress and Audit Interfaces
//
//   - ProgressTracker: progress of a long running batch (internal/library, internal/migration)
//   - AuditLogger, SnapshotWriter: the audit trail of migrations and updates
//   - CoverFiles, DownloadFiles: covers and downloaded chapters on disk (internal/http)
//
// # Adding a New Source Type
//
// To read a catalogue that does not speak the JSON protocol of HTTPCatalogue:
//
//  1. Implement Catalogue in internal/source/
//
//     type OPDSCatalogue struct {
//         def  Definition
//         http *http.Client
//     }
//
//     func (c *OPDSCatalogue) Search(ctx context.Context, query string, page int) (entities.MangasPage, error)
//     ...
//
//  2. Add a compile-time check in checks.go
//
//     var _ source.Catalogue = (*source.OPDSCatalogue)(nil)
//
//  3. Register it with the Manager in entrypoint/app.go
//
// # Adding a New Migration Facet
//
//  1. Add a flag with the next free bit and a name to AllFacets in
//     internal/migration/flags.go. Existing bits never change.
//  2. Copy the facet in Migrator.Migrate behind the new Has* check.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
