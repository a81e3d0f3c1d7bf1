// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── handler.go       # Transactions and change subscriptions
//	├── manga/           # Manga records, library queries, partial updates
//	├── chapters/        # Chapter lists and read state
//	├── categories/      # Categories and manga assignments
//	├── tracks/          # Tracker links
//	├── sync/            # Library update progress
//	├── settings/        # Application settings
//	└── audit/           # Audit log
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./mangashelf.db", log)
//
//	mangaRepo := manga.NewRepository(db.Handler, log)
//	chapterRepo := chapters.NewRepository(db.Handler)
//
//	m, err := mangaRepo.GetMangaByID(ctx, 42)
//
// # Subscriptions
//
// Writes that go through Handler.Await or Handler.AwaitInTransaction name the
// tables they touch. Subscribe re-runs its query whenever one of the watched
// tables changes, which is how the library and manga streams stay current:
//
//	for m := range database.Subscribe(ctx, h, []string{database.TableMangas}, query) {
//		...
//	}
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct holding the *Handler
//  3. Add a NewRepository constructor
//  4. Add a compile-time interface check in internal/interfaces/checks.go
package database
