// Package contacts persists contact documents.
//
// Repository is the storage contract used by the document store; it knows
// nothing about change feeds, ordering for display or validation. Two
// implementations exist, both over dbx.DBTX so they can run inside a
// transaction:
//
//   - SQLiteRepository: embedded store used by the CLI in local mode
//   - PostgresRepository: shared store used by the server (pgx stdlib driver)
//
// Search keys are written from models.Contact.SearchForward/SearchReverse on
// every insert and replace, so the stored columns never drift from the names.
package contacts
