// Package templates stores prompt templates and selects the best match for a
// generation request.
//
// A template serves one field type and may be tagged with an industry and a
// framework. The Resolver ranks the active candidates of a field type:
//
//  1. industry and framework both match
//  2. industry matches, template has no framework
//  3. framework matches, template has no industry
//  4. generic template with neither tag
//
// The first rule that matches wins. When nothing matches, Resolve returns nil
// and the prompt builder falls back to its built-in library.
//
// # Stores
//
// MemoryStore keeps templates in process. SQLStore persists them in SQLite or
// Postgres through pkg/storage/sqldb.
//
// # Seeding
//
// Templates are maintained as YAML seed files. ImportFile upserts them by id
// and bumps the version of entries whose body or tags changed. SeedWatcher
// re-imports a seed file on change, and the gitsource subpackage imports the
// seed files of a Git repository.
package templates
