// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package storage persists workflow documents in SQLite via GORM.

Each record holds the raw visual definition and the compiled step list side
by side: the editor reloads the former verbatim, the execution runtime
reads the latter. Workflows are upserted by name.
*/
package storage
