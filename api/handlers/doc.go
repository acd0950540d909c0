// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package handlers implements the HTTP API for the workflow builder:
workflow CRUD backed by the SQLite store, an optional Redis read cache,
and a WebSocket feed that notifies open editors about saves and deletes.
*/
package handlers
