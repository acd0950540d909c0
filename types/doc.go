// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types provides the shared structured error type and error codes
used across CanvasFlow.

Graph-store mutations never fail hard: a rejected mutation (deleting a
protected node, deleting a connected router, an invalid route rename)
produces a *types.Error warning while the rest of the batch proceeds. The
HTTP layer maps the same codes onto response statuses.
*/
package types
