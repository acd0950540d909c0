// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

// Command canvasflow runs the workflow builder service: the workflow CRUD
// API, live editing sessions, the WebSocket event feed, health, and
// Prometheus metrics.
package main
