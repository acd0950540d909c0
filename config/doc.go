// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package config loads the CanvasFlow service configuration.

Priority: built-in defaults → YAML file → CANVASFLOW_* environment
variables. The zero path loads defaults plus environment only.
*/
package config
