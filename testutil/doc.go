// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

// Package testutil provides shared test helpers and graph fixtures.
package testutil
