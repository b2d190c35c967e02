// Package ir provides the compiled sequence-graph types shared by every
// comboseq package.
//
// This package contains type definitions and canonical serialization only.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - The graph is an arena: States is a dense slice, links are int indices
//   - Index 0 is the implicit start node; its parent is always IndexNone
//   - All JSON tags use snake_case
//   - Time is frame delta time in seconds, never wall-clock timestamps
package ir
