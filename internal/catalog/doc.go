// Package catalog assembles the deployment's tool catalog.
//
// # Sources
//
// The catalog merges four heterogeneous sources in a fixed order:
//
//  1. Remote registry actions — one tool per action the registry reports
//     for the deployment's integrations.
//  2. Local OpenAPI documents — one tool and one dispatch binding per
//     operation. Documents live in a configured directory and are matched
//     to integrations by file name: the integration's stable key, or a
//     "custom.<key>" name for user-defined integrations. Unmatched
//     documents are skipped.
//  3. The generic raw API request tool (CALL_API_REQUEST), whose schema
//     enumerates the allowed integration keys.
//  4. Static custom tools declared in a YAML file.
//
// # Invariants
//
// Tool names are globally unique: a collision between any two sources is a
// construction-time failure (ErrDuplicateTool), never a silent override.
// An integration allow-list restricts every source; a tool allow-list
// filters the final catalog. Build order is deterministic so two builds of
// the same inputs expose tools in the same order.
//
// The built Catalog is immutable and safe for concurrent readers; it is
// constructed once at startup and injected into the dispatcher rather than
// held as ambient process state.
package catalog
