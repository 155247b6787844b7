// Package core provides the foundational domain types and store contracts
// used by agentloom. It defines the shared abstractions for:
//
//   - Conversations (append-only message containers with strict ordering)
//   - Messages (immutable role-tagged conversational records)
//   - Retrieved documents (transient similarity-search results)
//   - Action records (durable audit entries for queries, tool calls and
//     workflow task steps)
//   - Pluggable stores for conversation history and the action log
//
// The package intentionally keeps implementation concerns (persistence,
// model providers, orchestration) out of scope, exposing small interfaces to
// enable custom backends and extensions.
package core
