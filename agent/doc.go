// Package agent implements the single-turn reasoning loop at the heart of
// agentloom. One ProcessQuery call performs exactly one model round trip:
// it reads recent conversation history, optionally augments the query with
// retrieved documents, calls the language-model gateway once, dispatches any
// requested tool calls exhaustively, records every action in the action log
// and appends the final assistant message to the conversation.
//
// Iterative or looping task execution is explicitly the responsibility of
// the caller (typically the workflow orchestrator) re-invoking ProcessQuery
// with updated context.
package agent
