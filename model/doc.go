// Package model defines the normalized language-model gateway contract used
// by agents: a typed request (instructions, history, tool definitions,
// current query) and a typed response (assistant text plus zero or more
// requested tool calls). Provider adapters (anthropic, openai) translate this
// contract to their SDKs so downstream logic needs no per-vendor branching.
package model
