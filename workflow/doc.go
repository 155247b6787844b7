// Package workflow composes multiple agents into coordinated executions
// under one of three strategies:
//
//   - Sequential: ordered steps, each receiving the previous step's output,
//     failing fast on the first failed step.
//   - Parallel: best-effort concurrent fan-out over specialty branches with
//     barrier synchronization, followed by a mandatory synthesizer fan-in.
//   - Hierarchical: a supervisor produces a plan, typed subtasks are routed
//     to workers via a static routing table, and the supervisor finalizes a
//     digest of the worker outputs.
//
// Every execution reaches a terminal COMPLETED or FAILED status, every
// assignment transitions monotonically, and every step is recorded in the
// action log even under partial failure.
package workflow
