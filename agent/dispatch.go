package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentloom/core"
	"github.com/hupe1980/agentloom/logging"
	"github.com/hupe1980/agentloom/model"
	"github.com/hupe1980/agentloom/tool"
)

// dispatcher executes the batch of tool calls requested within one turn,
// possibly in parallel. Dispatch is exhaustive: every requested call yields
// exactly one ToolResult and exactly one TOOL_CALL action record regardless
// of sibling failures, panics or cancellation. Results are returned in
// request order; execution order within a turn is unspecified.
type dispatcher struct {
	registry    *tool.Registry
	actions     core.ActionLog
	logger      logging.Logger
	maxParallel int // 0 or <1 => no explicit limit
	timeout     time.Duration
}

func (d *dispatcher) dispatchAll(ctx context.Context, conversationID string, calls []model.ToolCall) []ToolResult {
	n := len(calls)
	if n == 0 {
		return nil
	}

	// Fast path: single call, execute inline.
	if n == 1 {
		return []ToolResult{d.executeOne(ctx, conversationID, calls[0])}
	}

	maxPar := d.maxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	results := make([]ToolResult, n)
	sem := make(chan struct{}, maxPar)
	var wg sync.WaitGroup

	batchStart := time.Now()
	for i := range calls {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, call model.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = d.executeOne(ctx, conversationID, call)
		}(i, calls[i])
	}
	wg.Wait()

	d.logger.Debug(
		"agent.tools.batch.complete",
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results
}

// executeOne runs a single call end to end: argument decoding, schema
// validation, handler execution under the per-call timeout, panic recovery
// and the action record append.
func (d *dispatcher) executeOne(ctx context.Context, conversationID string, call model.ToolCall) ToolResult {
	start := time.Now()
	res := ToolResult{CallID: call.ID, Name: call.Name}

	var output any
	err := func() (err error) {
		defer func() { // panic safety
			if r := recover(); r != nil {
				err = fmt.Errorf("tool panicked: %v", r)
				d.logger.Error("agent.tool.panic", "tool", call.Name, "recover", r)
			}
		}()

		args, aerr := call.ArgumentsMap()
		if aerr != nil {
			return aerr
		}

		callCtx := ctx
		if d.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}

		output, err = d.registry.Dispatch(callCtx, call.Name, args)
		return err
	}()

	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err.Error()
	} else {
		res.Output = output
	}

	logging.LogToolCall(d.logger, call.Name, res.Duration, err)
	d.record(ctx, conversationID, call, res)

	return res
}

// record appends the TOOL_CALL action record for one executed call. Append
// failures are reported but never abort the turn; the invariant "one record
// attempt per dispatched call" is what the audit trail relies on.
func (d *dispatcher) record(ctx context.Context, conversationID string, call model.ToolCall, res ToolResult) {
	rec := core.NewActionRecord(conversationID, core.ActionToolCall)
	rec.ToolName = call.Name
	rec.Input = string(call.Arguments)
	rec.Duration = res.Duration

	if res.Failed() {
		rec.Status = core.ActionFailed
		rec.Output = res.Error
	} else {
		rec.Status = core.ActionCompleted
		rec.Output = snapshot(res.Output)
	}

	if err := d.actions.Append(ctx, rec); err != nil {
		d.logger.Error("agent.actionlog.append.failed", "tool", call.Name, "error", err.Error())
	}
}

// snapshot renders a tool output as a JSON string for the audit log.
func snapshot(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
