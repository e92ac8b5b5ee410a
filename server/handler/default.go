// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/agentwire/agentwire"
	"github.com/agentwire/agentwire/server/event"
	"github.com/agentwire/agentwire/server/execution"
	"github.com/agentwire/agentwire/server/task"
)

// inflight tracks one running streaming call so that tasks/cancel can
// stop it cooperatively and wait for the final fold.
type inflight struct {
	cancel          context.CancelFunc
	done            chan struct{}
	cancelRequested bool
}

// DefaultHandler is the standard RequestHandler. It serializes mutation
// per task ID, folds every executor-reported delta through the lifecycle
// engine, and persists each fold before the corresponding event is
// handed to the caller's stream.
type DefaultHandler struct {
	executor execution.AgentExecutor
	store    task.Store
	queues   event.Manager
	guard    *task.Guard
	card     *agentwire.AgentCard
	logger   *slog.Logger
	tracer   trace.Tracer
	clock    func() time.Time

	mu      sync.Mutex
	running map[string]*inflight
}

var _ RequestHandler = (*DefaultHandler)(nil)

// DefaultHandlerOption configures a DefaultHandler.
type DefaultHandlerOption func(*DefaultHandler)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) DefaultHandlerOption {
	return func(h *DefaultHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithTracer sets the tracer used for per-operation spans.
func WithTracer(tracer trace.Tracer) DefaultHandlerOption {
	return func(h *DefaultHandler) {
		if tracer != nil {
			h.tracer = tracer
		}
	}
}

// WithQueueManager sets the queue manager tracking live event streams.
func WithQueueManager(queues event.Manager) DefaultHandlerOption {
	return func(h *DefaultHandler) {
		if queues != nil {
			h.queues = queues
		}
	}
}

// WithAgentCard attaches the agent's own discovery card. When set, its
// advertised capabilities gate the streaming operations.
func WithAgentCard(card *agentwire.AgentCard) DefaultHandlerOption {
	return func(h *DefaultHandler) {
		h.card = card
	}
}

// WithClock overrides the transition timestamp source. Intended for
// deterministic tests.
func WithClock(clock func() time.Time) DefaultHandlerOption {
	return func(h *DefaultHandler) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewDefaultHandler creates a handler around an executor and a task store.
func NewDefaultHandler(executor execution.AgentExecutor, store task.Store, opts ...DefaultHandlerOption) (*DefaultHandler, error) {
	if executor == nil {
		return nil, fmt.Errorf("executor cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}

	h := &DefaultHandler{
		executor: executor,
		store:    store,
		queues:   event.NewInMemoryManager(),
		guard:    task.NewGuard(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("agentwire.server.handler"),
		clock:    func() time.Time { return time.Now().UTC() },
		running:  make(map[string]*inflight),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// resolveTask loads the task a message refers to. A message without a
// task ID, or with an ID the store has never seen, starts a new task.
func (h *DefaultHandler) resolveTask(ctx context.Context, taskID string) (*agentwire.Task, error) {
	if taskID == "" {
		return nil, nil
	}
	current, err := h.store.Get(ctx, taskID)
	if err != nil {
		var notFound *agentwire.TaskNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	return current, nil
}

// continueTask folds the caller's follow-up message into an existing
// task, re-entering working, and persists the result. Prior history and
// artifacts are preserved.
func (h *DefaultHandler) continueTask(ctx context.Context, current *agentwire.Task, msg *agentwire.Message) (*agentwire.Task, error) {
	next, err := agentwire.ApplyDelta(current, agentwire.StateDelta{
		State:   agentwire.TaskStateWorking,
		Message: msg,
	}, h.clock())
	if err != nil {
		return nil, err
	}
	if err := h.store.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// OnSendMessage handles one non-streaming send.
func (h *DefaultHandler) OnSendMessage(ctx context.Context, params *agentwire.MessageSendParams) (*agentwire.SendMessageResult, error) {
	if params == nil || params.Message == nil {
		return nil, &agentwire.InvalidParamsError{Msg: "message is required"}
	}
	if err := params.Validate(); err != nil {
		return nil, &agentwire.InvalidParamsError{Msg: err.Error()}
	}

	msg := params.Message
	taskID := msg.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}

	ctx, span := h.tracer.Start(ctx, "agentwire.handler.OnSendMessage",
		trace.WithAttributes(attribute.String("agentwire.task_id", taskID)))
	defer span.End()

	release, err := h.guard.Acquire(taskID)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := h.resolveTask(ctx, msg.TaskID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		if current.Status.State.Terminal() {
			return nil, &agentwire.InvalidStateTransitionError{
				TaskID: current.ID,
				From:   current.Status.State,
				To:     agentwire.TaskStateWorking,
			}
		}
		if current, err = h.continueTask(ctx, current, msg); err != nil {
			return nil, err
		}
	}

	reqCtx := execution.NewRequestContext(params, taskID, msg.ContextID, current)
	result, err := h.executor.SendMessage(ctx, reqCtx)
	if err != nil {
		// A streaming-only executor is a deployment property, not a
		// business failure of this task.
		var unsupported *agentwire.UnsupportedOperationError
		if errors.As(err, &unsupported) {
			return nil, unsupported
		}
		return h.foldSendFailure(ctx, current, msg, taskID, err)
	}
	if err := result.Validate(); err != nil {
		return nil, &agentwire.InternalError{Msg: fmt.Sprintf("executor returned invalid result: %v", err)}
	}

	if result.Message != nil {
		// Engine bypass: the executor chose not to model this interaction
		// as a task; nothing new is persisted.
		return &agentwire.SendMessageResult{Message: result.Message}, nil
	}

	if result.Delta.State == agentwire.TaskStateCanceled {
		return nil, &agentwire.InternalError{Msg: "executors cannot report the canceled state"}
	}

	if current == nil {
		if current, err = agentwire.NewTask(msg, taskID, msg.ContextID); err != nil {
			return nil, &agentwire.InvalidParamsError{Msg: err.Error()}
		}
	}

	folded, err := agentwire.ApplyDelta(current, result.Delta, h.clock())
	if err != nil {
		return nil, err
	}
	if err := h.store.Save(ctx, folded); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "send completed",
		"task_id", folded.ID, "state", folded.Status.State)
	return &agentwire.SendMessageResult{Task: folded}, nil
}

// foldSendFailure turns an executor failure into a failed status on the
// task and returns it as a normal response. Callers detect the failure
// by inspecting status.state.
func (h *DefaultHandler) foldSendFailure(ctx context.Context, current *agentwire.Task, msg *agentwire.Message, taskID string, execErr error) (*agentwire.SendMessageResult, error) {
	h.logger.WarnContext(ctx, "executor failed", "task_id", taskID, "error", execErr)

	if current == nil {
		var err error
		if current, err = agentwire.NewTask(msg, taskID, msg.ContextID); err != nil {
			return nil, &agentwire.ExecutorFailureError{TaskID: taskID, Cause: execErr}
		}
	}

	failure := agentwire.NewAgentTextMessage(execErr.Error(), current.ID, current.ContextID)
	folded, err := agentwire.ApplyDelta(current, agentwire.StateDelta{
		State:   agentwire.TaskStateFailed,
		Message: failure,
	}, h.clock())
	if err != nil {
		return nil, &agentwire.ExecutorFailureError{TaskID: taskID, Cause: execErr}
	}
	if err := h.store.Save(ctx, folded); err != nil {
		return nil, err
	}
	return &agentwire.SendMessageResult{Task: folded}, nil
}

// OnStreamMessage handles one streaming send. The executor produces
// events into an internal queue; each event is folded and persisted
// before it is forwarded to the caller, in producer order.
func (h *DefaultHandler) OnStreamMessage(ctx context.Context, params *agentwire.MessageSendParams) (*EventStream, error) {
	if params == nil || params.Message == nil {
		return nil, &agentwire.InvalidParamsError{Msg: "message is required"}
	}
	if err := params.Validate(); err != nil {
		return nil, &agentwire.InvalidParamsError{Msg: err.Error()}
	}
	if h.card != nil && !h.card.Capabilities.Streaming {
		return nil, &agentwire.UnsupportedOperationError{Operation: "streaming"}
	}

	msg := params.Message
	taskID := msg.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}

	ctx, span := h.tracer.Start(ctx, "agentwire.handler.OnStreamMessage",
		trace.WithAttributes(attribute.String("agentwire.task_id", taskID)))
	defer span.End()

	release, err := h.guard.Acquire(taskID)
	if err != nil {
		return nil, err
	}

	cur, err := func() (*agentwire.Task, error) {
		current, err := h.resolveTask(ctx, msg.TaskID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			created, err := agentwire.NewTask(msg, taskID, msg.ContextID)
			if err != nil {
				return nil, &agentwire.InvalidParamsError{Msg: err.Error()}
			}
			if err := h.store.Save(ctx, created); err != nil {
				return nil, err
			}
			return created, nil
		}
		if current.Status.State.Terminal() {
			return nil, &agentwire.InvalidStateTransitionError{
				TaskID: current.ID,
				From:   current.Status.State,
				To:     agentwire.TaskStateWorking,
			}
		}
		return h.continueTask(ctx, current, msg)
	}()
	if err != nil {
		release()
		return nil, err
	}

	public, err := h.queues.Create(cur.ID)
	if err != nil {
		release()
		return nil, &agentwire.TaskBusyError{TaskID: cur.ID}
	}
	consumer := event.NewConsumer(public)
	execQueue := event.NewQueue(event.DefaultQueueSize)

	// The producer outlives the caller's connection: a dropped consumer
	// must not abort in-flight agent work, or resubscription would have
	// nothing to re-attach to. Only tasks/cancel stops the producer.
	prodCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run := &inflight{cancel: cancel, done: make(chan struct{})}
	h.mu.Lock()
	h.running[cur.ID] = run
	h.mu.Unlock()

	g, gctx := errgroup.WithContext(prodCtx)
	reqCtx := execution.NewRequestContext(params, taskID, msg.ContextID, cur)
	g.Go(func() error {
		defer execQueue.Close()
		return h.executor.StreamMessage(gctx, reqCtx, execQueue)
	})

	go h.pumpStream(prodCtx, g, run, release, cur, execQueue, public, consumer)

	events, errs := consumer.ConsumeAll(ctx)
	return &EventStream{TaskID: cur.ID, Events: events, Errs: errs}, nil
}

// pumpStream drains the executor's queue, folding and persisting each
// event before forwarding it to the public queue. It settles the task
// into a terminal state when the producer stops without one.
func (h *DefaultHandler) pumpStream(ctx context.Context, g *errgroup.Group, run *inflight, release func(), cur *agentwire.Task, execQueue, public *event.Queue, consumer *event.Consumer) {
	defer func() {
		if err := h.queues.Close(cur.ID); err != nil && !errors.Is(err, event.ErrNoQueue) {
			h.logger.Warn("failed to close event queue", "task_id", cur.ID, "error", err)
		}
		h.mu.Lock()
		delete(h.running, cur.ID)
		h.mu.Unlock()
		close(run.done)
		release()
	}()

	// Finalization must survive cooperative cancellation of ctx.
	settleCtx := context.WithoutCancel(ctx)

	sawFinal := false
	for {
		ev, err := execQueue.Dequeue(ctx)
		if err != nil {
			break
		}

		delta, err := agentwire.DeltaFromEvent(ev)
		if err != nil {
			h.settleFailed(settleCtx, cur, public, consumer, err)
			run.cancel()
			_ = g.Wait()
			return
		}
		if delta.State == agentwire.TaskStateCanceled {
			h.logger.Warn("discarding canceled delta from executor", "task_id", cur.ID)
			continue
		}

		next, err := agentwire.ApplyDelta(cur, delta, h.clock())
		if err != nil {
			h.settleFailed(settleCtx, cur, public, consumer, err)
			run.cancel()
			_ = g.Wait()
			return
		}
		if err := h.store.Save(ctx, next); err != nil {
			run.cancel()
			_ = g.Wait()
			// A cancellation landing between dequeue and persist fails the
			// save through the canceled context; the task still owes its
			// canceled fold.
			h.mu.Lock()
			canceled := run.cancelRequested
			h.mu.Unlock()
			if canceled {
				h.settle(settleCtx, cur, public, consumer, agentwire.StateDelta{
					State: agentwire.TaskStateCanceled,
				})
			} else {
				consumer.Fail(err)
			}
			return
		}
		cur = next

		if err := public.Enqueue(ctx, ev); err != nil {
			// Forwarding fails only on cancellation or queue close; stop
			// the producer and fall through to finalization.
			run.cancel()
			break
		}
		if ev.IsFinal() {
			sawFinal = true
			break
		}
	}

	prodErr := g.Wait()

	h.mu.Lock()
	canceled := run.cancelRequested
	h.mu.Unlock()

	switch {
	case sawFinal:
		// Anything the executor yields after its final event is discarded.
		// A stream ended by a lastChunk artifact leaves the task working;
		// settle it as completed without emitting past the final event.
		if !cur.Status.State.Terminal() {
			next, err := agentwire.ApplyDelta(cur, agentwire.StateDelta{
				State: agentwire.TaskStateCompleted,
			}, h.clock())
			if err != nil {
				h.logger.Warn("failed to settle task after final artifact", "task_id", cur.ID, "error", err)
				break
			}
			if err := h.store.Save(settleCtx, next); err != nil {
				h.logger.Warn("failed to persist settled task", "task_id", cur.ID, "error", err)
			}
		}

	case canceled:
		h.settle(settleCtx, cur, public, consumer, agentwire.StateDelta{
			State: agentwire.TaskStateCanceled,
		})

	case prodErr != nil && !errors.Is(prodErr, context.Canceled):
		h.settleFailed(settleCtx, cur, public, consumer,
			&agentwire.ExecutorFailureError{TaskID: cur.ID, Cause: prodErr})

	case cur.Status.State.Terminal():
		// Already settled by the fold loop.

	default:
		// Clean end of stream without an explicit final status.
		h.settle(settleCtx, cur, public, consumer, agentwire.StateDelta{
			State: agentwire.TaskStateCompleted,
		})
	}
}

// settle folds one last delta, persists it, and emits the terminal
// status event for the stream.
func (h *DefaultHandler) settle(ctx context.Context, cur *agentwire.Task, public *event.Queue, consumer *event.Consumer, delta agentwire.StateDelta) {
	next, err := agentwire.ApplyDelta(cur, delta, h.clock())
	if err != nil {
		consumer.Fail(err)
		return
	}
	if err := h.store.Save(ctx, next); err != nil {
		consumer.Fail(err)
		return
	}
	if err := public.Enqueue(ctx, agentwire.NewStatusUpdateEvent(next, true)); err != nil {
		h.logger.Warn("failed to emit terminal event", "task_id", next.ID, "error", err)
	}
}

// settleFailed folds a failed status carrying the error text and emits
// it as the stream's single terminal error event.
func (h *DefaultHandler) settleFailed(ctx context.Context, cur *agentwire.Task, public *event.Queue, consumer *event.Consumer, cause error) {
	h.logger.WarnContext(ctx, "stream failed", "task_id", cur.ID, "error", cause)
	if cur.Status.State.Terminal() {
		consumer.Fail(cause)
		return
	}
	h.settle(ctx, cur, public, consumer, agentwire.StateDelta{
		State:   agentwire.TaskStateFailed,
		Message: agentwire.NewAgentTextMessage(cause.Error(), cur.ID, cur.ContextID),
	})
}

// OnGetTask retrieves a task, optionally trimming history to the most
// recent historyLength messages.
func (h *DefaultHandler) OnGetTask(ctx context.Context, params *agentwire.TaskQueryParams) (*agentwire.Task, error) {
	if params == nil {
		return nil, &agentwire.InvalidParamsError{Msg: "params are required"}
	}
	if err := params.Validate(); err != nil {
		return nil, &agentwire.InvalidParamsError{Msg: err.Error()}
	}

	ctx, span := h.tracer.Start(ctx, "agentwire.handler.OnGetTask",
		trace.WithAttributes(attribute.String("agentwire.task_id", params.ID)))
	defer span.End()

	t, err := h.store.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if params.HistoryLength > 0 && len(t.History) > params.HistoryLength {
		t.History = t.History[len(t.History)-params.HistoryLength:]
	}
	return t, nil
}

// OnCancelTask transitions a non-terminal task to canceled. For a task
// with a running stream the producer is stopped cooperatively and the
// canceled fold happens on the stream's own owner, which this call waits
// for; otherwise the fold happens inline.
func (h *DefaultHandler) OnCancelTask(ctx context.Context, params *agentwire.TaskIDParams) (*agentwire.Task, error) {
	if params == nil {
		return nil, &agentwire.InvalidParamsError{Msg: "params are required"}
	}
	if err := params.Validate(); err != nil {
		return nil, &agentwire.InvalidParamsError{Msg: err.Error()}
	}

	ctx, span := h.tracer.Start(ctx, "agentwire.handler.OnCancelTask",
		trace.WithAttributes(attribute.String("agentwire.task_id", params.ID)))
	defer span.End()

	h.mu.Lock()
	run := h.running[params.ID]
	if run != nil {
		run.cancelRequested = true
	}
	h.mu.Unlock()

	if run != nil {
		h.notifyExecutorCancel(ctx, params.ID)
		run.cancel()
		select {
		case <-run.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		t, err := h.store.Get(ctx, params.ID)
		if err != nil {
			return nil, err
		}
		if t.Status.State != agentwire.TaskStateCanceled {
			// The stream finished before the cancellation took effect.
			return nil, &agentwire.InvalidStateTransitionError{
				TaskID: t.ID,
				From:   t.Status.State,
				To:     agentwire.TaskStateCanceled,
			}
		}
		return t, nil
	}

	release, err := h.guard.Acquire(params.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	t, err := h.store.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if t.Status.State.Terminal() {
		return nil, &agentwire.InvalidStateTransitionError{
			TaskID: t.ID,
			From:   t.Status.State,
			To:     agentwire.TaskStateCanceled,
		}
	}

	h.notifyExecutorCancel(ctx, params.ID)

	folded, err := agentwire.ApplyDelta(t, agentwire.StateDelta{
		State: agentwire.TaskStateCanceled,
	}, h.clock())
	if err != nil {
		return nil, err
	}
	if err := h.store.Save(ctx, folded); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "task canceled", "task_id", folded.ID)
	return folded, nil
}

// notifyExecutorCancel gives the executor a chance to stop its own work.
// The state transition does not depend on the executor acknowledging;
// an unsupported or failing executor cancel only loses the early stop.
func (h *DefaultHandler) notifyExecutorCancel(ctx context.Context, taskID string) {
	if err := h.executor.Cancel(ctx, taskID); err != nil {
		var unsupported *agentwire.UnsupportedOperationError
		if errors.As(err, &unsupported) {
			h.logger.DebugContext(ctx, "executor does not support cancel", "task_id", taskID)
			return
		}
		h.logger.WarnContext(ctx, "executor cancel failed", "task_id", taskID, "error", err)
	}
}

// OnResubscribe re-attaches a caller to the event sequence of a task. A
// live stream is tapped directly; otherwise the executor is asked to
// replay, which it may decline with UnsupportedOperation.
func (h *DefaultHandler) OnResubscribe(ctx context.Context, params *agentwire.TaskIDParams) (*EventStream, error) {
	if params == nil {
		return nil, &agentwire.InvalidParamsError{Msg: "params are required"}
	}
	if err := params.Validate(); err != nil {
		return nil, &agentwire.InvalidParamsError{Msg: err.Error()}
	}
	if h.card != nil && !h.card.Capabilities.Streaming {
		return nil, &agentwire.UnsupportedOperationError{Operation: "streaming"}
	}

	ctx, span := h.tracer.Start(ctx, "agentwire.handler.OnResubscribe",
		trace.WithAttributes(attribute.String("agentwire.task_id", params.ID)))
	defer span.End()

	if _, err := h.store.Get(ctx, params.ID); err != nil {
		return nil, err
	}

	if tap := h.queues.Tap(params.ID); tap != nil {
		events, errs := event.NewConsumer(tap).ConsumeAll(ctx)
		return &EventStream{TaskID: params.ID, Events: events, Errs: errs}, nil
	}

	// No live stream: fall back to the executor's replay. The replay runs
	// on its own goroutine so a replay longer than the queue buffer cannot
	// block this call; a declined or failed replay surfaces on the
	// stream's error channel.
	queue := event.NewQueue(event.DefaultQueueSize)
	consumer := event.NewConsumer(queue)
	go func() {
		defer queue.Close()
		if err := h.executor.Resubscribe(ctx, params.ID, queue); err != nil {
			consumer.Fail(err)
		}
	}()
	events, errs := consumer.ConsumeAll(ctx)
	return &EventStream{TaskID: params.ID, Events: events, Errs: errs}, nil
}
