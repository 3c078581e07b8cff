/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package watchdog runs one complete liveness check: read the supervised
// service's state file, decide whether it is hung, and apply the restart
// policy when it is.
// watchdog 包执行一次完整的存活检查：读取被监管服务的状态文件，判断它是否
// 挂起，并在挂起时应用重启策略。
//
// One invocation equals one run; the scheduled task provides the cadence.
// 一次调用即一次运行；调度节奏由计划任务提供。
package watchdog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/config"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/guard"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/history"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/runlog"
	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/state"
)

// ErrServiceNotInstalled indicates the supervised service is not registered
// with the service manager, so there is nothing to supervise.
// ErrServiceNotInstalled 表示被监管服务未在服务管理器中注册，因此无可监管
// 的对象。
var ErrServiceNotInstalled = errors.New("watchdog: supervised service is not installed")

// Outcome is the result of one watchdog run.
// Outcome 是一次看门狗运行的结果。
type Outcome struct {
	// Result is the staleness verdict / 过期判定结果
	Result *state.Result

	// Decision is the restart decision; nil unless the verdict was stale
	// Decision 是重启决策；仅在判定为过期时非 nil
	Decision *guard.Decision
}

// Watchdog wires the checker, the restart guard and the reporting sinks into
// a single run.
// Watchdog 将检查器、重启守卫和上报通道组装成一次完整运行。
type Watchdog struct {
	cfg     *config.Config
	checker *state.Checker
	guard   *guard.Guard
	svc     guard.ServiceController
	run     *runlog.Log
	hist    *history.Repository
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a Watchdog. hist may be nil when the history store is disabled;
// run may be a runlog.Discard() when the run log is disabled.
// New 创建一个 Watchdog。历史存储禁用时 hist 可为 nil；运行日志禁用时 run
// 可为 runlog.Discard()。
func New(
	cfg *config.Config,
	checker *state.Checker,
	g *guard.Guard,
	svc guard.ServiceController,
	run *runlog.Log,
	hist *history.Repository,
	logger *zap.Logger,
) *Watchdog {
	if run == nil {
		run = runlog.Discard()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watchdog{
		cfg:     cfg,
		checker: checker,
		guard:   g,
		svc:     svc,
		run:     run,
		hist:    hist,
		logger:  logger,
		now:     time.Now,
	}
}

// SetNow overrides the clock, for tests.
// SetNow 覆盖时钟，用于测试。
func (w *Watchdog) SetNow(now func() time.Time) {
	w.now = now
}

// Run performs one check-and-maybe-restart cycle.
// Run 执行一次“检查并按需重启”的周期。
//
// The supervised service must be installed; a missing state file is reported
// as indeterminate and ends the run successfully without touching the
// service. Failures are recorded in the history store before they are
// returned.
// 被监管服务必须已安装；状态文件缺失会被报告为无法判定，并在不触碰服务的
// 情况下成功结束本次运行。失败在返回之前会先记入历史存储。
func (w *Watchdog) Run(ctx context.Context) (*Outcome, error) {
	installed, err := w.svc.Installed(ctx)
	if err != nil {
		return nil, fmt.Errorf("watchdog: query service registration: %w", err)
	}
	if !installed {
		err := fmt.Errorf("%w: %s", ErrServiceNotInstalled, w.cfg.Watchdog.ServiceName)
		w.run.Printf("service %q not installed, nothing to do", w.cfg.Watchdog.ServiceName)
		w.record(ctx, nil, nil, err)
		return nil, err
	}

	result, err := w.checker.Check(w.cfg.Watchdog.StateFile)
	if err != nil {
		w.run.Printf("cannot read state file: %v", err)
		w.record(ctx, nil, nil, err)
		return nil, err
	}

	w.run.Printf("%s", result.Message())

	outcome := &Outcome{Result: result}
	if result.Verdict != state.VerdictStale {
		w.record(ctx, result, nil, nil)
		return outcome, nil
	}

	decision, err := w.guard.Apply(ctx)
	if err != nil {
		w.run.Printf("restart failed: %v", err)
		w.record(ctx, result, nil, err)
		return nil, err
	}

	w.run.Printf("%s", decision.Reason)
	outcome.Decision = decision

	w.record(ctx, result, decision, nil)
	return outcome, nil
}

// record persists one run outcome to the history store. Recording is best
// effort: a storage failure is logged and the run outcome stands.
// record 将一次运行结果持久化到历史存储。记录是尽力而为的：存储失败只记录
// 日志，运行结果不受影响。
func (w *Watchdog) record(ctx context.Context, result *state.Result, decision *guard.Decision, runErr error) {
	if w.hist == nil {
		return
	}

	rec := &history.CheckRecord{RanAt: w.now()}
	if result != nil {
		rec.Verdict = string(result.Verdict)
		rec.ElapsedSeconds = result.Elapsed
		rec.ThresholdSeconds = result.Threshold
	}
	if decision != nil {
		rec.Restarted = decision.Restarted
		rec.Reason = decision.Reason
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}

	if err := w.hist.Append(ctx, rec); err != nil {
		w.logger.Warn("failed to record run history", zap.Error(err))
		return
	}
	if err := w.hist.Prune(ctx, w.cfg.History.Keep); err != nil {
		w.logger.Warn("failed to prune run history", zap.Error(err))
	}
}
