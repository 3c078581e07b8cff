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

// Package guard decides whether a hung-looking service may actually be
// restarted.
// guard 包决定一个看似挂起的服务是否真的可以被重启。
//
// A service that is stopped may have been stopped deliberately by an
// operator; restarting it behind the operator's back would be wrong. The
// guard therefore only restarts a stopped service when the event log carries
// evidence that its last start attempt at boot failed.
// 已停止的服务可能是操作员有意停止的；背着操作员重启它是错误的。因此守卫
// 只在事件日志表明该服务上次开机启动失败时才重启已停止的服务。
package guard

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ServiceStatus is the observed state of the supervised service.
// ServiceStatus 是观察到的被监管服务状态。
type ServiceStatus string

const (
	StatusRunning ServiceStatus = "running"
	StatusStopped ServiceStatus = "stopped"
	StatusUnknown ServiceStatus = "unknown"
)

// Decision reasons, also used verbatim in the run log
// 决策原因，也原样用于运行日志
const (
	ReasonWasRunning   = "service was running, restarted"
	ReasonFailedAtBoot = "service failed at boot, restarted"
	ReasonOperatorStop = "not restarting, service intentionally stopped"

	// ReasonUnexpectedState covers paused and other non-stopped states; the
	// observed status is appended in parentheses.
	// ReasonUnexpectedState 覆盖暂停等非停止状态；观察到的状态附加在括号中。
	ReasonUnexpectedState = "not restarting, service in unexpected state"
)

// ServiceController controls the supervised service through the OS service
// manager. Implemented by the winsvc package; faked in tests.
// ServiceController 通过操作系统服务管理器控制被监管服务。由 winsvc 包实现；
// 测试中使用伪实现。
type ServiceController interface {
	// Status reports the current run state of the service.
	// Status 报告服务的当前运行状态。
	Status(ctx context.Context) (ServiceStatus, error)

	// Restart restarts the service, blocking until the restart is issued.
	// Restart 重启服务，阻塞直到重启指令发出。
	Restart(ctx context.Context) error

	// Installed reports whether the service is registered with the service
	// manager at all.
	// Installed 报告服务是否已在服务管理器中注册。
	Installed(ctx context.Context) (bool, error)
}

// BootFailureReader inspects the OS event log for evidence that the
// supervised service failed to start during the current boot.
// BootFailureReader 检查操作系统事件日志，寻找被监管服务在本次开机期间启动
// 失败的证据。
type BootFailureReader interface {
	StartTimeoutAtBoot(ctx context.Context) (bool, error)
}

// Decision is the outcome of one guard evaluation.
// Decision 是一次守卫评估的结果。
type Decision struct {
	// Restarted reports whether a restart was issued / 是否发出了重启
	Restarted bool

	// Reason is the human-readable branch taken / 所走分支的人类可读描述
	Reason string
}

// Guard applies the three-branch restart policy. It is evaluated exactly once
// per watchdog run; there is no retry loop.
// Guard 应用三分支重启策略。每次看门狗运行只评估一次；没有重试循环。
type Guard struct {
	svc    ServiceController
	events BootFailureReader
	logger *zap.Logger
}

// New creates a Guard over the given service controller and event log reader.
// New 基于给定的服务控制器和事件日志读取器创建一个 Guard。
func New(svc ServiceController, events BootFailureReader, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{svc: svc, events: events, logger: logger}
}

// Apply evaluates the restart policy for a service whose state file went
// stale:
// Apply 对状态文件已过期的服务评估重启策略：
//
//  1. running  -> restart (running but unresponsive) / 运行中 -> 重启（在运行但无响应）
//  2. stopped, failed at boot -> restart / 已停止且开机启动失败 -> 重启
//  3. stopped otherwise -> leave alone / 其他情况下已停止 -> 不动
//
// A paused or otherwise indeterminate state also ends in branch 3's outcome,
// reported with its own reason.
// 暂停或其他不确定状态同样落入分支 3 的结果，但用单独的原因报告。
//
// A failing restart call is returned as an error; the run fails and the next
// scheduled tick retries implicitly.
// 重启调用失败将作为错误返回；本次运行失败，下一个调度周期会隐式重试。
func (g *Guard) Apply(ctx context.Context) (*Decision, error) {
	status, err := g.svc.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("guard: query service status: %w", err)
	}

	if status == StatusRunning {
		if err := g.svc.Restart(ctx); err != nil {
			return nil, fmt.Errorf("guard: restart service: %w", err)
		}
		g.logger.Info("restarted unresponsive service",
			zap.String("previous_status", string(status)))
		return &Decision{Restarted: true, Reason: ReasonWasRunning}, nil
	}

	failedAtBoot, err := g.events.StartTimeoutAtBoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("guard: query boot failure evidence: %w", err)
	}

	if failedAtBoot {
		if err := g.svc.Restart(ctx); err != nil {
			return nil, fmt.Errorf("guard: restart service: %w", err)
		}
		g.logger.Info("restarted service that failed at boot")
		return &Decision{Restarted: true, Reason: ReasonFailedAtBoot}, nil
	}

	if status == StatusStopped {
		g.logger.Info("service stopped with no boot failure evidence, leaving it alone")
		return &Decision{Restarted: false, Reason: ReasonOperatorStop}, nil
	}

	// Paused or otherwise indeterminate: not stopped by an operator, but also
	// not safely restartable on a staleness signal alone.
	// 暂停或其他不确定状态：不是操作员停止的，但仅凭过期信号也不能安全重启。
	g.logger.Info("service in unexpected state, leaving it alone",
		zap.String("status", string(status)))
	return &Decision{Restarted: false, Reason: fmt.Sprintf("%s (%s)", ReasonUnexpectedState, status)}, nil
}
