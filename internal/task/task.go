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

// Package task registers the watchdog as a periodic Windows scheduled task.
// task 包将看门狗注册为周期性的 Windows 计划任务。
//
// This package provides:
// 此包提供：
// - Idempotent task registration from a generated Task Scheduler XML / 基于生成的任务计划程序 XML 的幂等任务注册
// - Idempotent task removal / 幂等的任务移除
// - Task status reporting (state, last run, last result) / 任务状态报告（状态、上次运行、上次结果）
//
// The implementation drives schtasks.exe through a CommandRunner so the
// logic is fully testable without a Windows host.
// 实现通过 CommandRunner 驱动 schtasks.exe，因此逻辑无需 Windows 主机即可
// 完整测试。
package task

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// ResultNotYetRun is the schtasks "Last Result" value of a task that has
// never run (0x41303). It is informational, not a failure.
// ResultNotYetRun 是从未运行过的任务的 schtasks "Last Result" 值（0x41303）。
// 它是提示信息，不是失败。
const ResultNotYetRun = 0x41303

// Registration precondition errors
// 注册前置条件错误
var (
	// ErrWrongWorkingDir indicates registration was attempted outside the
	// install directory.
	// ErrWrongWorkingDir 表示在安装目录之外尝试注册。
	ErrWrongWorkingDir = errors.New("task: register must run from the install directory")

	// ErrStateFileMissing indicates the supervised service has not produced
	// a state file yet, so its watchdog integration is not enabled.
	// ErrStateFileMissing 表示被监管服务尚未产生状态文件，其看门狗集成尚未
	// 启用。
	ErrStateFileMissing = errors.New("task: state file not found, enable the watchdog integration of the supervised service first")
)

// Scheduler manages the periodic scheduled task that invokes the watchdog.
// Scheduler 管理周期性调用看门狗的计划任务。
type Scheduler interface {
	// Register creates the task, replacing any existing task of the same
	// name.
	// Register 创建任务，替换任何同名的现有任务。
	Register(ctx context.Context) error

	// Unregister removes the task; removing an absent task is not an error.
	// Unregister 移除任务；移除不存在的任务不算错误。
	Unregister(ctx context.Context) error

	// Status reports whether the task is registered and how its last run
	// went.
	// Status 报告任务是否已注册以及上次运行的情况。
	Status(ctx context.Context) (*Status, error)
}

// Status describes the scheduled task as reported by the OS scheduler.
// Status 描述操作系统调度器报告的计划任务。
type Status struct {
	// Registered reports whether the task exists at all / 任务是否存在
	Registered bool

	// State is the scheduler's task state (Ready, Running, Disabled)
	// State 是调度器的任务状态（Ready、Running、Disabled）
	State string

	// LastRunTime is the last invocation time; zero if never run or
	// unparseable.
	// LastRunTime 是上次调用时间；从未运行或无法解析时为零值。
	LastRunTime time.Time

	// NextRunTime is the next planned invocation; zero if unknown.
	// NextRunTime 是下次计划调用；未知时为零值。
	NextRunTime time.Time

	// LastResult is the raw result code of the last run.
	// LastResult 是上次运行的原始结果代码。
	LastResult int64
}

// NeverRan reports whether the task has not been invoked yet.
// NeverRan 报告任务是否尚未被调用过。
func (s *Status) NeverRan() bool {
	return s.LastResult == ResultNotYetRun
}

// NeedsAttention reports whether the last run finished with a real failure
// code.
// NeedsAttention 报告上次运行是否以真正的失败代码结束。
func (s *Status) NeedsAttention() bool {
	return s.Registered && s.LastResult != 0 && !s.NeverRan()
}

// CommandRunner executes an external command and returns its combined
// output. Faked in tests.
// CommandRunner 执行外部命令并返回其合并输出。测试中使用伪实现。
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner is the production CommandRunner backed by os/exec.
// ExecRunner 是基于 os/exec 的生产 CommandRunner。
type ExecRunner struct{}

// Run executes the command and returns stdout and stderr combined.
// Run 执行命令并返回合并的 stdout 与 stderr。
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
