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

package task

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Options describes the task to register.
// Options 描述要注册的任务。
type Options struct {
	// TaskName is the scheduled task name / 计划任务名称
	TaskName string

	// ServiceName is the supervised service, for the task description
	// ServiceName 是被监管的服务，用于任务描述
	ServiceName string

	// Interval is the repetition interval in minutes / 重复间隔（分钟）
	Interval int

	// Threshold is the staleness threshold in seconds, baked into the task's
	// command line
	// Threshold 是过期阈值（秒），固化到任务的命令行中
	Threshold int

	// Executable is the absolute path of the watchdog binary
	// Executable 是看门狗二进制程序的绝对路径
	Executable string

	// ConfigPath is the config file to pass through; empty for defaults
	// ConfigPath 是要透传的配置文件；为空则使用默认值
	ConfigPath string

	// StateFile must exist before registration / 注册前必须存在的状态文件
	StateFile string
}

// arguments renders the command line the scheduler will invoke. The config
// path is wrapped in plain quotes; Go-style quoting would double every
// backslash in the registered command line.
// arguments 渲染调度器将调用的命令行。配置路径用普通引号包裹；Go 风格的
// 引用会使注册的命令行中每个反斜杠翻倍。
func (o Options) arguments() string {
	args := fmt.Sprintf("check --threshold %d", o.Threshold)
	if o.ConfigPath != "" {
		args += ` --config "` + o.ConfigPath + `"`
	}
	return args
}

// installDir is the directory holding the watchdog binary.
// installDir 是存放看门狗二进制程序的目录。
func (o Options) installDir() string {
	return filepath.Dir(o.Executable)
}

// Schtasks is the schtasks.exe-backed Scheduler.
// Schtasks 是基于 schtasks.exe 的 Scheduler。
type Schtasks struct {
	opts   Options
	runner CommandRunner
	logger *zap.Logger

	now        func() time.Time
	getwd      func() (string, error)
	fileExists func(string) bool
}

// NewSchtasks creates a Schtasks scheduler. A nil runner uses ExecRunner.
// NewSchtasks 创建一个 Schtasks 调度器。runner 为 nil 时使用 ExecRunner。
func NewSchtasks(opts Options, runner CommandRunner, logger *zap.Logger) *Schtasks {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Schtasks{
		opts:   opts,
		runner: runner,
		logger: logger,
		now:    time.Now,
		getwd:  os.Getwd,
		fileExists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}
}

// SetNow overrides the clock, for tests.
// SetNow 覆盖时钟，用于测试。
func (s *Schtasks) SetNow(now func() time.Time) { s.now = now }

// SetGetwd overrides the working directory lookup, for tests.
// SetGetwd 覆盖工作目录查询，用于测试。
func (s *Schtasks) SetGetwd(getwd func() (string, error)) { s.getwd = getwd }

// SetFileExists overrides the state file existence check, for tests.
// SetFileExists 覆盖状态文件存在性检查，用于测试。
func (s *Schtasks) SetFileExists(exists func(string) bool) { s.fileExists = exists }

// Register creates the scheduled task, replacing any existing task of the
// same name. Preconditions: the process must run from the install directory,
// and the supervised service must already produce a state file.
// Register 创建计划任务，替换任何同名的现有任务。前置条件：进程必须在安装
// 目录中运行，且被监管服务必须已经产生状态文件。
func (s *Schtasks) Register(ctx context.Context) error {
	cwd, err := s.getwd()
	if err != nil {
		return fmt.Errorf("task: working directory: %w", err)
	}
	if !sameDir(cwd, s.opts.installDir()) {
		return fmt.Errorf("%w (run from %s, not %s)", ErrWrongWorkingDir, s.opts.installDir(), cwd)
	}
	if !s.fileExists(s.opts.StateFile) {
		return fmt.Errorf("%w: %s", ErrStateFileMissing, s.opts.StateFile)
	}

	// Replace any previous registration so re-registering updates the
	// threshold instead of stacking tasks.
	// 替换任何先前的注册，使重新注册更新阈值而不是堆叠任务。
	if err := s.Unregister(ctx); err != nil {
		return err
	}

	definition, err := buildTaskXML(s.opts, s.now())
	if err != nil {
		return err
	}

	f, err := os.CreateTemp("", "rport-watchdog-*.xml")
	if err != nil {
		return fmt.Errorf("task: temp task definition: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if _, err := f.Write(definition); err != nil {
		_ = f.Close()
		return fmt.Errorf("task: write task definition: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("task: write task definition: %w", err)
	}

	out, err := s.runner.Run(ctx, "schtasks", "/Create", "/TN", s.opts.TaskName, "/XML", f.Name(), "/F")
	if err != nil {
		return fmt.Errorf("task: create %q: %w: %s", s.opts.TaskName, err, firstLine(out))
	}

	s.logger.Info("scheduled task registered",
		zap.String("task", s.opts.TaskName),
		zap.Int("interval_minutes", s.opts.Interval),
		zap.Int("threshold_seconds", s.opts.Threshold))
	return nil
}

// Unregister removes the scheduled task. An absent task is not an error.
// Unregister 移除计划任务。任务不存在不算错误。
func (s *Schtasks) Unregister(ctx context.Context) error {
	out, err := s.runner.Run(ctx, "schtasks", "/Delete", "/TN", s.opts.TaskName, "/F")
	if err != nil {
		if taskMissing(out) {
			return nil
		}
		return fmt.Errorf("task: delete %q: %w: %s", s.opts.TaskName, err, firstLine(out))
	}

	s.logger.Info("scheduled task removed", zap.String("task", s.opts.TaskName))
	return nil
}

// Status queries the scheduler for the task's registration and last-run
// information.
// Status 向调度器查询任务的注册情况与上次运行信息。
func (s *Schtasks) Status(ctx context.Context) (*Status, error) {
	out, err := s.runner.Run(ctx, "schtasks", "/Query", "/TN", s.opts.TaskName, "/V", "/FO", "CSV")
	if err != nil {
		if taskMissing(out) {
			return &Status{Registered: false}, nil
		}
		return nil, fmt.Errorf("task: query %q: %w: %s", s.opts.TaskName, err, firstLine(out))
	}
	return parseQueryCSV(out)
}

// parseQueryCSV extracts the status fields from "schtasks /Query /V /FO CSV"
// output (a header row plus one value row).
// parseQueryCSV 从 "schtasks /Query /V /FO CSV" 的输出（表头行加一条数据行）
// 中提取状态字段。
func parseQueryCSV(out []byte) (*Status, error) {
	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("task: parse query output: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("task: unexpected query output: %d rows", len(rows))
	}

	// Map header names to the value row / 将表头名映射到数据行
	fields := make(map[string]string, len(rows[0]))
	for i, h := range rows[0] {
		if i < len(rows[1]) {
			fields[strings.ToLower(strings.TrimSpace(h))] = strings.TrimSpace(rows[1][i])
		}
	}

	st := &Status{
		Registered:  true,
		State:       fields["status"],
		LastRunTime: parseSchtasksTime(fields["last run time"]),
		NextRunTime: parseSchtasksTime(fields["next run time"]),
	}
	if v, err := strconv.ParseInt(fields["last result"], 10, 64); err == nil {
		st.LastResult = v
	}
	return st, nil
}

// schtasksTimeLayouts are the date-time renderings seen across locales. An
// unknown rendering degrades to a zero time; the timestamps are informational.
// schtasksTimeLayouts 是不同区域设置下见到的日期时间格式。未知格式退化为零
// 值时间；这些时间戳仅供参考。
var schtasksTimeLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
}

func parseSchtasksTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "N/A") {
		return time.Time{}
	}
	for _, layout := range schtasksTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// taskMissing reports whether schtasks failed because the task does not
// exist.
// taskMissing 报告 schtasks 失败是否因为任务不存在。
func taskMissing(out []byte) bool {
	return strings.Contains(strings.ToLower(string(out)), "cannot find")
}

// sameDir compares two directory paths the way Windows does: cleaned and
// case-insensitive.
// sameDir 以 Windows 的方式比较两个目录路径：规范化且不区分大小写。
func sameDir(a, b string) bool {
	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}

// firstLine trims command output to its first non-empty line for error
// messages.
// firstLine 将命令输出截取为第一条非空行，用于错误消息。
func firstLine(out []byte) string {
	for _, line := range strings.Split(string(out), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}
