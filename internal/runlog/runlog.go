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

// Package runlog writes the per-run plain-text log.
// runlog 包写入每次运行的纯文本日志。
//
// The file is truncated at the start of every unattended run and holds lines
// of the form "<timestamp>: <message>". The format is a stable interface:
// external tooling tails and greps this file, so structured logging lives
// elsewhere (zap) and this package stays deliberately plain.
// 文件在每次无人值守运行开始时被截断，保存形如 "<时间戳>: <消息>" 的行。
// 该格式是稳定接口：外部工具会跟踪和检索此文件，因此结构化日志放在别处
// （zap），本包刻意保持朴素。
package runlog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// timeLayout is the timestamp prefix layout of every line.
// timeLayout 是每行时间戳前缀的格式。
const timeLayout = "2006-01-02 15:04:05"

// Log is a truncate-on-open line logger. A nil file means the log is
// disabled and lines are dropped.
// Log 是打开即截断的行日志器。file 为 nil 表示日志被禁用，行会被丢弃。
type Log struct {
	mu  sync.Mutex
	f   *os.File
	now func() time.Time
}

// Open truncates (or creates) the log file at path and returns a Log
// writing to it.
// Open 截断（或创建）path 处的日志文件，并返回写入它的 Log。
func Open(path string) (*Log, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("runlog: open %s: %w", path, err)
	}
	return &Log{f: f, now: time.Now}, nil
}

// Discard returns a Log that drops all lines, for when the run log is
// disabled in configuration.
// Discard 返回丢弃所有行的 Log，用于配置中禁用运行日志的情况。
func Discard() *Log {
	return &Log{now: time.Now}
}

// SetNow overrides the clock, for tests.
// SetNow 覆盖时钟，用于测试。
func (l *Log) SetNow(now func() time.Time) {
	l.now = now
}

// Printf appends one "<timestamp>: <message>" line.
// Printf 追加一行 "<时间戳>: <消息>"。
func (l *Log) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return
	}
	line := fmt.Sprintf("%s: %s\n", l.now().Format(timeLayout), fmt.Sprintf(format, args...))
	// A failed write must not abort the run; the run log is best effort.
	// 写入失败不得中止运行；运行日志是尽力而为的。
	_, _ = l.f.WriteString(line)
}

// Close closes the underlying file.
// Close 关闭底层文件。
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
