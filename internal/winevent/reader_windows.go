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

//go:build windows

package winevent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

// Legacy event log read flags (winnt.h)
// 旧版事件日志读取标志（winnt.h）
const (
	evtlogSequentialRead = 0x0001
	evtlogBackwardsRead  = 0x0008
)

// systemLog is the log the SCM writes service start failures to.
// systemLog 是 SCM 写入服务启动失败事件的日志。
const systemLog = "System"

// Reader is the Windows guard.BootFailureReader.
// Reader 是 Windows 的 guard.BootFailureReader。
type Reader struct {
	service string
	window  time.Duration
	logger  *zap.Logger
}

// NewReader creates a Reader for the named service. window bounds how long
// after boot a start failure still counts.
// NewReader 为指定服务创建一个 Reader。window 限定开机后多长时间内的启动
// 失败仍然有效。
func NewReader(service string, window time.Duration, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{service: service, window: window, logger: logger}
}

// StartTimeoutAtBoot walks the System log backwards (newest first) and
// reports whether an SCM start-failure event for the service was generated
// inside the boot window. The walk stops at the first record older than the
// boot instant.
// StartTimeoutAtBoot 从最新到最旧遍历系统日志，并报告被监管服务是否在开机
// 时间窗内生成过 SCM 启动失败事件。遍历在遇到第一条早于开机时刻的记录时
// 停止。
func (r *Reader) StartTimeoutAtBoot(ctx context.Context) (bool, error) {
	boot := bootTime()

	name, err := windows.UTF16PtrFromString(systemLog)
	if err != nil {
		return false, fmt.Errorf("winevent: log name: %w", err)
	}
	h, err := windows.OpenEventLog(nil, name)
	if err != nil {
		return false, fmt.Errorf("winevent: open %s log: %w", systemLog, err)
	}
	defer func() { _ = windows.CloseEventLog(h) }()

	buf := make([]byte, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		var read, needed uint32
		err := windows.ReadEventLog(h,
			evtlogBackwardsRead|evtlogSequentialRead,
			0, &buf[0], uint32(len(buf)), &read, &needed)
		if err != nil {
			if errors.Is(err, windows.ERROR_HANDLE_EOF) {
				// Whole log scanned without hitting the boot instant.
				// 扫描完整个日志也没有到达开机时刻。
				return false, nil
			}
			if errors.Is(err, windows.ERROR_INSUFFICIENT_BUFFER) {
				buf = make([]byte, needed)
				continue
			}
			return false, fmt.Errorf("winevent: read %s log: %w", systemLog, err)
		}

		for _, rec := range parseRecords(buf[:read]) {
			if rec.Generated.Before(boot) {
				return false, nil
			}
			if isBootStartFailure(rec, r.service, boot, r.window) {
				r.logger.Info("found boot-time start failure event",
					zap.Uint32("event_id", rec.EventID&0xFFFF),
					zap.Time("generated", rec.Generated))
				return true, nil
			}
		}
	}
}

// bootTime derives the boot instant from the tick counter.
// bootTime 通过滴答计数推算开机时刻。
func bootTime() time.Time {
	uptime := time.Duration(windows.GetTickCount64()) * time.Millisecond
	return time.Now().Add(-uptime)
}
