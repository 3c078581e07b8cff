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

// Package winevent reads the Windows System event log for evidence that the
// supervised service failed to start during the current boot.
// winevent 包读取 Windows 系统事件日志，寻找被监管服务在本次开机期间启动
// 失败的证据。
//
// This package provides:
// 此包提供：
// - Raw EVENTLOGRECORD parsing (portable, tested everywhere) / 原始 EVENTLOGRECORD 解析（可移植，处处可测）
// - Boot-window filtering for SCM start-failure events / 针对 SCM 启动失败事件的开机时间窗过滤
// - The guard.BootFailureReader implementation (Windows only) / guard.BootFailureReader 实现（仅 Windows）
package winevent

import (
	"errors"
	"strings"
	"time"
)

// Service Control Manager event identity
// 服务控制管理器事件标识
const (
	// scmSource is the provider name of Service Control Manager records.
	// scmSource 是服务控制管理器记录的提供者名称。
	scmSource = "Service Control Manager"

	// EventIDStartFailed is logged when a service fails to start.
	// EventIDStartFailed 在服务启动失败时记录。
	EventIDStartFailed = 7000

	// EventIDStartTimeout is logged when a service does not answer the start
	// request in time.
	// EventIDStartTimeout 在服务未及时响应启动请求时记录。
	EventIDStartTimeout = 7009
)

// ErrUnsupportedPlatform indicates the event log is only reachable on Windows.
// ErrUnsupportedPlatform 表示事件日志只能在 Windows 上访问。
var ErrUnsupportedPlatform = errors.New("winevent: event log access is only supported on windows")

// record is one decoded event log record, reduced to the fields the watchdog
// filters on.
// record 是一条解码后的事件日志记录，精简为看门狗过滤所需的字段。
type record struct {
	// EventID is the full event identifier; the code is its low 16 bits.
	// EventID 是完整事件标识符；其低 16 位为事件代码。
	EventID uint32

	// Source is the provider name / 提供者名称
	Source string

	// Generated is the event generation time / 事件生成时间
	Generated time.Time

	// Strings are the insertion strings; for SCM start failures one of them
	// names the affected service.
	// Strings 是插入字符串；对 SCM 启动失败事件，其中之一是受影响的服务名。
	Strings []string
}

// isBootStartFailure reports whether the record is an SCM start-failure event
// for the named service, generated inside [boot, boot+window].
// isBootStartFailure 报告该记录是否是指定服务在 [boot, boot+window] 内生成的
// SCM 启动失败事件。
func isBootStartFailure(r record, service string, boot time.Time, window time.Duration) bool {
	code := r.EventID & 0xFFFF
	if code != EventIDStartFailed && code != EventIDStartTimeout {
		return false
	}
	if r.Source != scmSource {
		return false
	}
	if r.Generated.Before(boot) || r.Generated.After(boot.Add(window)) {
		return false
	}
	for _, s := range r.Strings {
		if strings.EqualFold(strings.TrimSpace(s), service) {
			return true
		}
	}
	return false
}
