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

// Package winsvc controls the supervised service through the Windows Service
// Control Manager.
// winsvc 包通过 Windows 服务控制管理器控制被监管服务。
//
// It implements the guard.ServiceController capability. Only the Windows
// build talks to the SCM; on other platforms every operation reports
// ErrUnsupportedPlatform so the rest of the module still compiles and tests.
// 它实现 guard.ServiceController 能力。只有 Windows 构建与 SCM 通信；
// 其他平台上每个操作都报告 ErrUnsupportedPlatform，以便模块其余部分仍可
// 编译和测试。
package winsvc

import (
	"errors"
	"time"
)

// ErrUnsupportedPlatform indicates the service manager is only reachable on
// Windows.
// ErrUnsupportedPlatform 表示服务管理器只能在 Windows 上访问。
var ErrUnsupportedPlatform = errors.New("winsvc: service control is only supported on windows")

// DefaultStopTimeout is how long Restart waits for the service to reach the
// stopped state before giving up.
// DefaultStopTimeout 是 Restart 放弃前等待服务进入已停止状态的时长。
const DefaultStopTimeout = 30 * time.Second
