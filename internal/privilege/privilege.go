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

// Package privilege answers whether the current process holds the elevated
// rights needed to control services and scheduled tasks.
// privilege 包回答当前进程是否持有控制服务和计划任务所需的提升权限。
package privilege

import "errors"

// ErrUnsupportedPlatform is returned on operating systems without a notion
// of token elevation.
// ErrUnsupportedPlatform 在没有令牌提升概念的操作系统上返回。
var ErrUnsupportedPlatform = errors.New("privilege: only supported on windows")

// ErrNotElevated is returned when the process lacks administrative rights.
// ErrNotElevated 在进程缺少管理员权限时返回。
var ErrNotElevated = errors.New("privilege: administrative rights required")
