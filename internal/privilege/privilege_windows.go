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

package privilege

import "golang.org/x/sys/windows"

// Elevated reports whether the process token carries administrator rights.
// Elevated 报告进程令牌是否带有管理员权限。
func Elevated() (bool, error) {
	return windows.GetCurrentProcessToken().IsElevated(), nil
}

// Require returns ErrNotElevated unless the process runs elevated.
// Require 在进程未提升运行时返回 ErrNotElevated。
func Require() error {
	elevated, err := Elevated()
	if err != nil {
		return err
	}
	if !elevated {
		return ErrNotElevated
	}
	return nil
}
