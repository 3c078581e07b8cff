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

//go:build !windows

package winsvc

import (
	"context"

	"go.uber.org/zap"

	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/guard"
)

// Controller is the non-Windows stub; every operation reports
// ErrUnsupportedPlatform.
// Controller 是非 Windows 的占位实现；每个操作都报告 ErrUnsupportedPlatform。
type Controller struct {
	name string
}

// New creates the stub Controller.
// New 创建占位 Controller。
func New(name string, logger *zap.Logger) *Controller {
	return &Controller{name: name}
}

func (c *Controller) Installed(ctx context.Context) (bool, error) {
	return false, ErrUnsupportedPlatform
}

func (c *Controller) Status(ctx context.Context) (guard.ServiceStatus, error) {
	return guard.StatusUnknown, ErrUnsupportedPlatform
}

func (c *Controller) Restart(ctx context.Context) error {
	return ErrUnsupportedPlatform
}
