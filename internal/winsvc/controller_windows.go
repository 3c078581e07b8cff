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

package winsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/cloudradar-monitoring/rport-win-watchdog/internal/guard"
)

// Controller is the SCM-backed guard.ServiceController.
// Controller 是基于 SCM 的 guard.ServiceController。
type Controller struct {
	name        string
	stopTimeout time.Duration
	logger      *zap.Logger
}

// New creates a Controller for the named Windows service.
// New 为指定名称的 Windows 服务创建一个 Controller。
func New(name string, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		name:        name,
		stopTimeout: DefaultStopTimeout,
		logger:      logger,
	}
}

// open connects to the SCM and opens the supervised service. The caller must
// invoke the returned cleanup.
// open 连接 SCM 并打开被监管服务。调用方必须执行返回的清理函数。
func (c *Controller) open() (*mgr.Service, func(), error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, nil, fmt.Errorf("winsvc: connect to service manager: %w", err)
	}

	s, err := m.OpenService(c.name)
	if err != nil {
		_ = m.Disconnect()
		return nil, nil, fmt.Errorf("winsvc: open service %q: %w", c.name, err)
	}

	cleanup := func() {
		_ = s.Close()
		_ = m.Disconnect()
	}
	return s, cleanup, nil
}

// Installed reports whether the supervised service is registered with the SCM.
// Installed 报告被监管服务是否已在 SCM 中注册。
func (c *Controller) Installed(ctx context.Context) (bool, error) {
	m, err := mgr.Connect()
	if err != nil {
		return false, fmt.Errorf("winsvc: connect to service manager: %w", err)
	}
	defer func() { _ = m.Disconnect() }()

	s, err := m.OpenService(c.name)
	if err != nil {
		if errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
			return false, nil
		}
		return false, fmt.Errorf("winsvc: open service %q: %w", c.name, err)
	}
	_ = s.Close()
	return true, nil
}

// Status queries the current run state of the supervised service.
// Status 查询被监管服务的当前运行状态。
func (c *Controller) Status(ctx context.Context) (guard.ServiceStatus, error) {
	s, cleanup, err := c.open()
	if err != nil {
		return guard.StatusUnknown, err
	}
	defer cleanup()

	st, err := s.Query()
	if err != nil {
		return guard.StatusUnknown, fmt.Errorf("winsvc: query service %q: %w", c.name, err)
	}

	switch st.State {
	case svc.Running, svc.StartPending, svc.ContinuePending:
		return guard.StatusRunning, nil
	case svc.Stopped, svc.StopPending:
		return guard.StatusStopped, nil
	default:
		// Paused states are neither running nor deliberately stopped.
		// 暂停状态既不算运行中也不算有意停止。
		return guard.StatusUnknown, nil
	}
}

// Restart stops the service (waiting for it to reach the stopped state) and
// starts it again. A service that is already stopped is simply started.
// Restart 停止服务（等待其进入已停止状态）并重新启动。已停止的服务直接启动。
func (c *Controller) Restart(ctx context.Context) error {
	s, cleanup, err := c.open()
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := s.Query()
	if err != nil {
		return fmt.Errorf("winsvc: query service %q: %w", c.name, err)
	}

	if st.State != svc.Stopped {
		c.logger.Info("stopping service", zap.String("service", c.name))
		if _, err := s.Control(svc.Stop); err != nil {
			return fmt.Errorf("winsvc: stop service %q: %w", c.name, err)
		}
		if err := c.waitStopped(ctx, s); err != nil {
			return err
		}
	}

	c.logger.Info("starting service", zap.String("service", c.name))
	if err := s.Start(); err != nil {
		return fmt.Errorf("winsvc: start service %q: %w", c.name, err)
	}
	return nil
}

// waitStopped polls the service until it reports stopped or the stop timeout
// expires.
// waitStopped 轮询服务直到其报告已停止或停止超时到期。
func (c *Controller) waitStopped(ctx context.Context, s *mgr.Service) error {
	deadline := time.Now().Add(c.stopTimeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		st, err := s.Query()
		if err != nil {
			return fmt.Errorf("winsvc: query service %q: %w", c.name, err)
		}
		if st.State == svc.Stopped {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("winsvc: service %q did not stop within %v", c.name, c.stopTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
