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

package winevent

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reader is the non-Windows stub; every query reports ErrUnsupportedPlatform.
// Reader 是非 Windows 的占位实现；每次查询都报告 ErrUnsupportedPlatform。
type Reader struct {
	service string
}

// NewReader creates the stub Reader.
// NewReader 创建占位 Reader。
func NewReader(service string, window time.Duration, logger *zap.Logger) *Reader {
	return &Reader{service: service}
}

func (r *Reader) StartTimeoutAtBoot(ctx context.Context) (bool, error) {
	return false, ErrUnsupportedPlatform
}
