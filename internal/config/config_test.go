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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults tests that a missing config file yields a complete
// working configuration
// TestLoad_Defaults 测试配置文件缺失时得到完整可用的配置
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultServiceName, cfg.Watchdog.ServiceName)
	assert.Equal(t, DefaultStateFile, cfg.Watchdog.StateFile)
	assert.Equal(t, DefaultBootWindow, cfg.Watchdog.BootWindow)
	assert.Equal(t, DefaultTaskName, cfg.Task.Name)
	assert.Equal(t, DefaultInterval, cfg.Task.Interval)
	assert.True(t, cfg.RunLog.Enabled)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, DefaultHistoryKeep, cfg.History.Keep)

	// The threshold has no safe default; it must be set explicitly.
	// 阈值没有安全的默认值；必须显式设置。
	assert.Zero(t, cfg.Watchdog.Threshold)
	assert.NoError(t, cfg.Validate())
	assert.ErrorIs(t, cfg.ValidateThreshold(), ErrThresholdRequired)
}

// TestLoad_FromFile tests loading configuration from a YAML file
// TestLoad_FromFile 测试从 YAML 文件加载配置
func TestLoad_FromFile(t *testing.T) {
	content := `
watchdog:
  threshold: 600
  service_name: myservice
  state_file: C:\data\state.json
  boot_window: 15m
task:
  name: myservice-watchdog
  interval: 10
run_log:
  enabled: false
log:
  level: debug
history:
  enabled: true
  keep: 50
`
	path := filepath.Join(t.TempDir(), "watchdog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 600, cfg.Watchdog.Threshold)
	assert.Equal(t, "myservice", cfg.Watchdog.ServiceName)
	assert.Equal(t, `C:\data\state.json`, cfg.Watchdog.StateFile)
	assert.Equal(t, 15*time.Minute, cfg.Watchdog.BootWindow)
	assert.Equal(t, "myservice-watchdog", cfg.Task.Name)
	assert.Equal(t, 10, cfg.Task.Interval)
	assert.False(t, cfg.RunLog.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 50, cfg.History.Keep)

	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateThreshold())
}

// TestLoad_MalformedFile tests that a broken config file is an error
// TestLoad_MalformedFile 测试损坏的配置文件会报错
func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("watchdog: [broken"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

// TestValidate tests configuration validation rules
// TestValidate 测试配置验证规则
func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Watchdog: WatchdogConfig{
				Threshold:   300,
				ServiceName: "rport",
				StateFile:   DefaultStateFile,
				BootWindow:  DefaultBootWindow,
			},
			Task:    TaskConfig{Name: "rport-watchdog", Interval: 5},
			Log:     LogConfig{Level: "info"},
			History: HistoryConfig{Enabled: true, Keep: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty service name", func(c *Config) { c.Watchdog.ServiceName = "  " }, true},
		{"empty task name", func(c *Config) { c.Task.Name = "" }, true},
		{"zero interval", func(c *Config) { c.Task.Interval = 0 }, true},
		{"zero boot window", func(c *Config) { c.Watchdog.BootWindow = 0 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"history keep zero", func(c *Config) { c.History.Keep = 0 }, true},
		{"history keep ignored when disabled", func(c *Config) {
			c.History.Enabled = false
			c.History.Keep = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestValidateThreshold tests the threshold rule
// TestValidateThreshold 测试阈值规则
func TestValidateThreshold(t *testing.T) {
	cfg := &Config{}

	cfg.Watchdog.Threshold = -1
	assert.ErrorIs(t, cfg.ValidateThreshold(), ErrThresholdRequired)

	cfg.Watchdog.Threshold = 0
	assert.ErrorIs(t, cfg.ValidateThreshold(), ErrThresholdRequired)

	cfg.Watchdog.Threshold = 1
	assert.NoError(t, cfg.ValidateThreshold())
}

// TestToYAML tests serialization round trip
// TestToYAML 测试序列化往返
func TestToYAML(t *testing.T) {
	cfg := &Config{
		Watchdog: WatchdogConfig{Threshold: 300, ServiceName: "rport"},
	}

	out, err := cfg.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "threshold: 300")
	assert.Contains(t, string(out), "service_name: rport")
}

// TestString tests the debug representation
// TestString 测试调试用的字符串表示
func TestString(t *testing.T) {
	cfg := &Config{
		Watchdog: WatchdogConfig{Threshold: 300, ServiceName: "rport", StateFile: "s.json"},
		Task:     TaskConfig{Name: "rport-watchdog", Interval: 5},
	}
	s := cfg.String()
	assert.Contains(t, s, "rport")
	assert.Contains(t, s, "300")
}
