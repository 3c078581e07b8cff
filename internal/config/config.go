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

// Package config provides configuration management for the watchdog.
// config 包提供看门狗的配置管理功能。
//
// Configuration loading priority (highest to lowest):
// 配置加载优先级（从高到低）：
// 1. Command line arguments / 命令行参数
// 2. Environment variables / 环境变量
// 3. Configuration file / 配置文件
// 4. Default values / 默认值
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default configuration values
// 默认配置值
const (
	DefaultConfigPath  = `C:\Program Files\rport\watchdog.yaml`
	DefaultServiceName = "rport"
	DefaultStateFile   = `C:\Program Files\rport\data\state.json`
	DefaultBootWindow  = 10 * time.Minute
	DefaultTaskName    = "rport-watchdog"
	DefaultInterval    = 5 // minutes
	DefaultRunLogFile  = "watchdog.log"
	DefaultLogLevel    = "info"
	DefaultLogMaxSize  = 10 // MB
	DefaultLogBackups  = 3
	DefaultLogMaxAge   = 7 // days
	DefaultHistoryPath = "watchdog-history.db"
	DefaultHistoryKeep = 1000
)

// Configuration errors, surfaced to the operator on stderr
// 配置错误，输出到操作员的 stderr
var (
	// ErrThresholdRequired indicates the staleness threshold is missing or zero.
	// ErrThresholdRequired 表示缺少过期阈值或阈值为零。
	ErrThresholdRequired = errors.New("config: threshold must be a positive number of seconds")

	// ErrServiceNameRequired indicates no supervised service is configured.
	// ErrServiceNameRequired 表示未配置被监管的服务。
	ErrServiceNameRequired = errors.New("config: watchdog.service_name is required")
)

// Config is the full, immutable watchdog configuration. It is loaded once at
// startup and passed down explicitly; there are no process-wide mutable
// settings.
// Config 是完整的、不可变的看门狗配置。它在启动时加载一次并显式向下传递；
// 不存在进程级的可变设置。
type Config struct {
	// Watchdog contains the health-check settings / 健康检查设置
	Watchdog WatchdogConfig `mapstructure:"watchdog" yaml:"watchdog"`

	// Task contains the scheduled-task settings / 计划任务设置
	Task TaskConfig `mapstructure:"task" yaml:"task"`

	// RunLog contains the per-run plain-text log settings / 每次运行的纯文本日志设置
	RunLog RunLogConfig `mapstructure:"run_log" yaml:"run_log"`

	// Log contains the structured log settings / 结构化日志设置
	Log LogConfig `mapstructure:"log" yaml:"log"`

	// History contains the check-history store settings / 检查历史存储设置
	History HistoryConfig `mapstructure:"history" yaml:"history"`
}

// WatchdogConfig contains the health-check settings.
// WatchdogConfig 包含健康检查设置。
type WatchdogConfig struct {
	// Threshold is the maximum allowed staleness of the state file, in
	// seconds. An elapsed time strictly greater than the threshold marks
	// the service as hung.
	// Threshold 是状态文件允许的最大过期时间（秒）。经过时间严格大于阈值
	// 时，服务被判定为挂起。
	Threshold int `mapstructure:"threshold" yaml:"threshold"`

	// ServiceName is the name of the supervised Windows service.
	// ServiceName 是被监管的 Windows 服务名称。
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`

	// StateFile is the JSON state file written by the supervised service.
	// StateFile 是被监管服务写入的 JSON 状态文件。
	StateFile string `mapstructure:"state_file" yaml:"state_file"`

	// BootWindow is how long after system boot a recorded service start
	// failure still counts as boot-failure evidence.
	// BootWindow 是系统启动后多长时间内记录的服务启动失败仍算作启动失败证据的时长。
	BootWindow time.Duration `mapstructure:"boot_window" yaml:"boot_window"`
}

// TaskConfig contains the scheduled-task settings.
// TaskConfig 包含计划任务设置。
type TaskConfig struct {
	// Name is the scheduled task name / 计划任务名称
	Name string `mapstructure:"name" yaml:"name"`

	// Interval is the task repetition interval in minutes / 任务重复间隔（分钟）
	Interval int `mapstructure:"interval" yaml:"interval"`
}

// RunLogConfig contains the per-run plain-text log settings. The run log is
// truncated at the start of every unattended run and is a stable interface
// for external tooling that tails it.
// RunLogConfig 包含每次运行的纯文本日志设置。运行日志在每次无人值守运行开始
// 时被截断，是供外部工具跟踪的稳定接口。
type RunLogConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	File    string `mapstructure:"file" yaml:"file"`
}

// LogConfig contains structured logging settings.
// LogConfig 包含结构化日志设置。
type LogConfig struct {
	// Level is the log level (debug, info, warn, error)
	// Level 是日志级别（debug, info, warn, error）
	Level string `mapstructure:"level" yaml:"level"`

	// File is the log file path; empty means console only
	// File 是日志文件路径；为空表示仅输出到控制台
	File string `mapstructure:"file" yaml:"file"`

	// MaxSize is the maximum size of the log file in MB before rotation
	// MaxSize 是日志文件轮转前的最大大小（MB）
	MaxSize int `mapstructure:"max_size" yaml:"max_size"`

	// MaxBackups is the maximum number of rotated files to retain
	// MaxBackups 是保留的轮转文件的最大数量
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`

	// MaxAge is the maximum number of days to retain rotated files
	// MaxAge 是保留轮转文件的最大天数
	MaxAge int `mapstructure:"max_age" yaml:"max_age"`
}

// HistoryConfig contains the check-history store settings.
// HistoryConfig 包含检查历史存储设置。
type HistoryConfig struct {
	// Enabled turns the SQLite history store on or off / 开关 SQLite 历史存储
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Path is the SQLite database file / SQLite 数据库文件
	Path string `mapstructure:"path" yaml:"path"`

	// Keep is the maximum number of records retained / 保留的最大记录数
	Keep int `mapstructure:"keep" yaml:"keep"`
}

// Load loads configuration from file and environment variables.
// Load 从文件和环境变量加载配置。
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values / 设置默认值
	setDefaults(v)

	// Set config file path / 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Check environment variable / 检查环境变量
		envPath := os.Getenv("WATCHDOG_CONFIG_PATH")
		if envPath != "" {
			v.SetConfigFile(envPath)
		} else {
			v.SetConfigFile(DefaultConfigPath)
		}
	}

	// Enable environment variable override / 启用环境变量覆盖
	v.SetEnvPrefix("WATCHDOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file; a missing file is fine, the defaults carry a full
	// working configuration.
	// 读取配置文件；文件缺失没有问题，默认值构成完整可用的配置。
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Unmarshal config / 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
// setDefaults 设置默认配置值。
func setDefaults(v *viper.Viper) {
	// Watchdog defaults / 看门狗默认值
	v.SetDefault("watchdog.threshold", 0)
	v.SetDefault("watchdog.service_name", DefaultServiceName)
	v.SetDefault("watchdog.state_file", DefaultStateFile)
	v.SetDefault("watchdog.boot_window", DefaultBootWindow)

	// Task defaults / 任务默认值
	v.SetDefault("task.name", DefaultTaskName)
	v.SetDefault("task.interval", DefaultInterval)

	// Run log defaults / 运行日志默认值
	v.SetDefault("run_log.enabled", true)
	v.SetDefault("run_log.file", DefaultRunLogFile)

	// Log defaults / 日志默认值
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogBackups)
	v.SetDefault("log.max_age", DefaultLogMaxAge)

	// History defaults / 历史默认值
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", DefaultHistoryPath)
	v.SetDefault("history.keep", DefaultHistoryKeep)
}

// Validate validates the configuration common to all commands. The staleness
// threshold is validated separately by ValidateThreshold because the task
// management commands do not need it.
// Validate 验证所有命令共用的配置。过期阈值由 ValidateThreshold 单独验证，
// 因为任务管理命令不需要它。
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Watchdog.ServiceName) == "" {
		return ErrServiceNameRequired
	}

	if strings.TrimSpace(c.Task.Name) == "" {
		return errors.New("config: task.name is required")
	}
	if c.Task.Interval < 1 {
		return fmt.Errorf("config: task.interval must be at least 1 minute, got %d", c.Task.Interval)
	}

	if c.Watchdog.BootWindow <= 0 {
		return fmt.Errorf("config: watchdog.boot_window must be positive, got %v", c.Watchdog.BootWindow)
	}

	// Validate log level / 验证日志级别
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("config: invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	if c.History.Enabled && c.History.Keep < 1 {
		return fmt.Errorf("config: history.keep must be at least 1, got %d", c.History.Keep)
	}

	return nil
}

// ValidateThreshold validates the staleness threshold. Required before a
// health check or a task registration.
// ValidateThreshold 验证过期阈值。在健康检查或任务注册前必须通过。
func (c *Config) ValidateThreshold() error {
	if c.Watchdog.Threshold <= 0 {
		return ErrThresholdRequired
	}
	return nil
}

// String returns a string representation of the config (for debugging).
// String 返回配置的字符串表示（用于调试）。
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Service: %s, Threshold: %ds, StateFile: %s, Task: %s/%dm}",
		c.Watchdog.ServiceName,
		c.Watchdog.Threshold,
		c.Watchdog.StateFile,
		c.Task.Name,
		c.Task.Interval,
	)
}

// ToYAML serializes the configuration to YAML format.
// ToYAML 将配置序列化为 YAML 格式。
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}
