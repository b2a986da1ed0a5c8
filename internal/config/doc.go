// Package config 提供流水线引擎的配置管理功能。
// 支持从 YAML 文件、环境变量（PE_ 前缀）和命令行参数加载配置，
// 优先级顺序为：默认值 < YAML 文件 < 环境变量 < 命令行参数。
package config
