package config

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	cftypes "centroidfinder/type"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	SourceVideo  = "video"
	SourceImage  = "image"
	SourceScreen = "screen"
)

// Config 为命令行、环境变量（CENTROID_*）和配置文件合并后的结果
type Config struct {
	Source        string        `mapstructure:"source"`
	Input         string        `mapstructure:"input"`
	Output        string        `mapstructure:"output"`
	TargetColor   string        `mapstructure:"target-color"`
	Threshold     float64       `mapstructure:"threshold"`
	FPS           float64       `mapstructure:"fps"`
	MaxWidth      int           `mapstructure:"width"`
	Parallel      int           `mapstructure:"parallel"`
	Serial        bool          `mapstructure:"serial"`
	Display       int           `mapstructure:"display"`
	Interval      time.Duration `mapstructure:"interval"`
	MaxFrames     int           `mapstructure:"max-frames"`
	ProgressEvery int           `mapstructure:"progress-every"`
	LogLevel      string        `mapstructure:"log-level"`
	LogFormat     string        `mapstructure:"log-format"`
	MetricsAddr   string        `mapstructure:"metrics-addr"`
	DebugFrame    int           `mapstructure:"debug-frame"`
	DebugDir      string        `mapstructure:"debug-dir"`
	RunID         string        `mapstructure:"run-id"`
}

func newFlagSet(out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("centroidfinder", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintln(out, "用法: centroidfinder [flags] [<input> <output> <targetColorHex> <threshold>]")
		fs.PrintDefaults()
	}

	fs.String("config", "", "配置文件路径（默认查找 ./centroidfinder.yaml）")
	fs.String("source", SourceVideo, "帧来源: video, image, screen")
	fs.String("input", "", "视频文件路径；image 模式下为 glob 模式")
	fs.String("output", "centroids.csv", "输出位置: 文件路径、s3://bucket/key 或 mysql:<dsn>")
	fs.String("target-color", "", "目标颜色，十六进制，例如 FF0000")
	fs.Float64("threshold", 0, "与目标颜色的最大欧氏距离")
	fs.Float64("fps", 0, "抽帧帧率，0 表示使用视频原始帧率")
	fs.Int("width", 0, "缩放后的最大宽度，0 表示不缩放")
	fs.Int("parallel", 4, "并行分析的最大协程数")
	fs.Bool("serial", false, "串行处理以最大程度减少内存使用")
	fs.Int("display", 0, "screen 模式下截取的显示器编号")
	fs.Duration("interval", time.Second, "image/screen 模式下相邻帧的时间间隔")
	fs.Int("max-frames", 0, "最多处理的帧数，0 表示不限（screen 模式必须设置）")
	fs.Int("progress-every", 30, "每处理多少帧输出一次进度")
	fs.String("log-level", "info", "日志级别: debug, info, warn, error")
	fs.String("log-format", "console", "日志格式: console 或 json")
	fs.String("metrics-addr", "", "Prometheus 指标监听地址，例如 :9090")
	fs.Int("debug-frame", -1, "为该帧输出诊断文件（掩码 PNG、轮廓 SVG、叠加 SVG）")
	fs.String("debug-dir", "debug", "诊断文件输出目录")
	fs.String("run-id", "", "写入 MySQL 时的运行标识，默认使用开始时间")
	return fs
}

// Load 解析参数并合并环境变量与配置文件。
// 兼容旧的位置参数形式: <input> <output> <targetColorHex> <threshold>
func Load(args []string, out io.Writer) (Config, error) {
	var cfg Config
	fs := newFlagSet(out)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return cfg, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix("CENTROID")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("centroidfinder")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	switch rest := fs.Args(); len(rest) {
	case 0:
	case 4:
		threshold, err := strconv.ParseFloat(rest[3], 64)
		if err != nil {
			return cfg, fmt.Errorf("threshold %q: %w", rest[3], err)
		}
		v.Set("input", rest[0])
		v.Set("output", rest[1])
		v.Set("target-color", rest[2])
		v.Set("threshold", threshold)
	default:
		return cfg, fmt.Errorf("expected 0 or 4 positional arguments, got %d", len(rest))
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Target 返回解析后的目标颜色
func (c Config) Target() (cftypes.Color, error) {
	return cftypes.ParseColor(c.TargetColor)
}

// Workers 返回分析协程数，serial 时为 1
func (c Config) Workers() int {
	if c.Serial || c.Parallel < 1 {
		return 1
	}
	return c.Parallel
}

func (c Config) Validate() error {
	switch c.Source {
	case SourceVideo, SourceImage:
		if c.Input == "" {
			return fmt.Errorf("%s source requires --input", c.Source)
		}
	case SourceScreen:
		if c.MaxFrames <= 0 {
			return errors.New("screen source requires --max-frames")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if c.Output == "" {
		return errors.New("output is required")
	}
	if _, err := c.Target(); err != nil {
		return err
	}
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be >= 0, got %v", c.Threshold)
	}
	if c.FPS < 0 {
		return fmt.Errorf("fps must be >= 0, got %v", c.FPS)
	}
	if c.ProgressEvery <= 0 {
		return fmt.Errorf("progress-every must be > 0, got %d", c.ProgressEvery)
	}
	return nil
}
