package logger

import (
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日志配置
type Config struct {
	Debug      bool   `mapstructure:"debug"`
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
	Console    bool   `mapstructure:"console"`
}

// Log 全局日志实例，未初始化时为 Nop，保证测试中可直接调用
var Log = zap.NewNop()

// Init 初始化全局日志
func Init(cfg Config) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	opts := []zap.Option{zap.AddCaller()}
	if cfg.Debug {
		encCfg = zap.NewDevelopmentEncoderConfig()
		level = zapcore.DebugLevel
		opts = append(opts, zap.Development())
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Debug {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	Log = zap.New(zapcore.NewCore(encoder, writer(cfg), level), opts...)
	return nil
}

func writer(cfg Config) zapcore.WriteSyncer {
	if cfg.Path == "" {
		return zapcore.AddSync(os.Stdout)
	}
	// 按大小切分
	rotate := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	})
	if cfg.Console {
		return zapcore.NewMultiWriteSyncer(rotate, zapcore.AddSync(os.Stdout))
	}
	return rotate
}

// Sync 刷新缓冲
func Sync() {
	_ = Log.Sync()
}
