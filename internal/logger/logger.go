package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Croco1609/collectorPerso/internal/config"
)

// Logger es la interfaz que usan los paquetes de la app.
// Los argumentos variádicos son pares clave/valor, como en zap.SugaredLogger.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
	With(keysAndValues ...any) Logger
	Sync() error
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// New construye un logger JSON hacia stdout y, si hay Filename, hacia un archivo rotado.
func New(cfg config.Logger, service, env string) (Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logger.New: parse level: %w", err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if cfg.Filename != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   true,
		}))
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(sinks...),
		level,
	)

	return FromZap(zap.New(core,
		zap.Fields(
			zap.String("service", service),
			zap.String("env", env),
		),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zap.ErrorLevel),
	)), nil
}

// FromZap adapta un *zap.Logger existente (útil con zaptest/observer).
func FromZap(logger *zap.Logger) Logger {
	return &zapLogger{sugar: logger.Sugar()}
}

// NewNop devuelve un logger que descarta todo.
func NewNop() Logger {
	return FromZap(zap.NewNop())
}

func (logger *zapLogger) Debugw(msg string, keysAndValues ...any) {
	logger.sugar.Debugw(msg, keysAndValues...)
}

func (logger *zapLogger) Infow(msg string, keysAndValues ...any) {
	logger.sugar.Infow(msg, keysAndValues...)
}

func (logger *zapLogger) Warnw(msg string, keysAndValues ...any) {
	logger.sugar.Warnw(msg, keysAndValues...)
}

func (logger *zapLogger) Errorw(msg string, keysAndValues ...any) {
	logger.sugar.Errorw(msg, keysAndValues...)
}

func (logger *zapLogger) With(keysAndValues ...any) Logger {
	return &zapLogger{sugar: logger.sugar.With(keysAndValues...)}
}

func (logger *zapLogger) Sync() error {
	return logger.sugar.Sync()
}
