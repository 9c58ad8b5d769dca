package logging

import (
	"log"
	"os"
	"strconv"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger provides a new logger based on the environment type.
// When LOG_FILE is set, output is also written to that file and rotated.
func NewLogger() *zap.SugaredLogger {
	dev, _ := strconv.ParseBool(os.Getenv("DEBUG"))

	var l *zap.Logger
	var err error

	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		// Just blow up for now
		log.Fatalf("error creating logger: %s", err)
	}

	if path := os.Getenv("LOG_FILE"); path != "" {
		l = l.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore(path, dev))
		}))
	}

	return l.Sugar()
}

func fileCore(path string, dev bool) zapcore.Core {
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
	})

	level := zap.InfoLevel
	encCfg := zap.NewProductionEncoderConfig()
	if dev {
		level = zap.DebugLevel
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, level)
}
