package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// LoggingConfig selects console verbosity: none, normal or debug.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}

// Prepare returns the program logger writing to stderr. Errors are written
// without verbose details.
func (conf *LoggingConfig) Prepare() (*zap.Logger, error) {
	switch conf.Level {
	case "none", "normal", "debug":
	default:
		return nil, fmt.Errorf("unknown logging level %q", conf.Level)
	}
	w, color := zapcore.Lock(os.Stderr), EnableColorOutput(os.Stderr)
	return conf.build(w, color, w, color), nil
}

func (conf *LoggingConfig) build(out zapcore.WriteSyncer, outColor bool, errOut zapcore.WriteSyncer, errColor bool) *zap.Logger {
	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	var minLevel zapcore.Level
	switch conf.Level {
	case "normal":
		minLevel = zapcore.InfoLevel
	case "debug":
		minLevel = zapcore.DebugLevel
	default:
		return zap.NewNop()
	}

	coreLP := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig(outColor)), out,
		zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return minLevel <= lvl && lvl < zapcore.ErrorLevel
		}))
	coreHP := zapcore.NewCore(newEncoder(encoderConfig(errColor)), errOut, highPriority)

	return zap.New(zapcore.NewTee(coreHP, coreLP)).Named("htmlcss")
}

func encoderConfig(color bool) zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if color {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return ec
}

// When logging errors to console do not output the verbose message.

type consoleEnc struct {
	zapcore.Encoder
}

func newEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return consoleEnc{zapcore.NewConsoleEncoder(cfg)}
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	newFields := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			e := f.Interface.(error)
			f.Interface = errors.New(e.Error())
		}
		newFields = append(newFields, f)
	}
	return c.Encoder.EncodeEntry(ent, newFields)
}
