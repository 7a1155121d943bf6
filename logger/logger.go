package logger

import (
	"io"
	"net"
	"os"
	"strings"

	logstash "github.com/bshuster-repo/logrus-logstash-hook"
	"github.com/sirupsen/logrus"

	"github.com/satlayer/satlayer-restaking/library/types"
)

type Logger interface {
	SetLogLevel(level string)

	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	Debug(msg string, fields ...Field)

	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Debugf(format string, args ...interface{})

	SweetenFields(args []interface{}) []Field
}

type Field struct {
	Key string
	Val interface{}
}

func WithField(key string, val interface{}) Field {
	return Field{Key: key, Val: val}
}

type Config struct {
	Level string
	// Format is "text" or "json".
	Format string
	// Logstash is the tcp address of a logstash input, empty to disable.
	Logstash string
	Node     string
	Output   io.Writer
}

type RestakingLogger struct {
	logger *logrus.Logger
	conn   net.Conn
}

var _ Logger = (*RestakingLogger)(nil)

func New(cfg Config) (*RestakingLogger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if cfg.Output != nil {
		logger.SetOutput(cfg.Output)
	}
	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	l := &RestakingLogger{logger: logger}
	l.SetLogLevel(cfg.Level)

	if cfg.Logstash != "" {
		conn, err := net.Dial("tcp", cfg.Logstash)
		if err != nil {
			return nil, types.ErrInvalidInput.Wrapf("dial logstash %s: %v", cfg.Logstash, err)
		}
		hook := logstash.New(conn, logstash.DefaultFormatter(logrus.Fields{
			"node": cfg.Node,
		}))
		logger.Hooks.Add(hook)
		l.conn = conn
	}
	return l, nil
}

// Close releases the logstash connection, if any.
func (l *RestakingLogger) Close() error {
	if l.conn == nil {
		return nil
	}
	return l.conn.Close()
}

func (l *RestakingLogger) SetLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		l.logger.SetLevel(logrus.DebugLevel)
	case "info":
		l.logger.SetLevel(logrus.InfoLevel)
	case "warn":
		l.logger.SetLevel(logrus.WarnLevel)
	case "error":
		l.logger.SetLevel(logrus.ErrorLevel)
	case "fatal":
		l.logger.SetLevel(logrus.FatalLevel)
	default:
		l.logger.SetLevel(logrus.InfoLevel)
	}
}

func (l *RestakingLogger) Info(msg string, fields ...Field) {
	l.logger.WithFields(fmtFields(fields...)).Info(msg)
}

func (l *RestakingLogger) Warn(msg string, fields ...Field) {
	l.logger.WithFields(fmtFields(fields...)).Warn(msg)
}

func (l *RestakingLogger) Error(msg string, fields ...Field) {
	l.logger.WithFields(fmtFields(fields...)).Error(msg)
}

func (l *RestakingLogger) Fatal(msg string, fields ...Field) {
	l.logger.WithFields(fmtFields(fields...)).Fatal(msg)
}

func (l *RestakingLogger) Debug(msg string, fields ...Field) {
	l.logger.WithFields(fmtFields(fields...)).Debug(msg)
}

func (l *RestakingLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *RestakingLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *RestakingLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *RestakingLogger) Fatalf(format string, args ...interface{}) {
	l.logger.Fatalf(format, args...)
}

func (l *RestakingLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *RestakingLogger) SweetenFields(args []interface{}) []Field {
	return sweeten(args)
}

// sweeten turns loosely typed key/value pairs into fields. Fields pass
// through, the first error becomes "error", a trailing key without a value
// is dropped.
func sweeten(args []interface{}) []Field {
	if len(args) == 0 {
		return []Field{}
	}

	var (
		fields    = make([]Field, 0, len(args))
		seenError bool
	)

	for i := 0; i < len(args); {
		if f, ok := args[i].(Field); ok {
			fields = append(fields, f)
			i++
			continue
		}

		if err, ok := args[i].(error); ok {
			if !seenError {
				seenError = true
				fields = append(fields, WithField("error", err))
			}
			i++
			continue
		}
		if i == len(args)-1 {
			break
		}

		key, val := args[i], args[i+1]
		if keyStr, ok := key.(string); ok {
			fields = append(fields, WithField(keyStr, val))
		}
		i += 2
	}
	return fields
}

func fmtFields(fields ...Field) map[string]interface{} {
	if len(fields) == 0 {
		return make(map[string]interface{})
	}
	fieldsMap := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		fieldsMap[field.Key] = field.Val
	}
	return fieldsMap
}
