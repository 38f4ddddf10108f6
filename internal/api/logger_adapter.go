package api

import (
	"io"

	"github.com/labstack/gommon/log"

	applog "github.com/darkkaiser/price-watcher/pkg/log"
)

// gommonLogger Echo의 log.Logger 인터페이스를 구현하는 로거 어댑터입니다.
// Echo 프레임워크의 내부 로그가 애플리케이션 로거와 같은 형식,
// 같은 출력 대상을 사용하도록 통합합니다.
// 아래 메서드 대부분은 logrus 로거로 단순 위임하는 보일러플레이트입니다.
type gommonLogger struct {
	logger *applog.Logger
}

func (l gommonLogger) Output() io.Writer {
	return l.logger.Out
}

func (l gommonLogger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

func (l gommonLogger) Prefix() string {
	return ""
}

func (l gommonLogger) SetPrefix(string) {
	// Echo의 Prefix 기능은 사용하지 않음
}

// Level logrus 로그 레벨을 Echo의 로그 레벨로 변환합니다.
func (l gommonLogger) Level() log.Lvl {
	switch l.logger.Level {
	case applog.DebugLevel, applog.TraceLevel:
		return log.DEBUG
	case applog.InfoLevel:
		return log.INFO
	case applog.WarnLevel:
		return log.WARN
	case applog.ErrorLevel:
		return log.ERROR
	}
	return log.OFF
}

// SetLevel Echo의 로그 레벨을 logrus 로그 레벨로 변환하여 설정합니다.
func (l gommonLogger) SetLevel(lvl log.Lvl) {
	switch lvl {
	case log.DEBUG:
		l.logger.SetLevel(applog.DebugLevel)
	case log.INFO:
		l.logger.SetLevel(applog.InfoLevel)
	case log.WARN:
		l.logger.SetLevel(applog.WarnLevel)
	case log.ERROR:
		l.logger.SetLevel(applog.ErrorLevel)
	case log.OFF:
		// 대응하는 logrus 레벨이 없으므로 무시
	}
}

func (l gommonLogger) SetHeader(string) {
	// Echo의 Header 기능은 사용하지 않음
}

func (l gommonLogger) Print(i ...interface{}) {
	l.logger.Print(i...)
}

func (l gommonLogger) Printf(format string, args ...interface{}) {
	l.logger.Printf(format, args...)
}

func (l gommonLogger) Printj(j log.JSON) {
	l.logger.WithFields(applog.Fields(j)).Print()
}

func (l gommonLogger) Debug(i ...interface{}) {
	l.logger.Debug(i...)
}

func (l gommonLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l gommonLogger) Debugj(j log.JSON) {
	l.logger.WithFields(applog.Fields(j)).Debug()
}

func (l gommonLogger) Info(i ...interface{}) {
	l.logger.Info(i...)
}

func (l gommonLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l gommonLogger) Infoj(j log.JSON) {
	l.logger.WithFields(applog.Fields(j)).Info()
}

func (l gommonLogger) Warn(i ...interface{}) {
	l.logger.Warn(i...)
}

func (l gommonLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l gommonLogger) Warnj(j log.JSON) {
	l.logger.WithFields(applog.Fields(j)).Warn()
}

func (l gommonLogger) Error(i ...interface{}) {
	l.logger.Error(i...)
}

func (l gommonLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l gommonLogger) Errorj(j log.JSON) {
	l.logger.WithFields(applog.Fields(j)).Error()
}

func (l gommonLogger) Fatal(i ...interface{}) {
	l.logger.Fatal(i...)
}

func (l gommonLogger) Fatalf(format string, args ...interface{}) {
	l.logger.Fatalf(format, args...)
}

func (l gommonLogger) Fatalj(j log.JSON) {
	l.logger.WithFields(applog.Fields(j)).Fatal()
}

func (l gommonLogger) Panic(i ...interface{}) {
	l.logger.Panic(i...)
}

func (l gommonLogger) Panicf(format string, args ...interface{}) {
	l.logger.Panicf(format, args...)
}

func (l gommonLogger) Panicj(j log.JSON) {
	l.logger.WithFields(applog.Fields(j)).Panic()
}
