package logging

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type LoggerTestSuite struct {
	suite.Suite
	logs   *observer.ObservedLogs
	logger *Logger
}

func (s *LoggerTestSuite) SetupTest() {
	var core zapcore.Core
	core, s.logs = observer.New(zapcore.DebugLevel)
	s.logger = NewWithCore(core, LevelWarn)
}

func (s *LoggerTestSuite) TestLevelFiltering() {
	s.logger.Infof("hidden %d", 1)
	s.logger.Debugf("hidden")
	s.logger.Warnf("shown %s", "warn")
	s.logger.Errorf("shown error")
	s.Equal(2, s.logs.Len())
	s.Equal("shown warn", s.logs.All()[0].Message)
	s.Equal(zapcore.ErrorLevel, s.logs.All()[1].Level)
}

func (s *LoggerTestSuite) TestTrace() {
	s.logger.SetLevel(LevelTrace)
	s.logger.Tracef("this is tracef %s", "hello world")
	s.Require().Equal(1, s.logs.Len())
	entry := s.logs.All()[0]
	s.Equal("this is tracef hello world", entry.Message)
	s.Equal(true, entry.ContextMap()["trace"])
}

func (s *LoggerTestSuite) TestNamedSharesLevel() {
	child := s.logger.Named("mq").Named("sysv")
	s.Equal("mq.sysv", child.Name())
	s.logger.SetLevel(LevelInfo)
	child.Infow("opened", "handle", 3)
	s.Require().Equal(1, s.logs.Len())
	s.Equal("mq.sysv", s.logs.All()[0].LoggerName)
	s.EqualValues(3, s.logs.All()[0].ContextMap()["handle"])
}

func (s *LoggerTestSuite) TestNoPrint() {
	s.logger.SetLevel(LevelNoPrint)
	s.logger.Errorf("never")
	s.Equal(0, s.logs.Len())
	s.Equal(LevelNoPrint, s.logger.Level())
}

func (s *LoggerTestSuite) TestParseLevel() {
	l, ok := ParseLevel("2")
	s.True(ok)
	s.Equal(LevelInfo, l)
	l, ok = ParseLevel(" Debug ")
	s.True(ok)
	s.Equal(LevelDebug, l)
	_, ok = ParseLevel("9")
	s.False(ok)
	_, ok = ParseLevel("loud")
	s.False(ok)
	s.Equal("silent", LevelNoPrint.String())
}

func (s *LoggerTestSuite) TestDefaultConfigFromEnv() {
	s.T().Setenv(EnvLevel, "1")
	s.Equal(LevelDebug, DefaultConfig().Level)
	s.T().Setenv(EnvLevel, "bogus")
	s.Equal(LevelWarn, DefaultConfig().Level)
}

func (s *LoggerTestSuite) TestNop() {
	l := Nop()
	l.SetLevel(LevelTrace)
	l.Errorf("discarded")
	s.NoError(l.Sync())
}

func TestLoggerTestSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}
