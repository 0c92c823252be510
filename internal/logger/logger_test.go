package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
}

func (suite *LoggerTestSuite) TestNewLoggerWithLevel() {
	logger, err := NewLoggerWithLevel(zapcore.DebugLevel)
	suite.NoError(err)
	suite.NotNil(logger)
	suite.True(logger.Core().Enabled(zapcore.DebugLevel))
}

func (suite *LoggerTestSuite) TestNopLogger() {
	logger := NewNopLogger()
	suite.NotNil(logger)

	// These should not panic
	logger.Info("test info message")
	logger.Debug("test debug message", zap.String("key", "value"))
	logger.Warn("test warn message")
	logger.Error("test error message")
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}

	// Sync should not panic and should return nil for a nil inner logger
	err := logger.Sync()
	suite.NoError(err)
}
