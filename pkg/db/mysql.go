package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// MysqlOptions mysql 连接配置
type MysqlOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	LogLevel string // debug/info/warning/error
	MaxOpen  int
	MaxIdle  int
}

// NewMysql 建立 mysql 连接池
// 进程启动时构造一次，注入到各个组件，不再使用全局连接表
func NewMysql(opt MysqlOptions, zLog *zap.Logger) (*gorm.DB, error) {
	var gormLevel gormLogger.LogLevel
	switch opt.LogLevel {
	case "debug", "info":
		gormLevel = gormLogger.Info
	case "warning":
		gormLevel = gormLogger.Warn
	default:
		gormLevel = gormLogger.Error
	}

	dsn := opt.User + ":" + opt.Password + "@tcp(" + opt.Host + ":" + strconv.Itoa(opt.Port) + ")/" +
		opt.DBName + "?charset=utf8mb4&parseTime=True&loc=Local"
	conn, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: &ZapGormLogger{
			Logger: zLog,
			Config: gormLogger.Config{
				LogLevel:                  gormLevel,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             500 * time.Millisecond,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	pool, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql pool: %w", err)
	}
	maxOpen := opt.MaxOpen
	if maxOpen <= 0 {
		maxOpen = 30
	}
	maxIdle := opt.MaxIdle
	if maxIdle <= 0 {
		maxIdle = 15
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxIdle)

	return conn, nil
}

// ZapGormLogger 把 gorm 日志接到 zap
type ZapGormLogger struct {
	Logger *zap.Logger
	Config gormLogger.Config
}

func (l *ZapGormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	newLogger := *l
	newLogger.Config.LogLevel = level
	return &newLogger
}

func (l *ZapGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.Logger.Info(fmt.Sprintf(msg, data...),
		zap.String("source", utils.FileWithLineNum()),
		zap.String("agg_type", "gorm"),
	)
}

func (l *ZapGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.Logger.Warn(fmt.Sprintf(msg, data...),
		zap.String("source", utils.FileWithLineNum()),
		zap.String("agg_type", "gorm"),
	)
}

func (l *ZapGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.Logger.Error(fmt.Sprintf(msg, data...),
		zap.String("source", utils.FileWithLineNum()),
		zap.String("agg_type", "gorm"),
	)
}

// Trace 记录 SQL 执行情况，慢查询单独告警
func (l *ZapGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.Config.LogLevel >= gormLogger.Error &&
		(!errors.Is(err, gormLogger.ErrRecordNotFound) || !l.Config.IgnoreRecordNotFoundError):
		sql, rows := fc()
		l.Logger.Error(err.Error(),
			zap.String("source", utils.FileWithLineNum()),
			zap.Float64("query_time", float64(elapsed.Nanoseconds())/1e6),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
			zap.String("agg_type", "gorm"),
		)
	case elapsed > l.Config.SlowThreshold && l.Config.SlowThreshold != 0 && l.Config.LogLevel >= gormLogger.Warn:
		sql, rows := fc()
		l.Logger.Warn(fmt.Sprintf("SLOW SQL >= %v", l.Config.SlowThreshold),
			zap.String("source", utils.FileWithLineNum()),
			zap.Float64("query_time", float64(elapsed.Nanoseconds())/1e6),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
			zap.String("agg_type", "gorm"),
		)
	case l.Config.LogLevel == gormLogger.Info:
		sql, rows := fc()
		l.Logger.Debug("sql log",
			zap.String("source", utils.FileWithLineNum()),
			zap.Float64("query_time", float64(elapsed.Nanoseconds())/1e6),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
			zap.String("agg_type", "gorm"),
		)
	}
}
