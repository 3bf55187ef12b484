package main

import (
	"log"

	"github.com/iceymoss/go-blog/internal/conf"
	"github.com/iceymoss/go-blog/internal/server"
	"github.com/iceymoss/go-blog/pkg/db"
	"github.com/iceymoss/go-blog/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env 是可选的，生产环境直接用环境变量
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file, use environment as-is")
	}

	cfg, err := conf.LoadConfig("configs/config.yaml")
	if err != nil {
		logger.Fatal("❌ LoadConfig error", zap.Error(err))
	}

	// 存储和缓存客户端在入口构造一次，注入各层，进程退出时关闭
	gdb, err := db.NewMysql(db.MysqlOptions{
		Host:     cfg.Mysql.Host,
		Port:     cfg.Mysql.Port,
		User:     cfg.Mysql.User,
		Password: cfg.Mysql.Password,
		DBName:   cfg.Mysql.DBName,
		LogLevel: cfg.Mysql.LogLevel,
		MaxOpen:  cfg.Mysql.MaxOpen,
		MaxIdle:  cfg.Mysql.MaxIdle,
	}, logger.Logger)
	if err != nil {
		logger.Fatal("❌ MySQL error", zap.Error(err))
	}
	defer func() {
		if pool, err := gdb.DB(); err == nil {
			pool.Close()
		}
	}()

	rdb := db.NewRedis(db.RedisOptions{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	srv, err := server.NewServer(cfg, gdb, rdb)
	if err != nil {
		logger.Fatal("❌ Server init error", zap.Error(err))
	}

	log.Printf("🌐 SSR blog running at http://localhost%s", cfg.Server.Port)
	if err := srv.Run(cfg.Server.Port); err != nil {
		logger.Fatal("❌ Server error", zap.Error(err))
	}
}
