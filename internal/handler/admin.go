package handler

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/iceymoss/go-blog/internal/conf"
	zLog "github.com/iceymoss/go-blog/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Admin 管理端辅助操作，目前只有数据库备份
type Admin struct {
	mysql     conf.MysqlConfig
	backupDir string
}

func NewAdmin(mysql conf.MysqlConfig, backupDir string) *Admin {
	return &Admin{mysql: mysql, backupDir: backupDir}
}

// Backup POST /api/admin/backup
// 直接调用 mysqldump，没装该命令时给出可读的错误
func (h *Admin) Backup(c *gin.Context) {
	if err := os.MkdirAll(h.backupDir, 0o755); err != nil {
		serverError(c, "create backup dir failed", err)
		return
	}

	filename := fmt.Sprintf("%s_%d.sql", h.mysql.DBName, time.Now().UnixMilli())
	target := filepath.Join(h.backupDir, filename)

	out, err := os.Create(target)
	if err != nil {
		serverError(c, "create backup file failed", err)
		return
	}
	defer out.Close()

	cmd := exec.CommandContext(c.Request.Context(), "mysqldump",
		"-h", h.mysql.Host,
		"-P", fmt.Sprintf("%d", h.mysql.Port),
		"-u", h.mysql.User,
		fmt.Sprintf("-p%s", h.mysql.Password),
		h.mysql.DBName,
	)
	cmd.Stdout = out
	if err := cmd.Run(); err != nil {
		zLog.Error("backup failed", zap.Error(err))
		os.Remove(target)
		c.JSON(http.StatusInternalServerError,
			gin.H{"message": "备份失败，请确认服务器已安装 mysqldump 命令"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "备份成功", "file": filename})
}
