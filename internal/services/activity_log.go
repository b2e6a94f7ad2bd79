package services

import (
	"time"

	"github.com/dietmate/backend/internal/models"
	"github.com/dietmate/backend/pkg/logger"
	"gorm.io/gorm"
)

var activityDB *gorm.DB

// InitActivityLogger wires the DB used for activity logging. Logging is
// best-effort; failures never affect the caller's request.
func InitActivityLogger(db *gorm.DB) {
	activityDB = db
}

// LogActivity records an engagement event.
func LogActivity(userID uint, module, action, detail string) {
	if activityDB == nil {
		return
	}

	entry := models.ActivityLog{
		UserID: userID,
		Module: module,
		Action: action,
		Detail: detail,
	}
	if err := activityDB.Create(&entry).Error; err != nil {
		logger.Warnf("[Activity] failed to record %s/%s: %v", module, action, err)
	}
}

// CleanupActivityLogs deletes entries older than retentionDays and
// returns the number of rows removed.
func CleanupActivityLogs(db *gorm.DB, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := db.Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	return result.RowsAffected, result.Error
}
