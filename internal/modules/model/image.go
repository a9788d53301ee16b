package model

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// Image is a generated or edited picture registered after it was persisted.
type Image struct {
	Id                  int            `json:"id" gorm:"primaryKey"`
	Kind                string         `json:"kind" gorm:"column:kind;type:varchar(20)"`
	Prompt              string         `json:"prompt" gorm:"column:prompt;type:varchar(5000)"`
	Path                string         `json:"path" gorm:"column:path;type:varchar(255)"`
	ThumbNailPath       string         `json:"thumbnail_path" gorm:"column:thumbnail_path;type:varchar(255)"`
	Format              string         `json:"format" gorm:"column:format;type:varchar(20)"`
	ByteSize            int            `json:"byte_size" gorm:"column:byte_size;type:int"`
	Width               int            `json:"width" gorm:"column:width;type:int"`
	Height              int            `json:"height" gorm:"column:height;type:int"`
	StorageSupplierName string         `json:"storage_supplier_name" gorm:"column:storage_supplier_name;type:varchar(20)"`
	Key                 sql.NullString `json:"key" gorm:"column:key;type:varchar(100)"`
	ModelName           string         `json:"model_name" gorm:"column:model_name;type:varchar(100)"`
	TokenDesc           string         `json:"token_desc" gorm:"column:token_desc;type:varchar(50)"`
	CreatedAt           time.Time      `json:"created_at" gorm:"column:created_at;not null;autoCreateTime"`
}

func (Image) TableName() string {
	return "image"
}

// InvokeHistory keeps one row per upstream attempt, successful or not.
type InvokeHistory struct {
	Id             int       `json:"id" gorm:"primaryKey"`
	TaskId         string    `json:"task_id" gorm:"column:task_id;type:varchar(50);index"`
	TokenDesc      string    `json:"token_desc" gorm:"column:token_desc;type:varchar(50)"`
	ModelName      string    `json:"model_name" gorm:"column:model_name;type:varchar(100)"`
	StatusCode     int       `json:"status_code" gorm:"column:status_code;type:int"`
	FailedReason   string    `json:"failed_reason" gorm:"column:failed_reason;type:varchar(1000)"`
	FailedRespBody string    `json:"failed_resp_body" gorm:"column:failed_resp_body;type:varchar(2000)"`
	DurationMs     int64     `json:"duration_ms" gorm:"column:duration_ms;type:int"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at;not null;autoCreateTime"`
}

func (InvokeHistory) TableName() string {
	return "invoke_history"
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Image{}, &InvokeHistory{})
}
