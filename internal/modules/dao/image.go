package dao

import (
	"github.com/reusedev/chat-image/internal/components/database"
	"github.com/reusedev/chat-image/internal/modules/model"
)

func CreateImage(image *model.Image) error {
	return database.DB.Model(&model.Image{}).Create(image).Error
}

func ImageById(id int) (model.Image, error) {
	var image model.Image
	err := database.DB.Model(&model.Image{}).Where("id = ?", id).First(&image).Error
	if err != nil {
		return model.Image{}, err
	}
	return image, nil
}

func CreateInvokeHistory(histories []model.InvokeHistory) error {
	if len(histories) == 0 {
		return nil
	}
	return database.DB.Model(&model.InvokeHistory{}).Create(&histories).Error
}
