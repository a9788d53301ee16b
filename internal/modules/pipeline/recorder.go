package pipeline

import (
	"github.com/reusedev/chat-image/internal/modules/dao"
	"github.com/reusedev/chat-image/internal/modules/model"
)

// DBRecorder writes through the dao package.
type DBRecorder struct{}

func (DBRecorder) CreateImage(image *model.Image) error {
	return dao.CreateImage(image)
}

func (DBRecorder) CreateInvokeHistory(histories []model.InvokeHistory) error {
	return dao.CreateInvokeHistory(histories)
}
