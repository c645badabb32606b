package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/huynhtran/minimart/internal/models"
)

// ActivityService appends to and reads the admin audit trail.
type ActivityService struct {
	DB *gorm.DB
}

func (s *ActivityService) Append(ctx context.Context, adminID uint, action, modelName string, objectID *uint, description string) error {
	activity := models.AdminActivity{
		AdminID:     adminID,
		Action:      action,
		ModelName:   modelName,
		ObjectID:    objectID,
		Description: description,
	}
	return s.DB.WithContext(ctx).Create(&activity).Error
}

func (s *ActivityService) Recent(ctx context.Context, offset, limit int) (int64, []models.AdminActivity, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.AdminActivity{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var activities []models.AdminActivity
	if err := s.DB.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&activities).Error; err != nil {
		return 0, nil, err
	}
	return total, activities, nil
}
