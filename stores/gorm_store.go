package stores

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketmind/marketmind/models"
)

// gormStore implements the ThreadStore operations shared by the SQLite and
// Postgres backends. The driver-specific stores embed it and supply Connect.
type gormStore struct {
	db *gorm.DB
}

func (s *gormStore) migrate() error {
	if err := s.db.AutoMigrate(&ThreadRecord{}, &MessageRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}

func (s *gormStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

func (s *gormStore) Ping() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *gormStore) CreateThread(title string) (*models.Thread, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	record := ThreadRecord{
		ThreadID: uuid.NewString(),
		Title:    title,
		IsRead:   true,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to create thread record: %w", err)
	}

	return &models.Thread{
		ID:        record.ThreadID,
		Title:     record.Title,
		Messages:  []models.Message{},
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
		IsRead:    record.IsRead,
	}, nil
}

func (s *gormStore) GetThread(id string) (*models.Thread, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var record ThreadRecord
	if err := s.db.Where("thread_id = ?", id).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("failed to fetch thread: %w", err)
	}

	var msgs []MessageRecord
	if err := s.db.Where("thread_id = ?", id).Order("sequence ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	thread := &models.Thread{
		ID:        record.ThreadID,
		Title:     record.Title,
		Messages:  make([]models.Message, 0, len(msgs)),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
		IsRead:    record.IsRead,
	}
	for _, m := range msgs {
		thread.Messages = append(thread.Messages, messageFromRecord(m))
	}
	return thread, nil
}

func (s *gormStore) ListThreads() ([]models.ThreadInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var records []ThreadRecord
	if err := s.db.Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch threads: %w", err)
	}

	infos := make([]models.ThreadInfo, len(records))
	for i, r := range records {
		infos[i] = models.ThreadInfo{
			ID:           r.ThreadID,
			Title:        r.Title,
			MessageCount: r.MessageCount,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
			IsRead:       r.IsRead,
		}
	}
	return infos, nil
}

func (s *gormStore) AppendMessage(threadID string, msg models.Message) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	var thread ThreadRecord
	if err := s.db.Where("thread_id = ?", threadID).First(&thread).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrThreadNotFound
		}
		return fmt.Errorf("failed to fetch thread: %w", err)
	}

	var count int64
	if err := s.db.Model(&MessageRecord{}).Where("thread_id = ?", threadID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count existing messages: %w", err)
	}
	seq := int(count) + 1

	record, err := recordFromMessage(threadID, seq, msg)
	if err != nil {
		return err
	}

	tx := s.db.Begin()
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create message record: %w", err)
	}
	updates := map[string]interface{}{
		"message_count": seq,
		"updated_at":    time.Now(),
	}
	if err := tx.Model(&ThreadRecord{}).Where("thread_id = ?", threadID).Updates(updates).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update thread message count: %w", err)
	}
	return tx.Commit().Error
}

func (s *gormStore) ReplaceLastMessage(threadID string, msg models.Message) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	var last MessageRecord
	err := s.db.Where("thread_id = ?", threadID).Order("sequence DESC").First(&last).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			var count int64
			if err := s.db.Model(&ThreadRecord{}).Where("thread_id = ?", threadID).Count(&count).Error; err == nil && count == 0 {
				return ErrThreadNotFound
			}
			return fmt.Errorf("thread %s has no messages to replace", threadID)
		}
		return fmt.Errorf("failed to fetch last message: %w", err)
	}

	replacement, err := recordFromMessage(threadID, last.Sequence, msg)
	if err != nil {
		return err
	}

	tx := s.db.Begin()
	updates := map[string]interface{}{
		"message_id":        replacement.MessageID,
		"sender":            replacement.Sender,
		"content":           replacement.Content,
		"tool_calls_json":   replacement.ToolCallsJSON,
		"tool_results_json": replacement.ToolResultsJSON,
		"sent_at":           replacement.SentAt,
	}
	if err := tx.Model(&MessageRecord{}).Where("id = ?", last.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to replace message record: %w", err)
	}
	if err := tx.Model(&ThreadRecord{}).Where("thread_id = ?", threadID).Update("updated_at", time.Now()).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to touch thread: %w", err)
	}
	return tx.Commit().Error
}

func (s *gormStore) SetRead(threadID string, read bool) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	result := s.db.Model(&ThreadRecord{}).Where("thread_id = ?", threadID).Update("is_read", read)
	if result.Error != nil {
		return fmt.Errorf("failed to update thread read state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrThreadNotFound
	}
	return nil
}

func (s *gormStore) DeleteThread(id string) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	tx := s.db.Begin()
	result := tx.Where("thread_id = ?", id).Delete(&ThreadRecord{})
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete thread: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return ErrThreadNotFound
	}
	if err := tx.Where("thread_id = ?", id).Delete(&MessageRecord{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete thread messages: %w", err)
	}
	return tx.Commit().Error
}
