package peerdb

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
)

// peerRow peer 表的行
type peerRow struct {
	Guid      []byte    `gorm:"column:guid;primaryKey"`
	PeerID    string    `gorm:"column:id;uniqueIndex;not null"`
	UUID      []byte    `gorm:"column:uuid"`
	PK        []byte    `gorm:"column:pk"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
	User      []byte    `gorm:"column:user;index"`
	Status    *int64    `gorm:"column:status;index"`
	Note      string    `gorm:"column:note"`
	Info      string    `gorm:"column:info;not null"`
}

// TableName 表名
func (peerRow) TableName() string {
	return "peer"
}

func (r *peerRow) toStored() interfaces.StoredPeer {
	return interfaces.StoredPeer{
		Guid:      r.Guid,
		ID:        r.PeerID,
		UUID:      r.UUID,
		PublicKey: r.PK,
		Info:      r.Info,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

// SQLStore 基于 gorm 的节点库
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLite 打开 sqlite 节点库
//
// dsn 可以是文件路径或 sqlite 连接串（如 file:x?mode=memory&cache=shared）。
// sqlite 只使用一个连接。
func OpenSQLite(dsn string) (*SQLStore, error) {
	s, err := openSQL(sqlite.Open(dsn))
	if err != nil {
		return nil, err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, wrap(OpOpen, err)
	}
	sqlDB.SetMaxOpenConns(1)
	return s, nil
}

// OpenPostgres 打开 PostgreSQL 节点库
func OpenPostgres(dsn string) (*SQLStore, error) {
	return openSQL(postgres.Open(dsn))
}

func openSQL(dialector gorm.Dialector) (*SQLStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, wrap(OpOpen, err)
	}
	if err := db.AutoMigrate(&peerRow{}); err != nil {
		return nil, wrap(OpOpen, err)
	}
	return &SQLStore{db: db}, nil
}

// InsertPeer 插入新节点，返回新分配的 guid
func (s *SQLStore) InsertPeer(ctx context.Context, id string, uuidBytes, pk []byte, info string, connected bool) ([]byte, error) {
	guid := uuid.New()
	status := interfaces.StatusFromConnected(connected)
	row := peerRow{
		Guid:   guid[:],
		PeerID: id,
		UUID:   uuidBytes,
		PK:     pk,
		Status: &status,
		Info:   info,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = ErrDuplicateID
		}
		return nil, wrap(OpInsert, err)
	}
	return row.Guid, nil
}

// UpdatePeer 按 guid 更新节点
func (s *SQLStore) UpdatePeer(ctx context.Context, guid []byte, id string, pk []byte, info string, connected *bool) error {
	updates := map[string]any{
		"id":   id,
		"pk":   pk,
		"info": info,
	}
	if connected != nil {
		updates["status"] = interfaces.StatusFromConnected(*connected)
	}

	res := s.db.WithContext(ctx).Model(&peerRow{}).Where("guid = ?", guid).Updates(updates)
	if res.Error != nil {
		return wrap(OpUpdate, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap(OpUpdate, ErrNotFound)
	}
	return nil
}

// GetPeer 按 ID 查询节点
func (s *SQLStore) GetPeer(ctx context.Context, id string) (interfaces.StoredPeer, bool, error) {
	var row peerRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return interfaces.StoredPeer{}, false, nil
	case err != nil:
		return interfaces.StoredPeer{}, false, wrap(OpGet, err)
	}
	return row.toStored(), true, nil
}

// SetStatus 直接写入状态列（遗留接口），不存在的 ID 不报错
func (s *SQLStore) SetStatus(ctx context.Context, id string, status int64) error {
	err := s.db.WithContext(ctx).Model(&peerRow{}).Where("id = ?", id).Update("status", status).Error
	return wrap(OpSetStatus, err)
}

// Count 返回记录数量
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&peerRow{}).Count(&n).Error
	return n, wrap(OpCount, err)
}

// Close 关闭数据库连接
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap(OpClose, err)
	}
	return wrap(OpClose, sqlDB.Close())
}

var _ interfaces.PeerStore = (*SQLStore)(nil)
