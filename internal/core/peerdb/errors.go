package peerdb

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("peerdb: not found")

	// ErrDuplicateID 节点 ID 已存在
	ErrDuplicateID = errors.New("peerdb: duplicate id")

	// ErrUnsupportedURL 无法识别的连接串
	ErrUnsupportedURL = errors.New("peerdb: unsupported db url")
)

// 操作名，同时用作指标标签
const (
	OpOpen      = "open"
	OpInsert    = "insert"
	OpUpdate    = "update"
	OpGet       = "get"
	OpSetStatus = "set_status"
	OpCount     = "count"
	OpClose     = "close"
)

// StorageError 存储网关错误
//
// 连接、查询或约束失败都包装为 StorageError。
type StorageError struct {
	Op  string
	Err error
}

// Error 实现 error 接口
func (e *StorageError) Error() string {
	return fmt.Sprintf("peerdb %s: %v", e.Op, e.Err)
}

// Unwrap 返回底层错误
func (e *StorageError) Unwrap() error {
	return e.Err
}

// wrap 将错误包装为 StorageError，nil 原样返回
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError 检查是否为存储网关错误
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
