package peerdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ffrrbb/rustdesk-server/config"
	"github.com/ffrrbb/rustdesk-server/pkg/interfaces"
	"github.com/ffrrbb/rustdesk-server/pkg/lib/log"
)

var logger = log.Logger("core/peerdb")

// Backend 节点库后端类型
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendBadger   Backend = "badger"
)

// ParseURL 解析连接串，返回后端类型和驱动使用的 DSN
func ParseURL(url string) (Backend, string, error) {
	switch {
	case url == "":
		return "", "", fmt.Errorf("%w: empty", ErrUnsupportedURL)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return BackendPostgres, url, nil
	case strings.HasPrefix(url, "badger://"):
		dir := strings.TrimPrefix(url, "badger://")
		if dir == "" {
			return "", "", fmt.Errorf("%w: badger url without directory", ErrUnsupportedURL)
		}
		return BackendBadger, dir, nil
	case strings.HasPrefix(url, "sqlite://"):
		return BackendSQLite, strings.TrimPrefix(url, "sqlite://"), nil
	case strings.HasPrefix(url, "file:"):
		return BackendSQLite, url, nil
	case strings.Contains(url, "://"):
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedURL, url)
	default:
		return BackendSQLite, url, nil
	}
}

// Open 根据配置打开节点库
//
// 连接串为空时使用平台默认的 sqlite 文件。Timeout 大于 0 时
// 每次调用都受其约束。
func Open(cfg config.StorageConfig) (interfaces.PeerStore, error) {
	backend, dsn, err := ParseURL(cfg.ResolvedURL())
	if err != nil {
		return nil, wrap(OpOpen, err)
	}

	var store interfaces.PeerStore
	switch backend {
	case BackendPostgres:
		store, err = OpenPostgres(dsn)
	case BackendBadger:
		store, err = OpenKV(dsn)
	default:
		store, err = OpenSQLite(dsn)
	}
	if err != nil {
		return nil, err
	}

	store = WithTimeout(store, cfg.Timeout.Duration())
	logStartup(store, backend)
	return store, nil
}

// peerCounter 可统计记录数量的节点库
type peerCounter interface {
	Count(ctx context.Context) (int64, error)
}

// logStartup 打印后端类型和已有记录数，统计失败只告警
func logStartup(store interfaces.PeerStore, backend Backend) {
	c, ok := store.(peerCounter)
	if !ok {
		logger.Info("节点库已打开", "backend", string(backend))
		return
	}

	n, err := c.Count(context.Background())
	if err != nil {
		logger.Warn("统计节点记录失败", "backend", string(backend), "error", err)
		return
	}
	logger.Info("节点库已打开", "backend", string(backend), "peers", n)
}

// ============================================================================
//                              超时包装
// ============================================================================

// timeoutStore 为每次调用附加超时
type timeoutStore struct {
	interfaces.PeerStore
	timeout time.Duration
}

// WithTimeout 返回每次调用都受 timeout 约束的节点库，timeout <= 0 时原样返回
func WithTimeout(store interfaces.PeerStore, timeout time.Duration) interfaces.PeerStore {
	if timeout <= 0 {
		return store
	}
	return &timeoutStore{PeerStore: store, timeout: timeout}
}

func (s *timeoutStore) InsertPeer(ctx context.Context, id string, uuid, pk []byte, info string, connected bool) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.PeerStore.InsertPeer(ctx, id, uuid, pk, info, connected)
}

func (s *timeoutStore) UpdatePeer(ctx context.Context, guid []byte, id string, pk []byte, info string, connected *bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.PeerStore.UpdatePeer(ctx, guid, id, pk, info, connected)
}

func (s *timeoutStore) GetPeer(ctx context.Context, id string) (interfaces.StoredPeer, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.PeerStore.GetPeer(ctx, id)
}

// Count 转发到底层节点库
func (s *timeoutStore) Count(ctx context.Context) (int64, error) {
	c, ok := s.PeerStore.(peerCounter)
	if !ok {
		return 0, wrap(OpCount, errors.ErrUnsupported)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return c.Count(ctx)
}

func (s *timeoutStore) SetStatus(ctx context.Context, id string, status int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.PeerStore.SetStatus(ctx, id, status)
}
