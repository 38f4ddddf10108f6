package watcher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	applog "github.com/darkkaiser/price-watcher/pkg/log"
)

// Store 상품 스냅샷의 영속화 계층입니다.
type Store interface {
	// Load 저장된 스냅샷을 반환합니다. 저장된 적이 없으면 (nil, nil)을 반환합니다.
	Load(entityID string) (*Snapshot, error)

	// Save 스냅샷을 저장합니다. 같은 상품에 대한 동시 호출은 직렬화됩니다.
	Save(snap *Snapshot) error
}

const (
	// staleTempFileAge 청소 대상으로 판정하는 임시 파일의 최소 나이.
	// 이보다 어린 임시 파일은 진행 중인 쓰기일 수 있으므로 건드리지 않습니다.
	staleTempFileAge = time.Hour

	// renameRetry 원자적 교체(rename) 실패 시 재시도 횟수와 간격.
	// 바이러스 검사기 등이 파일을 잠깐 잡고 있는 경우를 흡수합니다.
	renameRetryCount = 5
	renameRetryDelay = 10 * time.Millisecond
)

// FileStore 상품마다 하나의 JSON 파일로 스냅샷을 저장하는 Store 구현체입니다.
//
// 쓰기는 임시 파일 작성 후 rename으로 교체하는 원자적 방식이며,
// 프로세스가 쓰기 도중 죽더라도 기존 스냅샷은 손상되지 않습니다.
type FileStore struct {
	dir   string
	locks *keyedMutex
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Store = (*FileStore)(nil)

// NewFileStore 스냅샷 저장 디렉토리를 준비하고 FileStore를 생성합니다.
// 이전 실행이 남긴 오래된 임시 파일은 백그라운드에서 정리됩니다.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "스냅샷 저장 디렉토리가 지정되지 않았습니다")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.System, "스냅샷 저장 디렉토리 생성 실패 (%s)", dir)
	}

	s := &FileStore{
		dir:   dir,
		locks: newKeyedMutex(),
	}

	go s.cleanupStaleTempFiles()

	return s, nil
}

// Load 저장된 스냅샷을 읽습니다. 파일이 없으면 (nil, nil)을 반환합니다.
func (s *FileStore) Load(entityID string) (*Snapshot, error) {
	path, err := s.resolveSafePath(entityID)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(entityID)
	defer s.locks.Unlock(entityID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrapf(err, apperrors.System, "스냅샷 파일 읽기 실패 (%s)", path)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ParsingFailed, "스냅샷 파일 해석 실패 (%s)", path)
	}

	return &snap, nil
}

// Save 스냅샷을 원자적으로 저장합니다.
func (s *FileStore) Save(snap *Snapshot) error {
	if snap == nil || snap.EntityID == "" {
		return apperrors.New(apperrors.InvalidInput, "저장할 스냅샷이 비어있거나 엔티티 ID가 없습니다")
	}

	path, err := s.resolveSafePath(snap.EntityID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return apperrors.Wrapf(err, apperrors.Internal, "스냅샷 직렬화 실패 (%s)", snap.EntityID)
	}

	s.locks.Lock(snap.EntityID)
	defer s.locks.Unlock(snap.EntityID)

	return s.writeAtomic(path, data)
}

// resolveSafePath 엔티티 ID를 저장 디렉토리 내부의 파일 경로로 해석합니다.
// 경로 구분자가 섞인 ID로 디렉토리 밖을 가리키는 것을 차단합니다.
func (s *FileStore) resolveSafePath(entityID string) (string, error) {
	if entityID == "" || strings.ContainsAny(entityID, `/\`) {
		return "", apperrors.Newf(apperrors.InvalidInput, "허용되지 않는 엔티티 ID입니다: '%s'", entityID)
	}

	path := filepath.Join(s.dir, entityID+".json")
	if filepath.Dir(path) != filepath.Clean(s.dir) {
		return "", apperrors.Newf(apperrors.InvalidInput, "저장 디렉토리를 벗어나는 경로입니다: '%s'", entityID)
	}

	return path, nil
}

// writeAtomic 같은 디렉토리에 임시 파일을 만들어 내용을 기록한 뒤 rename으로 교체합니다.
func (s *FileStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return apperrors.Wrapf(err, apperrors.System, "스냅샷 임시 파일 생성 실패 (%s)", path)
	}

	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return apperrors.Wrapf(err, apperrors.System, "스냅샷 임시 파일 쓰기 실패 (%s)", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return apperrors.Wrapf(err, apperrors.System, "스냅샷 임시 파일 동기화 실패 (%s)", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrapf(err, apperrors.System, "스냅샷 임시 파일 닫기 실패 (%s)", tmpPath)
	}

	if err := renameWithRetry(tmpPath, path); err != nil {
		return apperrors.Wrapf(err, apperrors.System, "스냅샷 파일 교체 실패 (%s)", path)
	}
	committed = true

	// rename까지 디스크에 반영되도록 디렉토리 엔트리를 동기화한다.
	// 실패해도 데이터 자체는 이미 기록되었으므로 경고만 남긴다.
	if dirFile, err := os.Open(s.dir); err == nil {
		_ = dirFile.Sync()
		_ = dirFile.Close()
	}

	return nil
}

func renameWithRetry(oldPath, newPath string) error {
	var lastErr error
	for i := 0; i < renameRetryCount; i++ {
		if lastErr = os.Rename(oldPath, newPath); lastErr == nil {
			return nil
		}
		time.Sleep(renameRetryDelay)
	}
	return lastErr
}

// cleanupStaleTempFiles 비정상 종료가 남긴 오래된 임시 파일을 정리합니다.
// 스냅샷 동작에 영향을 주지 않도록 실패는 무시하고 패닉은 복구합니다.
func (s *FileStore) cleanupStaleTempFiles() {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"panic": fmt.Sprintf("%v", r),
			}).Error("스냅샷 임시 파일 정리 중 패닉이 복구되었습니다")
		}
	}()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-staleTempFileAge)
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), ".tmp-") {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		_ = os.Remove(filepath.Join(s.dir, entry.Name()))
	}
}

// keyedMutex 키별로 독립적인 Mutex를 제공합니다.
// 서로 다른 상품의 스냅샷 입출력은 병렬로 처리되고, 같은 상품만 직렬화됩니다.
// 참조 카운트로 사용이 끝난 키를 맵에서 제거하여 무한히 자라지 않습니다.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu       sync.Mutex
	refCount int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*lockEntry)}
}

func (km *keyedMutex) Lock(key string) {
	km.mu.Lock()
	e, ok := km.locks[key]
	if !ok {
		e = &lockEntry{}
		km.locks[key] = e
	}
	e.refCount++
	km.mu.Unlock()

	e.mu.Lock()
}

func (km *keyedMutex) Unlock(key string) {
	km.mu.Lock()
	defer km.mu.Unlock()

	e, ok := km.locks[key]
	if !ok {
		panic("watcher: 잠기지 않은 키의 잠금 해제 시도")
	}

	e.mu.Unlock()

	e.refCount--
	if e.refCount <= 0 {
		delete(km.locks, key)
	}
}
