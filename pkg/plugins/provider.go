package plugins

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quka-ai/studymate/app/core"
	"github.com/quka-ai/studymate/pkg/object-storage/s3"
)

func Setup(install func(p core.Plugins), mode string) {
	p := provider[mode]
	if p == nil {
		panic("Setup mode not found: " + mode)
	}
	install(p())
}

var provider = make(map[string]core.SetupFunc)

func RegisterProvider(key string, p core.Plugins) {
	provider[key] = func() core.Plugins {
		return p
	}
}

func SetupObjectStorage(cfg core.ObjectStorageDriver) core.FileStorage {
	var s core.FileStorage
	switch strings.ToLower(cfg.Driver) {
	case "s3":
		s3Cfg := cfg.S3
		s = &S3FileStorage{
			StaticDomain: cfg.StaticDomain,
			S3:           s3.NewS3Client(s3Cfg.Endpoint, s3Cfg.Region, s3Cfg.Bucket, s3Cfg.AccessKey, s3Cfg.SecretKey, s3.WithPathStyle(s3Cfg.UsePathStyle)),
		}
	case "local":
		s = &LocalFileStorage{
			StaticDomain: cfg.StaticDomain,
		}
	default:
		s = &NoneFileStorage{}
	}

	return s
}

var ErrStorageUnsupported = fmt.Errorf("object storage not configured")

type NoneFileStorage struct {
}

func (lfs *NoneFileStorage) GetStaticDomain() string {
	return ""
}

func (lfs *NoneFileStorage) GenGetObjectPreSignURL(ctx context.Context, url string) (string, error) {
	return "", ErrStorageUnsupported
}

func (lfs *NoneFileStorage) SaveFile(ctx context.Context, fullPath string, content []byte, contentType string) error {
	return ErrStorageUnsupported
}

func (lfs *NoneFileStorage) DeleteFile(ctx context.Context, fullFilePath string) error {
	return ErrStorageUnsupported
}

func (lfs *NoneFileStorage) DownloadFile(ctx context.Context, filePath string) (*s3.GetObjectResult, error) {
	return nil, ErrStorageUnsupported
}

// LocalFileStorage keeps files under Root, object paths are relative to it.
type LocalFileStorage struct {
	StaticDomain string
	Root         string
}

func (lfs *LocalFileStorage) GetStaticDomain() string {
	return lfs.StaticDomain
}

func (lfs *LocalFileStorage) path(fullPath string) string {
	root := lfs.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(fullPath, "/")))
}

// SaveFile stores a file on the local file system.
func (lfs *LocalFileStorage) SaveFile(ctx context.Context, fullPath string, content []byte, _ string) error {
	target := lfs.path(fullPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(target, content, 0o644); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

func (lfs *LocalFileStorage) DownloadFile(ctx context.Context, filePath string) (*s3.GetObjectResult, error) {
	raw, err := os.ReadFile(lfs.path(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &s3.GetObjectResult{
		File:     raw,
		FileType: http.DetectContentType(raw),
	}, nil
}

// DeleteFile deletes a file from the local file system using the full file path.
func (lfs *LocalFileStorage) DeleteFile(ctx context.Context, fullFilePath string) error {
	if err := os.Remove(lfs.path(fullFilePath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (lfs *LocalFileStorage) GenGetObjectPreSignURL(ctx context.Context, url string) (string, error) {
	return url, nil
}

type S3FileStorage struct {
	StaticDomain string
	*s3.S3
}

func (fs *S3FileStorage) GetStaticDomain() string {
	return fs.StaticDomain
}

// SaveFile stores a file
func (fs *S3FileStorage) SaveFile(ctx context.Context, fullPath string, content []byte, contentType string) error {
	return fs.Upload(ctx, fullPath, bytes.NewReader(content), contentType)
}

func (fs *S3FileStorage) DownloadFile(ctx context.Context, filePath string) (*s3.GetObjectResult, error) {
	return fs.GetObject(ctx, filePath)
}

// DeleteFile deletes a file
func (fs *S3FileStorage) DeleteFile(ctx context.Context, fullFilePath string) error {
	return fs.Delete(ctx, fullFilePath)
}

func (fs *S3FileStorage) GenGetObjectPreSignURL(ctx context.Context, fileURL string) (string, error) {
	return fs.S3.GenGetObjectPreSignURL(ctx, core.ObjectPath(fs.StaticDomain, fileURL), time.Hour)
}
