package service

import "context"

// FileStorage — загрузка файлов в объектное хранилище и публичные ссылки на них
type FileStorage interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	PublicURL(bucket, path string) string
}

// ImageUpload — содержимое картинки из multipart-формы
type ImageUpload struct {
	Data        []byte
	Ext         string
	ContentType string
}
