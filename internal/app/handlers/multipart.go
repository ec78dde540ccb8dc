package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/codenati22/loffy-back/internal/service"
)

// предел размера multipart-формы с картинкой
const maxUploadSize = 10 << 20 // 10 MiB

// readImageFile достает файл из multipart-формы.
// Возвращает nil без ошибки, если поле не заполнено.
func readImageFile(r *http.Request, field string) (*service.ImageUpload, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, err
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	ext := strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	return &service.ImageUpload{
		Data:        data,
		Ext:         ext,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}
