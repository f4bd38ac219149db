package server

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"SyncMusic/logger"
	"SyncMusic/storage"

	"github.com/gorilla/mux"
)

// MediaHandler 输出缓存的歌曲文件
type MediaHandler struct {
	media *storage.MediaCache
}

func NewMediaHandler(media *storage.MediaCache) *MediaHandler {
	return &MediaHandler{media: media}
}

// ServeMedia GET /media/{file}，file 形如 {id}.mp3
func (h *MediaHandler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	id := strings.TrimSuffix(file, ".mp3")
	if id == "" || id == file || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	f, err := h.media.Open(r.Context(), id)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("打开媒体文件失败", logger.String("id", id), logger.ErrorField(err))
		}
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "public, max-age=31536000") // 缓存一年
	http.ServeContent(w, r, file, info.ModTime().Truncate(time.Second), f)
}
