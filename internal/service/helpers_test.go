package service_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AlanChernakoff/Photogame/internal/domain"
	"github.com/AlanChernakoff/Photogame/internal/infra/blob"
	"github.com/AlanChernakoff/Photogame/internal/infra/persistence/jsonfile"
	"github.com/AlanChernakoff/Photogame/internal/service"
)

// testEnv 用真实的 JSON 文件存储和本地文件存储组装服务
type testEnv struct {
	store    *jsonfile.Store
	blobDir  string
	files    blob.Provider
	auth     *service.AuthService
	photos   *service.PhotoService
	game     *service.GameService
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	store, err := jsonfile.Open(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	blobDir := filepath.Join(dir, "uploads")
	files, err := blob.NewLocalProvider(blobDir)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	gate := service.NewGate(store.Users())
	return &testEnv{
		store:    store,
		blobDir:  blobDir,
		files:    files,
		auth:     service.NewAuthService(store.Users(), nil),
		photos:   service.NewPhotoService(gate, store.Photos(), files, nil, 0),
		game:     service.NewGameService(gate, store.Photos(), store.Game(), files, nil, notifier),
		notifier: notifier,
	}
}

func (e *testEnv) register(t *testing.T, name, color string) *domain.User {
	t.Helper()
	user, err := e.auth.Register(context.Background(), name, color)
	require.NoError(t, err)
	return user
}

func (e *testEnv) upload(t *testing.T, userID uint, tipos ...domain.Tipo) []domain.Tipo {
	t.Helper()
	accepted, err := e.photos.Upload(context.Background(), userID, slots(tipos...))
	require.NoError(t, err)
	return accepted
}

// slots 为每个槽位生成一张小 PNG
func slots(tipos ...domain.Tipo) map[domain.Tipo]service.UploadFile {
	out := make(map[domain.Tipo]service.UploadFile, len(tipos))
	for _, tipo := range tipos {
		data := pngBytes()
		out[tipo] = service.UploadFile{
			OriginalName: string(tipo) + ".png",
			ContentType:  "image/png",
			Size:         int64(len(data)),
			Body:         bytes.NewReader(data),
		}
	}
	return out
}

func pngBytes() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for x := 0; x < 640; x++ {
		for y := 0; y < 480; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []service.GameEvent
}

func (n *recordingNotifier) Publish(event service.GameEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}
