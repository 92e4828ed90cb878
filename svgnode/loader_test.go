package svgnode

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benoitkugler/svgscene/svgraster"
	"github.com/benoitkugler/svgscene/svgscene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 0xff, 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dataURL(t *testing.T) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(redPNG(t))
}

func TestLoadDataURL(t *testing.T) {
	img, err := NewLoader().Load(context.Background(), dataURL(t))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())

	_, err = NewLoader().Load(context.Background(), "data:image/png;base64")
	assert.ErrorIs(t, err, errBadDataURL)
	_, err = NewLoader().Load(context.Background(), "data:image/png;base64,!!!")
	assert.ErrorIs(t, err, errBadDataURL)
	_, err = NewLoader().Load(context.Background(), "data:,not%20an%20image")
	assert.Error(t, err)
}

func TestLoadHTTP(t *testing.T) {
	payload := redPNG(t)
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img.png" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		<-release
		w.Write(payload)
	}))
	defer srv.Close()

	loader := NewLoader(WithHTTPClient(srv.Client()))
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := loader.Load(context.Background(), srv.URL+"/img.png")
			assert.NoError(t, err)
			if err == nil {
				assert.Equal(t, 2, img.Bounds().Dx())
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), hits.Load())

	_, err := loader.Load(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img.png"), redPNG(t), 0o644))

	loader := NewLoader(WithBaseDir(dir))
	img, err := loader.Load(context.Background(), "img.png")
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dy())

	img, err = NewLoader().Load(context.Background(), "file://"+filepath.Join(dir, "img.png"))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())

	_, err = loader.Load(context.Background(), "other.png")
	assert.Error(t, err)
	_, err = loader.Load(context.Background(), "ftp://host/img.png")
	assert.ErrorIs(t, err, errUnsupportedHref)
}

type countingScheduler struct{ requests chan struct{} }

func (s countingScheduler) RequestRender() { s.requests <- struct{}{} }

func TestImageLoadsAsynchronously(t *testing.T) {
	im := NewImage(dataURL(t), NewLoader())
	im.Width, im.Height = Px(10), Px(10)
	im.Tag = 2
	sched := countingScheduler{requests: make(chan struct{}, 1)}
	paint := &svgscene.Paint{Defs: svgscene.NewDefinitions(), Scheduler: sched}

	tg := svgraster.New(10, 10)
	im.SetupDimensions(tg)
	im.Draw(tg, paint, 1)
	assert.Equal(t, color.RGBA{}, tg.Image().RGBAAt(5, 5), "nothing is drawn while loading")

	select {
	case <-sched.requests:
	case <-time.After(5 * time.Second):
		t.Fatal("no render requested after loading")
	}
	require.True(t, im.Loaded())

	im.Draw(tg, paint, 1)
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, tg.Image().RGBAAt(5, 5))

	tag, ok := im.HitTest(svgscene.Point{X: 5, Y: 5}, nil)
	require.True(t, ok)
	assert.Equal(t, svgscene.Tag(2), tag)
}

func TestImageInRoot(t *testing.T) {
	im := NewImage(dataURL(t), nil)
	root := newRoot(4, 4, im)
	root.Render()
	require.Eventually(t, im.Loaded, 5*time.Second, time.Millisecond)

	img := root.Render()
	// intrinsic size
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, img.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(3, 3))
}

func TestImageLoadFailure(t *testing.T) {
	im := NewImage("missing.png", NewLoader(WithBaseDir(t.TempDir())))
	sched := countingScheduler{requests: make(chan struct{}, 1)}
	paint := &svgscene.Paint{Scheduler: sched}
	im.Draw(svgraster.New(4, 4), paint, 1)

	require.Eventually(t, func() bool {
		im.mu.Lock()
		defer im.mu.Unlock()
		return im.state == failed
	}, 5*time.Second, time.Millisecond)
	assert.False(t, im.Loaded())
	assert.Empty(t, sched.requests)
}

func TestImageWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	im := NewImage(dataURL(t), nil)
	require.NoError(t, im.Wait(ctx))
	assert.True(t, im.Loaded())
	require.NoError(t, im.Wait(ctx)) // already loaded

	im = NewImage("missing.png", NewLoader(WithBaseDir(t.TempDir())))
	assert.Error(t, im.Wait(ctx))

	canceled, stop := context.WithCancel(context.Background())
	stop()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)
	im = NewImage(srv.URL+"/slow.png", nil)
	assert.ErrorIs(t, im.Wait(canceled), context.Canceled)
}

func TestImageNotifiesSchedulerSeenWhileLoading(t *testing.T) {
	data := redPNG(t)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	defer unblock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// the load is started without a scheduler
	im := NewImage(srv.URL+"/red.png", NewLoader())
	waitErr := make(chan error, 1)
	go func() { waitErr <- im.Wait(ctx) }()
	require.Eventually(t, func() bool {
		im.mu.Lock()
		defer im.mu.Unlock()
		return im.state == loading
	}, 5*time.Second, time.Millisecond)

	sched := countingScheduler{requests: make(chan struct{}, 1)}
	paint := &svgscene.Paint{Defs: svgscene.NewDefinitions(), Scheduler: sched}
	tg := svgraster.New(4, 4)
	im.Draw(tg, paint, 1)
	im.Draw(tg, paint, 1) // registered once
	unblock()

	select {
	case <-sched.requests:
	case <-time.After(5 * time.Second):
		t.Fatal("no render requested after loading")
	}
	require.NoError(t, <-waitErr)
	assert.Empty(t, sched.requests)
}
