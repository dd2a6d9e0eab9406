package images

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jorgenskogmo/webpub/internal/config"
	"github.com/jorgenskogmo/webpub/internal/plugin"
)

type fakeResizer struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeResizer) Resize(src, dst string, width int) error {
	f.mu.Lock()
	f.calls = append(f.calls, filepath.Base(dst))
	f.mu.Unlock()
	return os.WriteFile(dst, []byte(src), 0o644)
}

func siteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ContentDirectory = t.TempDir()
	cfg.OutputDirectory = t.TempDir()
	return cfg
}

func TestSrcset_RewritesLocalImages(t *testing.T) {
	cfg := siteConfig(t)
	fake := &fakeResizer{}
	p := NewSrcset().WithResizer(fake)
	require.NoError(t, p.Configure(map[string]any{"image_widths": []any{100, 300}}))

	in := `<p>Hi <img src="pic.jpg" alt="A &amp; B"> and <img src="https://x.test/a.png"></p>`
	out, err := p.Run(t.Context(), cfg, "/a/", in)
	require.NoError(t, err)
	require.Equal(t,
		`<p>Hi <img alt="A &amp; B" src="images/w300-pic.jpg" srcset="images/w100-pic.jpg 100w, images/w300-pic.jpg 300w" /> and <img src="https://x.test/a.png"></p>`,
		out)
	require.Equal(t, []string{"w100-pic.jpg", "w300-pic.jpg"}, fake.calls)
	require.FileExists(t, filepath.Join(cfg.OutputDirectory, "a", "images", "w100-pic.jpg"))
}

func TestSrcset_ExistingVariantsAreReused(t *testing.T) {
	cfg := siteConfig(t)
	fake := &fakeResizer{}
	p := NewSrcset().WithResizer(fake)
	require.NoError(t, p.Configure(map[string]any{"image_widths": []any{100}}))

	_, err := p.Run(t.Context(), cfg, "/./", `<img src="x.png">`)
	require.NoError(t, err)
	_, err = p.Run(t.Context(), cfg, "/./", `<img src="x.png">`)
	require.NoError(t, err)
	require.Len(t, fake.calls, 1)
	require.FileExists(t, filepath.Join(cfg.OutputDirectory, "images", "w100-x.png"))
}

func TestImg_SingleWidthAndAltFallback(t *testing.T) {
	cfg := siteConfig(t)
	out, err := NewImg().WithResizer(&fakeResizer{}).Run(t.Context(), cfg, "/b/", `<img src="sub/y.png"/>`)
	require.NoError(t, err)
	require.Equal(t, `<img alt="no alt text available" src="images/w1200-y.png" />`, out)
}

func TestRun_PreservesOtherMarkup(t *testing.T) {
	cfg := siteConfig(t)
	in := "<!-- c --><h1 id=\"x\">T</h1>\n<script>if (a < b) {}</script><img src=\"data:image/png;base64,AA\">"
	out, err := NewSrcset().WithResizer(&fakeResizer{}).Run(t.Context(), cfg, "/./", in)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestConfigure_Validation(t *testing.T) {
	p := NewSrcset()
	require.NoError(t, p.Configure(map[string]any{}))
	require.Equal(t, []int{200, 400, 800, 1000, 1200}, p.Widths())

	require.Error(t, p.Configure(map[string]any{"image_widths": "big"}))
	require.Error(t, p.Configure(map[string]any{"image_widths": []any{}}))
	require.Error(t, p.Configure(map[string]any{"image_widths": []any{-1}}))
	require.NoError(t, p.Configure(map[string]any{"image_widths": []any{float64(640)}}))
	require.Equal(t, []int{640}, p.Widths())
}

func TestRegister_AddsBothPlugins(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, Register(r))
	require.Equal(t, []string{ImgName, SrcsetName}, r.Names())

	chain, err := r.Chain([]config.PluginConfig{{Name: SrcsetName, Options: map[string]any{"image_widths": []any{10}}}})
	require.NoError(t, err)
	require.Equal(t, 1, chain.Len())
}

func TestDrawResizer_KeepsAspectRatio(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), A: 255})
		}
	}
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	dst := filepath.Join(dir, "w10-in.png")
	require.NoError(t, DrawResizer{}.Resize(src, dst, 10))

	out, err := os.Open(dst)
	require.NoError(t, err)
	defer out.Close()
	cfgImg, _, err := image.DecodeConfig(out)
	require.NoError(t, err)
	require.Equal(t, 10, cfgImg.Width)
	require.Equal(t, 5, cfgImg.Height)
}

func TestDrawResizer_MissingSource(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, DrawResizer{}.Resize(filepath.Join(dir, "nope.png"), filepath.Join(dir, "out.png"), 10))
}
