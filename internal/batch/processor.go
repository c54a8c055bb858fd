// Package batch bakes several settings files concurrently.
package batch

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"fur-mask-baker/internal/bake"
	"fur-mask-baker/internal/config"
	"fur-mask-baker/internal/gltfscene"
	"fur-mask-baker/internal/logger"
	"fur-mask-baker/internal/postprocess"
	"fur-mask-baker/internal/raster"
	"fur-mask-baker/internal/texture"
)

// Config holds the shared settings for a batch run.
type Config struct {
	Workers        int
	ProgressPeriod time.Duration // 0 disables the progress ticker
	Log            *zap.Logger
}

// Result holds the outcome of one settings file.
type Result struct {
	Name     string   // output prefix
	Config   string   // settings file path
	Textures []Output // written files, sorted by material
	Missing  []string // configured surface paths absent from the scene
	Duration time.Duration
	Success  bool
	Error    string
}

// Output is one written mask texture.
type Output struct {
	Material string
	Path     string
	Preview  string
	Size     int
}

// Run bakes every job using a worker pool. Results are in job order.
func Run(ctx context.Context, cfg Config, jobs []*config.Config) []Result {
	log := logger.OrNop(cfg.Log)
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64
	textures := newCacheSet()

	start := time.Now()

	done := make(chan struct{})
	if cfg.ProgressPeriod > 0 {
		go func() {
			ticker := time.NewTicker(cfg.ProgressPeriod)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if p := processed.Load(); p > 0 {
						log.Info("batch progress",
							zap.Int64("done", p), zap.Int("total", total),
							zap.Duration("elapsed", time.Since(start).Round(time.Second)))
					}
				}
			}
		}()
	}

	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(ctx, log, textures, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)
	return results
}

func processJob(ctx context.Context, log *zap.Logger, textures *cacheSet, job *config.Config) Result {
	start := time.Now()
	res := Result{Name: job.Output.Prefix, Config: job.Path}
	fail := func(err error) Result {
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}
	log = log.With(zap.String("job", res.Name))

	scene, err := gltfscene.Load(job.Scene.File, log)
	if err != nil {
		return fail(err)
	}
	req, missing, err := job.Request(scene, textures.get(job.Scene.TextureDir), log)
	if err != nil {
		return fail(err)
	}
	res.Missing = missing
	for _, m := range missing {
		log.Warn("surface path not found in scene", zap.String("path", m))
	}

	var out map[string]*image.NRGBA
	req.OnCompleted = func(m map[string]*image.NRGBA) { out = m }
	req.OnProgress = func(done, total int) {
		log.Debug("sampling", zap.Int("done", done), zap.Int("total", total))
	}

	sess, err := bake.NewSession(req)
	if err != nil {
		return fail(err)
	}
	if err := sess.Run(ctx); err != nil {
		return fail(err)
	}

	materials := make([]string, 0, len(out))
	for m := range out {
		materials = append(materials, m)
	}
	sort.Strings(materials)

	size := raster.ResolutionSize(job.Output.Resolution)
	stems := uniqueStems(job.Output.Prefix, materials, job.Output.Preview > 0)
	for i, m := range materials {
		o, err := writeTexture(job, m, stems[i], out[m])
		if err != nil {
			return fail(err)
		}
		o.Size = size
		res.Textures = append(res.Textures, o)
	}

	res.Success = true
	res.Duration = time.Since(start)
	log.Info("bake written", zap.Int("textures", len(res.Textures)), zap.Duration("took", res.Duration))
	return res
}

func writeTexture(job *config.Config, material, stem string, img *image.NRGBA) (Output, error) {
	o := Output{Material: material}
	o.Path = stem + "." + job.Output.Format
	if err := Save(filepath.Join(job.Output.Dir, o.Path), img, job.Output.Format); err != nil {
		return o, err
	}
	if job.Output.Preview > 0 {
		o.Preview = stem + "_preview." + job.Output.Format
		preview := postprocess.Downsample(img, job.Output.Preview)
		if err := Save(filepath.Join(job.Output.Dir, o.Preview), preview, job.Output.Format); err != nil {
			return o, err
		}
	}
	return o, nil
}

// fileStem joins prefix and material into a file-system-safe name.
func fileStem(prefix, material string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, material)
	if prefix == "" {
		return clean
	}
	return prefix + "_" + clean
}

// uniqueStems maps each material to a distinct file stem. Names that clean
// to the same stem, or differ only in case, get a numeric suffix so one
// texture never overwrites another. With previews on, the "_preview" names
// are reserved as well.
func uniqueStems(prefix string, materials []string, previews bool) []string {
	taken := make(map[string]bool)
	stems := make([]string, len(materials))
	for i, m := range materials {
		base := fileStem(prefix, m)
		stem := base
		for n := 2; taken[strings.ToLower(stem)] || (previews && taken[strings.ToLower(stem+"_preview")]); n++ {
			stem = fmt.Sprintf("%s_%d", base, n)
		}
		taken[strings.ToLower(stem)] = true
		if previews {
			taken[strings.ToLower(stem+"_preview")] = true
		}
		stems[i] = stem
	}
	return stems
}

// cacheSet shares one texture cache per texture root across workers.
type cacheSet struct {
	mu     sync.Mutex
	caches map[string]*texture.Cache
}

func newCacheSet() *cacheSet {
	return &cacheSet{caches: make(map[string]*texture.Cache)}
}

func (s *cacheSet) get(root string) *texture.Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[root]
	if !ok {
		c = texture.NewCache(texture.BuildIndex(root))
		s.caches[root] = c
	}
	return c
}

// Summary counts successes and failures.
func Summary(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.Success {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

// String formats a result for CLI output.
func (r Result) String() string {
	if !r.Success {
		return fmt.Sprintf("%s: FAILED: %s", r.Name, r.Error)
	}
	return fmt.Sprintf("%s: %d textures in %s", r.Name, len(r.Textures), r.Duration.Round(time.Millisecond))
}
