package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/soaringjerry/surveyd/internal/cache"
	"github.com/soaringjerry/surveyd/internal/metrics"
)

// HeaderCache tells clients whether a response came from the result cache.
const HeaderCache = "X-Cache"

type CacheOptions struct {
	Prefix  string
	TTL     time.Duration
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	// Generation reports the invalidation generation a request reads from.
	// When it moves while the handler runs, the result is not kept.
	Generation func(r *http.Request) uint64
}

func (o CacheOptions) generation(r *http.Request) uint64 {
	if o.Generation == nil {
		return 0
	}
	return o.Generation(r)
}

// ResultCache serves GET responses from c when present and stores completed
// 2xx responses otherwise. Backend failures are logged and treated as misses.
func ResultCache(c cache.Cache, opts CacheOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			key := cache.Key(opts.Prefix, r.URL.Path, r.URL.RawQuery)
			entry, ok, err := c.Get(ctx, key)
			switch {
			case err != nil:
				opts.Logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
				opts.Metrics.CacheLookup(metrics.CacheError)
			case ok:
				opts.Metrics.CacheLookup(metrics.CacheHit)
				if entry.ContentType != "" {
					w.Header().Set("Content-Type", entry.ContentType)
				}
				w.Header().Set(HeaderCache, "HIT")
				w.WriteHeader(entry.Status)
				_, _ = w.Write(entry.Body)
				return
			default:
				opts.Metrics.CacheLookup(metrics.CacheMiss)
			}

			w.Header().Set(HeaderCache, "MISS")
			gen := opts.generation(r)
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status < 200 || rec.status > 299 || ctx.Err() != nil {
				return
			}
			if opts.generation(r) != gen {
				return
			}
			stored := cache.Entry{Body: rec.body.Bytes(), Status: rec.status, ContentType: w.Header().Get("Content-Type")}
			if err := c.Set(ctx, key, stored, opts.TTL); err != nil {
				opts.Logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
				return
			}
			// An invalidation that landed between the check and Set may have
			// run its delete first.
			if opts.generation(r) != gen {
				if _, err := c.DeletePrefix(ctx, key); err != nil {
					opts.Logger.Warn().Err(err).Str("key", key).Msg("cache evict failed")
				}
			}
		})
	}
}

// recorder tees the body into a buffer while writing through.
type recorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// NoStore keeps browsers and proxies from caching API responses; the server
// side cache is the only one allowed to replay them.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}
