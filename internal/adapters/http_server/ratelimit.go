package httpserver

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"heritage_hunter/internal/adapters/observability"
)

type window struct {
	name  string
	limit int
	per   time.Duration
}

// UserLimits enforces per-user request quotas over several windows at once.
type UserLimits struct {
	windows []window

	mu    sync.Mutex
	users map[int64][]*rate.Limiter
	now   func() time.Time
}

func NewUserLimits(perMinute, perHour, perDay int) *UserLimits {
	var ws []window
	for _, w := range []window{{"minute", perMinute, time.Minute}, {"hour", perHour, time.Hour}, {"day", perDay, 24 * time.Hour}} {
		if w.limit > 0 {
			ws = append(ws, w)
		}
	}
	return &UserLimits{windows: ws, users: map[int64][]*rate.Limiter{}, now: time.Now}
}

func (u *UserLimits) limiters(uid int64) []*rate.Limiter {
	u.mu.Lock()
	defer u.mu.Unlock()
	ls, ok := u.users[uid]
	if !ok {
		ls = make([]*rate.Limiter, len(u.windows))
		for i, w := range u.windows {
			ls[i] = rate.NewLimiter(rate.Every(w.per/time.Duration(w.limit)), w.limit)
		}
		u.users[uid] = ls
	}
	return ls
}

// Allow takes one token from every window, or none. It returns the name of the
// first exhausted window and how long until it refills.
func (u *UserLimits) Allow(uid int64) (ok bool, exhausted string, wait time.Duration) {
	now := u.now()
	ls := u.limiters(uid)
	res := make([]*rate.Reservation, 0, len(ls))
	for i, l := range ls {
		r := l.ReserveN(now, 1)
		if d := r.DelayFrom(now); !r.OK() || d > 0 {
			r.CancelAt(now)
			for _, prev := range res {
				prev.CancelAt(now)
			}
			return false, u.windows[i].name, d
		}
		res = append(res, r)
	}
	return true, "", 0
}

// Middleware must run after RequireSession.
func (u *UserLimits) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFrom(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if ok, win, wait := u.Allow(sess.UserID); !ok {
			observability.ObserveRateLimited(win)
			if secs := int(wait.Seconds()) + 1; secs > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
			writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "limit per "+win+" exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
