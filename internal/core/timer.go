package core

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Timer logs the time elapsed since start if it took longer than 100ms.
// Use it as `defer core.Timer(time.Now(), "Populate(%s)", kind)`.
func Timer(start time.Time, fun string, args ...any) {
	elapsed := time.Since(start)
	if elapsed < 100*time.Millisecond {
		return
	}
	log.Debug().Str("func", fmt.Sprintf(fun, args...)).Dur("elapsed", elapsed).Msg("timer")
}
