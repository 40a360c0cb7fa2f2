package process

import (
	"log/slog"
	"time"

	"github.com/quka-ai/studymate/pkg/register"
)

const WORKSPACE_IDLE_TIMEOUT = 30 * time.Minute

func init() {
	register.RegisterFunc[*Process](ProcessKey{}, func(p *Process) {
		p.Cron().AddFunc("@every 5m", func() {
			registry := p.Core().Workspaces()
			if n := registry.EvictIdle(WORKSPACE_IDLE_TIMEOUT); n > 0 {
				slog.Info("idle workspaces evicted", slog.Int("count", n))
			}
			p.Core().Metrics().SetWorkspaces(registry.Len())
		})
	})
}
