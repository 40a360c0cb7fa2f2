package srv

import (
	"github.com/redis/go-redis/v9"

	"github.com/quka-ai/studymate/pkg/ai"
	"github.com/quka-ai/studymate/pkg/extract"
	"github.com/quka-ai/studymate/pkg/socket"
)

type Srv struct {
	ai        *ai.Service
	aiStatus  AIStatus
	extractor *extract.Extractor
	hub       *socket.Hub
}

type ApplyFunc func(s *Srv)

func SetupSrvs(opts ...ApplyFunc) *Srv {
	s := &Srv{
		ai: ai.NewService(),
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.extractor == nil {
		s.extractor = extract.New(s.ai)
	}
	if s.hub == nil {
		s.hub = socket.NewHub(nil)
	}
	return s
}

func (s *Srv) AI() *ai.Service {
	return s.ai
}

func (s *Srv) AIStatus() AIStatus {
	return s.aiStatus
}

func (s *Srv) Extractor() *extract.Extractor {
	return s.extractor
}

func (s *Srv) Hub() *socket.Hub {
	return s.hub
}

// ApplyHub fans socket events out through redis when r is not nil.
func ApplyHub(r redis.UniversalClient) ApplyFunc {
	return func(s *Srv) {
		s.hub = socket.NewHub(r)
	}
}
