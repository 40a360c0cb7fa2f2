package process

import (
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"

	"github.com/quka-ai/studymate/app/core"
	"github.com/quka-ai/studymate/pkg/queue"
	"github.com/quka-ai/studymate/pkg/register"
)

// AudioQueue is nil when redis is not configured, callers run the job in process then.
func AudioQueue() *queue.AudioQueue {
	if p == nil {
		return nil
	}
	return p.audioQueue
}

type Process struct {
	cron        *cron.Cron
	core        *core.Core
	asynqClient *asynq.Client
	asynqServer *asynq.Server
	asynqMux    *asynq.ServeMux
	audioQueue  *queue.AudioQueue
}

var p *Process

type ProcessKey struct{}

func RedisConnOpt(cfg core.RedisConfig) asynq.RedisConnOpt {
	if cfg.Cluster {
		return asynq.RedisClusterClientOpt{
			Addrs:    cfg.ClusterAddrs,
			Password: cfg.Password,
		}
	}
	return asynq.RedisClientOpt{
		Network:  "tcp",
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewProcess(core *core.Core) *Process {
	p = &Process{
		cron: cron.New(),
		core: core,
	}

	if cfg := core.Cfg().Redis; cfg.Enabled() {
		redisOpt := RedisConnOpt(cfg)
		p.asynqClient = asynq.NewClient(redisOpt)
		// 转写耗时较长，并发保持较低
		p.asynqServer = asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				queue.AudioQueueName: 1,
			},
			Logger: newAsynqLogger(),
		})
		p.asynqMux = asynq.NewServeMux()
	} else {
		slog.Warn("redis not configured, audio jobs run in process")
	}

	for _, h := range register.ResolveFuncHandlers[*Process](ProcessKey{}) {
		h(p)
	}

	return p
}

func (p *Process) Cron() *cron.Cron {
	return p.cron
}

func (p *Process) Core() *core.Core {
	return p.core
}

func (p *Process) AsynqClient() *asynq.Client {
	return p.asynqClient
}

func (p *Process) AsynqServerMux() *asynq.ServeMux {
	return p.asynqMux
}

func (p *Process) SetAudioQueue(q *queue.AudioQueue) {
	p.audioQueue = q
}

func (p *Process) Start() {
	p.cron.Start()
	if p.asynqServer != nil {
		go func() {
			if err := p.asynqServer.Run(p.asynqMux); err != nil {
				slog.Error("asynq server stopped", slog.String("error", err.Error()))
			}
		}()
	}
}

func (p *Process) Stop() {
	// 停止 cron 调度器
	if p.cron != nil {
		ctx := p.cron.Stop()
		<-ctx.Done()
	}

	if p.asynqServer != nil {
		p.asynqServer.Shutdown()
	}

	if p.audioQueue != nil {
		p.audioQueue.Shutdown()
	}

	p.core.Workspaces().CloseAll()
}
